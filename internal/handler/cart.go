package handler

import (
	"errors"
	"net/http"

	"marketplace-checkout/internal/middleware"
	"marketplace-checkout/internal/service"

	"github.com/labstack/echo/v4"
)

type CartHandler struct {
	cartService service.CartService
}

func NewCartHandler(cartService service.CartService) *CartHandler {
	return &CartHandler{
		cartService: cartService,
	}
}

func (h *CartHandler) GetCart(c echo.Context) error {
	ctx := c.Request().Context()
	userID := middleware.UserID(c)

	cart, err := h.cartService.GetCart(ctx, userID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, cart)
}

func (h *CartHandler) AddItem(c echo.Context) error {
	ctx := c.Request().Context()
	userID := middleware.UserID(c)

	listingID := c.Param("listingID")
	if listingID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "missing listing id")
	}

	if err := h.cartService.AddItem(ctx, userID, listingID); err != nil {
		if errors.Is(err, service.ErrListingNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "listing not found")
		}
		return err
	}

	return c.JSON(http.StatusOK, map[string]string{"status": "added"})
}

func (h *CartHandler) RemoveItem(c echo.Context) error {
	ctx := c.Request().Context()
	userID := middleware.UserID(c)

	listingID := c.Param("listingID")
	if listingID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "missing listing id")
	}

	if err := h.cartService.RemoveItem(ctx, userID, listingID); err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]string{"status": "removed"})
}
