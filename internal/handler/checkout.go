package handler

import (
	"errors"
	"net/http"

	"marketplace-checkout/internal/dto"
	"marketplace-checkout/internal/middleware"
	"marketplace-checkout/internal/model"
	"marketplace-checkout/internal/service"

	"github.com/labstack/echo/v4"
)

type CheckoutHandler struct {
	checkoutService service.CheckoutService
	regionService   service.RegionService
}

func NewCheckoutHandler(checkoutService service.CheckoutService, regionService service.RegionService) *CheckoutHandler {
	return &CheckoutHandler{
		checkoutService: checkoutService,
		regionService:   regionService,
	}
}

// resolveRegion reads the timezone hint (cookie set client-side, header as
// fallback) and the caller IP.
func resolveRegion(c echo.Context, regions service.RegionService) model.Region {
	timezone := c.Request().Header.Get("X-Timezone")
	if cookie, err := c.Cookie("tz"); err == nil && cookie.Value != "" {
		timezone = cookie.Value
	}

	return regions.Resolve(c.Request().Context(), timezone, c.RealIP())
}

func (h *CheckoutHandler) Checkout(c echo.Context) error {
	ctx := c.Request().Context()
	userID := middleware.UserID(c)
	region := resolveRegion(c, h.regionService)

	result, err := h.checkoutService.Checkout(ctx, userID, region)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEmptyCart):
			return c.JSON(http.StatusBadRequest, dto.CheckoutResponse{
				Status:      "error",
				RedirectURL: "/cart",
				Message:     "Your cart is empty.",
			})
		case errors.Is(err, service.ErrListingUnavailable):
			return c.JSON(http.StatusConflict, dto.CheckoutResponse{
				Status:      "error",
				RedirectURL: "/cart",
				Message:     "Some items are no longer available.",
			})
		}
		return err
	}

	return c.JSON(http.StatusOK, result)
}

func (h *CheckoutHandler) Success(c echo.Context) error {
	ctx := c.Request().Context()
	userID := middleware.UserID(c)

	sessionID := c.QueryParam("session_id")
	if sessionID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "missing session_id")
	}

	result, err := h.checkoutService.CompleteCardCheckout(ctx, userID, sessionID)
	if err != nil {
		if errors.Is(err, service.ErrInvalidSession) {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid session")
		}
		return err
	}

	return c.JSON(http.StatusOK, result)
}

// TelrCallback is unauthenticated: trust comes from the payload signature.
func (h *CheckoutHandler) TelrCallback(c echo.Context) error {
	ctx := c.Request().Context()

	if err := c.Request().ParseForm(); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed callback")
	}

	if err := h.checkoutService.HandleTokenCallback(ctx, c.Request().PostForm); err != nil {
		if errors.Is(err, service.ErrInvalidSession) {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid callback")
		}
		return err
	}

	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (h *CheckoutHandler) ListOrders(c echo.Context) error {
	ctx := c.Request().Context()
	userID := middleware.UserID(c)

	orders, err := h.checkoutService.ListOrders(ctx, userID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, orders)
}
