package handler

import (
	"errors"
	"net/http"

	"marketplace-checkout/internal/dto"
	"marketplace-checkout/internal/middleware"
	"marketplace-checkout/internal/service"

	"github.com/labstack/echo/v4"
)

type PaymentHandler struct {
	methodService service.PaymentMethodService
	regionService service.RegionService
}

func NewPaymentHandler(methodService service.PaymentMethodService, regionService service.RegionService) *PaymentHandler {
	return &PaymentHandler{
		methodService: methodService,
		regionService: regionService,
	}
}

func (h *PaymentHandler) Settings(c echo.Context) error {
	ctx := c.Request().Context()
	userID := middleware.UserID(c)
	region := resolveRegion(c, h.regionService)

	settings, err := h.methodService.Settings(ctx, userID, region)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, settings)
}

func (h *PaymentHandler) AddLocalMethod(c echo.Context) error {
	ctx := c.Request().Context()
	userID := middleware.UserID(c)
	region := resolveRegion(c, h.regionService)

	var req dto.AddLocalMethodRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid req body")
	}

	method, err := h.methodService.AddLocalMethod(ctx, userID, region, &req)
	if err != nil {
		if errors.Is(err, service.ErrInvalidMethod) {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid payment method details")
		}
		return err
	}

	return c.JSON(http.StatusOK, method)
}

// SetupIntent issues a card-gateway client secret; an empty secret means
// the integration is unavailable and the client hides the card form.
func (h *PaymentHandler) SetupIntent(c echo.Context) error {
	ctx := c.Request().Context()
	userID := middleware.UserID(c)

	secret, err := h.methodService.CreateSetupIntent(ctx, userID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, dto.SetupIntentResponse{ClientSecret: secret})
}

func (h *PaymentHandler) SetDefault(c echo.Context) error {
	ctx := c.Request().Context()
	userID := middleware.UserID(c)

	methodID := c.Param("id")
	if err := h.methodService.SetDefault(ctx, userID, methodID); err != nil {
		if errors.Is(err, service.ErrMethodNotFound) {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid payment method")
		}
		return err
	}

	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (h *PaymentHandler) Remove(c echo.Context) error {
	ctx := c.Request().Context()
	userID := middleware.UserID(c)

	methodID := c.Param("id")
	if err := h.methodService.Remove(ctx, userID, methodID); err != nil {
		if errors.Is(err, service.ErrMethodNotFound) {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid payment method")
		}
		return err
	}

	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}
