package handler

import (
	"net/http"

	"marketplace-checkout/internal/dto"
	"marketplace-checkout/internal/service"

	"github.com/labstack/echo/v4"
)

type RegionHandler struct {
	regionService service.RegionService
}

func NewRegionHandler(regionService service.RegionService) *RegionHandler {
	return &RegionHandler{
		regionService: regionService,
	}
}

func (h *RegionHandler) Get(c echo.Context) error {
	region := resolveRegion(c, h.regionService)

	return c.JSON(http.StatusOK, dto.RegionResponse{
		Region:   string(region),
		Currency: region.Currency(),
	})
}
