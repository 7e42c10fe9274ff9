package server

import (
	"marketplace-checkout/internal/handler"
	appmiddleware "marketplace-checkout/internal/middleware"
	"marketplace-checkout/internal/repository"
	"marketplace-checkout/internal/service"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

type Server struct {
	echo            *echo.Echo
	auth            echo.MiddlewareFunc
	checkoutHandler *handler.CheckoutHandler
	cartHandler     *handler.CartHandler
	paymentHandler  *handler.PaymentHandler
	regionHandler   *handler.RegionHandler
}

func NewServer(
	jwtSecret string,
	users repository.UserRepository,
	checkoutService service.CheckoutService,
	cartService service.CartService,
	methodService service.PaymentMethodService,
	regionService service.RegionService,
) *Server {
	e := echo.New()

	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	s := &Server{
		echo:            e,
		auth:            appmiddleware.AuthMiddleware(jwtSecret, users),
		checkoutHandler: handler.NewCheckoutHandler(checkoutService, regionService),
		cartHandler:     handler.NewCartHandler(cartService),
		paymentHandler:  handler.NewPaymentHandler(methodService, regionService),
		regionHandler:   handler.NewRegionHandler(regionService),
	}

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	api := s.echo.Group("/api")

	api.GET("/health", func(c echo.Context) error {
		return c.JSON(200, map[string]string{"status": "ok"})
	})

	api.GET("/region", s.regionHandler.Get)

	// -------- cart & checkout --------
	api.GET("/cart", s.cartHandler.GetCart, s.auth)
	api.POST("/cart/:listingID", s.cartHandler.AddItem, s.auth)
	api.DELETE("/cart/:listingID", s.cartHandler.RemoveItem, s.auth)

	api.POST("/checkout", s.checkoutHandler.Checkout, s.auth)
	api.GET("/checkout/success", s.checkoutHandler.Success, s.auth)
	api.GET("/orders", s.checkoutHandler.ListOrders, s.auth)

	// -------- gateway callbacks (signed, no session) --------
	api.POST("/checkout/telr/callback", s.checkoutHandler.TelrCallback)

	// -------- payment settings --------
	settings := api.Group("/settings/payment", s.auth)
	settings.GET("", s.paymentHandler.Settings)
	settings.POST("", s.paymentHandler.AddLocalMethod)
	settings.POST("/setup-intent", s.paymentHandler.SetupIntent)
	settings.POST("/:id/default", s.paymentHandler.SetDefault)
	settings.DELETE("/:id", s.paymentHandler.Remove)
}

func (s *Server) Start(address string) error {
	return s.echo.Start(address)
}

func (s *Server) Shutdown() error {
	return s.echo.Close()
}
