package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"marketplace-checkout/internal/client"
	"marketplace-checkout/internal/config"
	"marketplace-checkout/internal/gateway"
	"marketplace-checkout/internal/model"
	"marketplace-checkout/internal/repository"
	"marketplace-checkout/internal/server"
	"marketplace-checkout/internal/service"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

func main() {
	// load .env into os.Environ
	if err := godotenv.Load(); err != nil {
		fmt.Println("No .env file found (ok in prod)")
	}

	cfg := &config.Config{}
	if err := env.Parse(cfg); err != nil {
		fmt.Printf("Failed to parse config: %v\n", err)
		os.Exit(1)
	}

	db := client.InitSqliteClient(cfg.DatabaseURL)

	userRepo := repository.NewUserRepository(db)
	listingRepo := repository.NewListingRepository(db)
	cartRepo := repository.NewCartRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	methodRepo := repository.NewPaymentMethodRepository(db)
	regionRepo := repository.NewRegionLookupRepository(db)

	// unconfigured gateways stay nil; every consumer degrades
	var cardGateway, tokenGateway gateway.Gateway
	var telrClient client.TelrClient

	if cfg.Stripe.Configured() {
		stripeClient := client.NewStripeClient(&cfg.Stripe)
		cardGateway = gateway.NewStripeGateway(stripeClient, userRepo, cfg.BaseURL)
	} else {
		log.Println("stripe not configured, card payments disabled")
	}

	if cfg.Telr.Configured() {
		telrClient = client.NewTelrClient(&cfg.Telr)
		tokenGateway = gateway.NewTelrGateway(telrClient, cfg.BaseURL)
	} else {
		log.Println("telr not configured, token payments disabled")
	}

	walletGateway := gateway.NewWalletGateway(db, methodRepo)
	gateways := gateway.NewSelector(cardGateway, tokenGateway, walletGateway)

	geoipClient := client.NewGeoIPClient(cfg.Region.GeoIPURL)
	regionService := service.NewRegionService(
		geoipClient,
		regionRepo,
		model.Region(cfg.Region.Default),
		cfg.Region.CacheTTL,
	)

	checkoutService := service.NewCheckoutService(db, cartRepo, listingRepo, orderRepo, gateways, telrClient)
	cartService := service.NewCartService(cartRepo, listingRepo)

	var setupIssuer gateway.SetupIntentIssuer
	if issuer, ok := cardGateway.(gateway.SetupIntentIssuer); ok {
		setupIssuer = issuer
	}

	methodService := service.NewPaymentMethodService(db, methodRepo, gateways, setupIssuer)

	serverAddr := cfg.HTTP.Host + ":" + cfg.HTTP.Port

	srv := server.NewServer(
		cfg.Auth.JWTSecret,
		userRepo,
		checkoutService,
		cartService,
		methodService,
		regionService,
	)

	log.Println("Starting HTTP server on", serverAddr)
	go func() {
		if err := srv.Start(serverAddr); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP server error")
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)

	<-sigChan
	log.Println("Signal received, starting graceful shutdown...")

	_, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(); err != nil {
		log.Fatal("HTTP server shutdown error")
	}
}
