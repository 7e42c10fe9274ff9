package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/url"

	"marketplace-checkout/internal/client"
	"marketplace-checkout/internal/dto"
	"marketplace-checkout/internal/gateway"
	"marketplace-checkout/internal/model"
	"marketplace-checkout/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var (
	ErrEmptyCart = errors.New("cart is empty")
	// ErrInvalidSession covers unknown sessions, foreign orders and bad
	// callbacks alike; callers get no hint which one it was.
	ErrInvalidSession     = errors.New("invalid checkout session")
	ErrListingUnavailable = errors.New("a cart listing is no longer available")
)

type CheckoutService interface {
	Checkout(ctx context.Context, userID string, region model.Region) (*dto.CheckoutResponse, error)
	CompleteCardCheckout(ctx context.Context, userID, sessionID string) (*dto.CheckoutResponse, error)
	HandleTokenCallback(ctx context.Context, values url.Values) error
	ListOrders(ctx context.Context, userID string) ([]*dto.OrderView, error)
}

type checkoutServiceImpl struct {
	db          *gorm.DB
	cartRepo    repository.CartRepository
	listingRepo repository.ListingRepository
	orderRepo   repository.OrderRepository
	gateways    *gateway.Selector
	telrClient  client.TelrClient // nil when the token gateway is unconfigured
}

func NewCheckoutService(
	db *gorm.DB,
	cartRepo repository.CartRepository,
	listingRepo repository.ListingRepository,
	orderRepo repository.OrderRepository,
	gateways *gateway.Selector,
	telrClient client.TelrClient,
) CheckoutService {
	return &checkoutServiceImpl{
		db:          db,
		cartRepo:    cartRepo,
		listingRepo: listingRepo,
		orderRepo:   orderRepo,
		gateways:    gateways,
		telrClient:  telrClient,
	}
}

// Checkout snapshots the cart into an order, then hands off to whichever
// gateway the region selects. A missing gateway settles the order offline;
// a failing one marks the order failed and leaves the cart intact so the
// user can retry. Neither path surfaces an error page.
func (s *checkoutServiceImpl) Checkout(ctx context.Context, userID string, region model.Region) (*dto.CheckoutResponse, error) {
	cartItems, err := s.cartRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load cart: %w", err)
	}
	if len(cartItems) == 0 {
		return nil, ErrEmptyCart
	}

	listingIDs := make([]string, len(cartItems))
	for i, item := range cartItems {
		listingIDs[i] = item.ListingID
	}

	listings, err := s.listingRepo.FindMany(ctx, listingIDs)
	if err != nil {
		return nil, fmt.Errorf("load listings: %w", err)
	}
	if len(listings) != len(cartItems) {
		return nil, ErrListingUnavailable
	}

	// point-in-time snapshot: later price edits never touch this order
	order := &model.Order{
		ID:       uuid.NewString(),
		UserID:   userID,
		Status:   model.OrderStatusPending,
		Total:    decimal.Zero,
		Currency: region.Currency(),
	}

	orderItems := make([]*model.OrderItem, len(listings))
	for i, listing := range listings {
		order.Total = order.Total.Add(listing.Price)
		orderItems[i] = &model.OrderItem{
			OrderID:   order.ID,
			ListingID: listing.ID,
			Title:     listing.Title,
			Quantity:  1,
			UnitPrice: listing.Price,
			Currency:  listing.Currency,
		}
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.orderRepo.Create(ctx, tx, order); err != nil {
			return fmt.Errorf("store order: %w", err)
		}
		if err := s.orderRepo.CreateOrderItems(ctx, tx, orderItems); err != nil {
			return fmt.Errorf("store order items: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	gw := s.gateways.ForRegion(region)
	session, err := gw.CreateSession(ctx, &gateway.SessionRequest{
		Order: order,
		Items: orderItems,
	})

	switch {
	case errors.Is(err, gateway.ErrNotConfigured):
		return s.completeOffline(ctx, order, userID)
	case err != nil:
		return s.failCheckout(ctx, order, err)
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.orderRepo.SetGatewayRef(ctx, tx, order.ID, session.Gateway, session.SessionID); err != nil {
			return fmt.Errorf("store gateway ref: %w", err)
		}
		return s.cartRepo.Clear(ctx, tx, userID)
	})
	if err != nil {
		return nil, err
	}

	return &dto.CheckoutResponse{
		OrderID:     order.ID,
		Status:      string(model.OrderStatusPending),
		RedirectURL: session.RedirectURL,
	}, nil
}

// completeOffline is the no-gateway branch: settle immediately and rely on
// manual settlement outside the system.
func (s *checkoutServiceImpl) completeOffline(ctx context.Context, order *model.Order, userID string) (*dto.CheckoutResponse, error) {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.orderRepo.UpdateStatus(ctx, tx, order.ID, model.OrderStatusCompleted); err != nil {
			return err
		}
		return s.cartRepo.Clear(ctx, tx, userID)
	})
	if err != nil {
		return nil, err
	}

	return &dto.CheckoutResponse{
		OrderID:     order.ID,
		Status:      string(model.OrderStatusCompleted),
		RedirectURL: "/orders",
		Message:     "Order placed. Payment will be settled offline.",
	}, nil
}

// failCheckout records that the payment attempt never started. The cart is
// deliberately left alone so the user can try again.
func (s *checkoutServiceImpl) failCheckout(ctx context.Context, order *model.Order, cause error) (*dto.CheckoutResponse, error) {
	log.Println("checkout: gateway session failed for order", order.ID, ":", cause)

	if err := s.orderRepo.UpdateStatus(ctx, s.db, order.ID, model.OrderStatusFailed); err != nil {
		return nil, fmt.Errorf("mark order failed: %w", err)
	}

	return &dto.CheckoutResponse{
		OrderID:     order.ID,
		Status:      string(model.OrderStatusFailed),
		RedirectURL: "/cart",
		Message:     "Payment could not be started. Your cart is unchanged.",
	}, nil
}

// CompleteCardCheckout finalizes the hosted-checkout redirect: the gateway
// session carries the order id as metadata, and only the order's owner can
// flip it to paid. The overwrite is blind, so repeat calls are harmless.
func (s *checkoutServiceImpl) CompleteCardCheckout(ctx context.Context, userID, sessionID string) (*dto.CheckoutResponse, error) {
	card := s.gateways.Card()
	if card == nil {
		return nil, ErrInvalidSession
	}

	orderID, err := card.Finalize(ctx, sessionID)
	if err != nil {
		log.Println("checkout: finalize session", sessionID, ":", err)
		return nil, ErrInvalidSession
	}

	rows, err := s.orderRepo.MarkPaidOwned(ctx, orderID, userID)
	if err != nil {
		return nil, fmt.Errorf("mark order paid: %w", err)
	}
	if rows == 0 {
		return nil, ErrInvalidSession
	}

	return &dto.CheckoutResponse{
		OrderID:     orderID,
		Status:      string(model.OrderStatusPaid),
		RedirectURL: "/orders",
	}, nil
}

// HandleTokenCallback processes the token gateway's signed server-to-server
// notification. Declined or cancelled transactions are acknowledged without
// touching the order, which stays pending.
func (s *checkoutServiceImpl) HandleTokenCallback(ctx context.Context, values url.Values) error {
	if s.telrClient == nil {
		return ErrInvalidSession
	}

	result, err := s.telrClient.DecodeCallback(values)
	if err != nil {
		log.Println("checkout: token callback rejected:", err)
		return ErrInvalidSession
	}

	if !result.Approved {
		return nil
	}

	rows, err := s.orderRepo.MarkPaidByGateway(ctx, result.OrderRef, gateway.NameTelr)
	if err != nil {
		return fmt.Errorf("mark order paid: %w", err)
	}
	if rows == 0 {
		return ErrInvalidSession
	}

	return nil
}

func (s *checkoutServiceImpl) ListOrders(ctx context.Context, userID string) ([]*dto.OrderView, error) {
	orders, err := s.orderRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}

	views := make([]*dto.OrderView, len(orders))
	for i, order := range orders {
		items, err := s.orderRepo.GetOrderItems(ctx, order.ID)
		if err != nil {
			return nil, fmt.Errorf("load order items: %w", err)
		}

		itemViews := make([]dto.OrderItemView, len(items))
		for j, item := range items {
			itemViews[j] = dto.OrderItemView{
				ListingID: item.ListingID,
				Title:     item.Title,
				Quantity:  item.Quantity,
				UnitPrice: item.UnitPrice.StringFixed(2),
			}
		}

		views[i] = &dto.OrderView{
			OrderID:  order.ID,
			Status:   string(order.Status),
			Total:    order.Total.StringFixed(2),
			Currency: order.Currency,
			Items:    itemViews,
		}
	}

	return views, nil
}
