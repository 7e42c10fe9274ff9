package service

import (
	"context"
	"errors"
	"net/url"
	"testing"

	"marketplace-checkout/internal/client"
	"marketplace-checkout/internal/gateway"
	"marketplace-checkout/internal/model"
	"marketplace-checkout/internal/repository"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// a single connection keeps the private in-memory database alive
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(
		&model.User{},
		&model.Listing{},
		&model.CartItem{},
		&model.Order{},
		&model.OrderItem{},
		&model.LocalPaymentMethod{},
		&model.RegionLookup{},
	))

	return db
}

// fakeGateway implements gateway.Gateway with canned behavior
type fakeGateway struct {
	name            string
	session         *gateway.Session
	sessionErr      error
	finalizeOrderID string
	finalizeErr     error
}

func (f *fakeGateway) Name() string { return f.name }

func (f *fakeGateway) CreateSession(ctx context.Context, req *gateway.SessionRequest) (*gateway.Session, error) {
	if f.sessionErr != nil {
		return nil, f.sessionErr
	}
	return f.session, nil
}

func (f *fakeGateway) Finalize(ctx context.Context, sessionID string) (string, error) {
	return f.finalizeOrderID, f.finalizeErr
}

func (f *fakeGateway) ListStoredMethods(ctx context.Context, userID string) ([]*gateway.StoredMethod, error) {
	return nil, nil
}

func (f *fakeGateway) SetDefault(ctx context.Context, userID, methodID string) error { return nil }
func (f *fakeGateway) Remove(ctx context.Context, userID, methodID string) error     { return nil }

type checkoutFixture struct {
	db      *gorm.DB
	service CheckoutService
	cart    repository.CartRepository
	orders  repository.OrderRepository
}

func newCheckoutFixture(t *testing.T, card, token gateway.Gateway, telr client.TelrClient) *checkoutFixture {
	t.Helper()

	db := newTestDB(t)
	cartRepo := repository.NewCartRepository(db)
	listingRepo := repository.NewListingRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	methodRepo := repository.NewPaymentMethodRepository(db)

	wallet := gateway.NewWalletGateway(db, methodRepo)
	selector := gateway.NewSelector(card, token, wallet)

	return &checkoutFixture{
		db:      db,
		service: NewCheckoutService(db, cartRepo, listingRepo, orderRepo, selector, telr),
		cart:    cartRepo,
		orders:  orderRepo,
	}
}

func seedListing(t *testing.T, db *gorm.DB, id, price string) {
	t.Helper()
	p, err := decimal.NewFromString(price)
	require.NoError(t, err)
	require.NoError(t, db.Create(&model.Listing{
		ID:       id,
		SellerID: "seller-1",
		Title:    "Listing " + id,
		Price:    p,
		Currency: "USD",
		Active:   true,
	}).Error)
}

func seedCartItem(t *testing.T, db *gorm.DB, userID, listingID string) {
	t.Helper()
	require.NoError(t, db.Create(&model.CartItem{UserID: userID, ListingID: listingID}).Error)
}

func TestCheckout_EmptyCart(t *testing.T) {
	f := newCheckoutFixture(t, nil, nil, nil)

	resp, err := f.service.Checkout(context.Background(), "user-1", model.RegionGlobal)

	require.ErrorIs(t, err, ErrEmptyCart)
	assert.Nil(t, resp)

	var count int64
	require.NoError(t, f.db.Model(&model.Order{}).Count(&count).Error)
	assert.Zero(t, count, "empty cart must leave no order row")
}

func TestCheckout_OfflineFallback(t *testing.T) {
	f := newCheckoutFixture(t, nil, nil, nil)
	seedListing(t, f.db, "listing-1", "99.99")
	seedCartItem(t, f.db, "user-1", "listing-1")

	resp, err := f.service.Checkout(context.Background(), "user-1", model.RegionGlobal)

	require.NoError(t, err)
	assert.Equal(t, string(model.OrderStatusCompleted), resp.Status)
	assert.Equal(t, "/orders", resp.RedirectURL)

	order, err := f.orders.FindByID(context.Background(), resp.OrderID)
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusCompleted, order.Status)
	assert.Equal(t, "99.99", order.Total.StringFixed(2))

	items, err := f.orders.GetOrderItems(context.Background(), resp.OrderID)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "99.99", items[0].UnitPrice.StringFixed(2))
	assert.Equal(t, int32(1), items[0].Quantity)

	count, err := f.cart.CountByUser(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Zero(t, count, "cart must be empty after checkout")
}

func TestCheckout_TotalIsSnapshot(t *testing.T) {
	f := newCheckoutFixture(t, nil, nil, nil)
	seedListing(t, f.db, "listing-1", "10.00")
	seedListing(t, f.db, "listing-2", "25.50")
	seedCartItem(t, f.db, "user-1", "listing-1")
	seedCartItem(t, f.db, "user-1", "listing-2")

	resp, err := f.service.Checkout(context.Background(), "user-1", model.RegionGlobal)
	require.NoError(t, err)

	// a later price edit must not touch the order
	require.NoError(t, f.db.Model(&model.Listing{}).
		Where("id = ?", "listing-1").
		Update("price", decimal.RequireFromString("999.00")).Error)

	order, err := f.orders.FindByID(context.Background(), resp.OrderID)
	require.NoError(t, err)
	assert.Equal(t, "35.50", order.Total.StringFixed(2))

	items, err := f.orders.GetOrderItems(context.Background(), resp.OrderID)
	require.NoError(t, err)
	assert.Len(t, items, 2)
}

func TestCheckout_HostedSession(t *testing.T) {
	card := &fakeGateway{
		name: gateway.NameStripe,
		session: &gateway.Session{
			Gateway:     gateway.NameStripe,
			SessionID:   "cs_test_123",
			RedirectURL: "https://checkout.example.com/cs_test_123",
		},
	}
	f := newCheckoutFixture(t, card, nil, nil)
	seedListing(t, f.db, "listing-1", "42.00")
	seedCartItem(t, f.db, "user-1", "listing-1")

	resp, err := f.service.Checkout(context.Background(), "user-1", model.RegionGlobal)

	require.NoError(t, err)
	assert.Equal(t, string(model.OrderStatusPending), resp.Status)
	assert.Equal(t, "https://checkout.example.com/cs_test_123", resp.RedirectURL)

	order, err := f.orders.FindByID(context.Background(), resp.OrderID)
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusPending, order.Status)
	assert.Equal(t, gateway.NameStripe, order.Gateway)
	assert.Equal(t, "cs_test_123", order.GatewayRef)

	count, err := f.cart.CountByUser(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestCheckout_GatewayErrorKeepsCart(t *testing.T) {
	card := &fakeGateway{
		name:       gateway.NameStripe,
		sessionErr: errors.New("gateway down"),
	}
	f := newCheckoutFixture(t, card, nil, nil)
	seedListing(t, f.db, "listing-1", "42.00")
	seedCartItem(t, f.db, "user-1", "listing-1")

	resp, err := f.service.Checkout(context.Background(), "user-1", model.RegionGlobal)

	require.NoError(t, err, "a gateway failure is not an error page")
	assert.Equal(t, string(model.OrderStatusFailed), resp.Status)
	assert.Equal(t, "/cart", resp.RedirectURL)

	order, err := f.orders.FindByID(context.Background(), resp.OrderID)
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusFailed, order.Status, "failed attempt must not look settled")

	count, err := f.cart.CountByUser(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), count, "cart stays intact for retry")
}

func TestCompleteCardCheckout(t *testing.T) {
	card := &fakeGateway{
		name: gateway.NameStripe,
		session: &gateway.Session{
			Gateway:     gateway.NameStripe,
			SessionID:   "cs_test_123",
			RedirectURL: "https://checkout.example.com/cs_test_123",
		},
	}
	f := newCheckoutFixture(t, card, nil, nil)
	seedListing(t, f.db, "listing-1", "42.00")
	seedCartItem(t, f.db, "user-1", "listing-1")

	created, err := f.service.Checkout(context.Background(), "user-1", model.RegionGlobal)
	require.NoError(t, err)
	card.finalizeOrderID = created.OrderID

	// another user cannot finalize this order
	_, err = f.service.CompleteCardCheckout(context.Background(), "user-2", "cs_test_123")
	require.ErrorIs(t, err, ErrInvalidSession)

	order, err := f.orders.FindByID(context.Background(), created.OrderID)
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusPending, order.Status)

	resp, err := f.service.CompleteCardCheckout(context.Background(), "user-1", "cs_test_123")
	require.NoError(t, err)
	assert.Equal(t, string(model.OrderStatusPaid), resp.Status)

	// blind overwrite: calling again changes nothing further
	_, err = f.service.CompleteCardCheckout(context.Background(), "user-1", "cs_test_123")
	require.NoError(t, err)

	order, err = f.orders.FindByID(context.Background(), created.OrderID)
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusPaid, order.Status)
}

func TestCompleteCardCheckout_NoGateway(t *testing.T) {
	f := newCheckoutFixture(t, nil, nil, nil)

	_, err := f.service.CompleteCardCheckout(context.Background(), "user-1", "cs_test_123")

	require.ErrorIs(t, err, ErrInvalidSession)
}

// fakeTelrClient decodes callbacks without real signature plumbing
type fakeTelrClient struct {
	result *client.CallbackResult
	err    error
}

func (f *fakeTelrClient) CreatePaymentToken(ctx context.Context, req *client.TokenRequest) (*client.TokenResponse, error) {
	return nil, errors.New("not used")
}

func (f *fakeTelrClient) DecodeCallback(values url.Values) (*client.CallbackResult, error) {
	return f.result, f.err
}

func TestHandleTokenCallback(t *testing.T) {
	token := &fakeGateway{
		name: gateway.NameTelr,
		session: &gateway.Session{
			Gateway:     gateway.NameTelr,
			SessionID:   "telr-ref-1",
			RedirectURL: "https://pay.example.com/telr-ref-1",
		},
	}
	telr := &fakeTelrClient{}
	f := newCheckoutFixture(t, nil, token, telr)
	seedListing(t, f.db, "listing-1", "150.00")
	seedCartItem(t, f.db, "user-1", "listing-1")

	created, err := f.service.Checkout(context.Background(), "user-1", model.RegionAE)
	require.NoError(t, err)

	// declined transaction is acknowledged without mutation
	telr.result = &client.CallbackResult{OrderRef: created.OrderID, Approved: false}
	require.NoError(t, f.service.HandleTokenCallback(context.Background(), url.Values{}))

	order, err := f.orders.FindByID(context.Background(), created.OrderID)
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusPending, order.Status)

	telr.result = &client.CallbackResult{OrderRef: created.OrderID, Approved: true}
	require.NoError(t, f.service.HandleTokenCallback(context.Background(), url.Values{}))

	order, err = f.orders.FindByID(context.Background(), created.OrderID)
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusPaid, order.Status)
}

func TestHandleTokenCallback_BadSignature(t *testing.T) {
	telr := &fakeTelrClient{err: errors.New("signature mismatch")}
	f := newCheckoutFixture(t, nil, nil, telr)

	err := f.service.HandleTokenCallback(context.Background(), url.Values{})

	require.ErrorIs(t, err, ErrInvalidSession)
}

func TestHandleTokenCallback_UnknownOrder(t *testing.T) {
	telr := &fakeTelrClient{
		result: &client.CallbackResult{OrderRef: "no-such-order", Approved: true},
	}
	f := newCheckoutFixture(t, nil, nil, telr)

	err := f.service.HandleTokenCallback(context.Background(), url.Values{})

	require.ErrorIs(t, err, ErrInvalidSession)
}
