package gateway

import (
	"context"
	"errors"
	"testing"

	"marketplace-checkout/internal/client"
	"marketplace-checkout/internal/config"
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
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(&model.User{}, &model.LocalPaymentMethod{}))
	return db
}

// fakeStripeClient records calls and serves canned data
type fakeStripeClient struct {
	customers      int
	cards          []*client.CardMethod
	defaultID      string
	owners         map[string]string // payment method id -> customer id
	session        *client.CheckoutSession
	sessionErr     error
	lastSessionReq *client.CheckoutSessionRequest
	detached       []string
}

func (f *fakeStripeClient) CreateCustomer(ctx context.Context, email, name string) (string, error) {
	f.customers++
	return "cus_test_1", nil
}

func (f *fakeStripeClient) CreateCheckoutSession(ctx context.Context, req *client.CheckoutSessionRequest) (*client.CheckoutSession, error) {
	f.lastSessionReq = req
	if f.sessionErr != nil {
		return nil, f.sessionErr
	}
	return f.session, nil
}

func (f *fakeStripeClient) GetCheckoutSession(ctx context.Context, sessionID string) (*client.CheckoutSession, error) {
	if f.session == nil || f.session.SessionID != sessionID {
		return nil, errors.New("no such session")
	}
	return f.session, nil
}

func (f *fakeStripeClient) CreateSetupIntent(ctx context.Context, customerID string) (string, error) {
	return "seti_secret_123", nil
}

func (f *fakeStripeClient) ListPaymentMethods(ctx context.Context, customerID string) ([]*client.CardMethod, error) {
	return f.cards, nil
}

func (f *fakeStripeClient) GetDefaultPaymentMethod(ctx context.Context, customerID string) (string, error) {
	return f.defaultID, nil
}

func (f *fakeStripeClient) SetDefaultPaymentMethod(ctx context.Context, customerID, paymentMethodID string) error {
	f.defaultID = paymentMethodID
	return nil
}

func (f *fakeStripeClient) GetPaymentMethodOwner(ctx context.Context, paymentMethodID string) (string, error) {
	owner, ok := f.owners[paymentMethodID]
	if !ok {
		return "", errors.New("no such payment method")
	}
	return owner, nil
}

func (f *fakeStripeClient) DetachPaymentMethod(ctx context.Context, paymentMethodID string) error {
	f.detached = append(f.detached, paymentMethodID)
	return nil
}

func newStripeFixture(t *testing.T, sc *fakeStripeClient) (Gateway, repository.UserRepository) {
	t.Helper()
	users := repository.NewUserRepository(newTestDB(t))
	return NewStripeGateway(sc, users, "https://shop.example.com"), users
}

func TestStripeGateway_CustomerProvisionedOnce(t *testing.T) {
	sc := &fakeStripeClient{}
	gw, users := newStripeFixture(t, sc)

	_, err := gw.ListStoredMethods(context.Background(), "user-1")
	require.NoError(t, err)
	_, err = gw.ListStoredMethods(context.Background(), "user-1")
	require.NoError(t, err)

	assert.Equal(t, 1, sc.customers, "customer id must be cached on the user row")

	user, err := users.FindOrCreate(context.Background(), "user-1", "")
	require.NoError(t, err)
	assert.Equal(t, "cus_test_1", user.StripeCustomerID)
}

func TestStripeGateway_PromotesFirstCardToDefault(t *testing.T) {
	sc := &fakeStripeClient{
		cards: []*client.CardMethod{
			{ID: "pm_1", Brand: "visa", Last4: "4242"},
			{ID: "pm_2", Brand: "mastercard", Last4: "4444"},
		},
	}
	gw, _ := newStripeFixture(t, sc)

	methods, err := gw.ListStoredMethods(context.Background(), "user-1")

	require.NoError(t, err)
	require.Len(t, methods, 2)
	assert.True(t, methods[0].Default)
	assert.False(t, methods[1].Default)
	assert.Equal(t, "pm_1", sc.defaultID, "promotion is written back to the gateway")
	assert.Equal(t, "visa ending 4242", methods[0].Label)
}

func TestStripeGateway_CreateSessionCarriesOrderMetadata(t *testing.T) {
	sc := &fakeStripeClient{
		session: &client.CheckoutSession{SessionID: "cs_1", URL: "https://checkout.example.com/cs_1"},
	}
	gw, _ := newStripeFixture(t, sc)

	order := &model.Order{ID: "order-1", UserID: "user-1", Currency: "USD", Total: decimal.RequireFromString("42.00")}
	items := []*model.OrderItem{
		{OrderID: "order-1", ListingID: "listing-1", Title: "Listing 1", Quantity: 1, UnitPrice: decimal.RequireFromString("42.00"), Currency: "USD"},
	}

	session, err := gw.CreateSession(context.Background(), &SessionRequest{Order: order, Items: items})

	require.NoError(t, err)
	assert.Equal(t, NameStripe, session.Gateway)
	assert.Equal(t, "cs_1", session.SessionID)

	req := sc.lastSessionReq
	require.NotNil(t, req)
	assert.Equal(t, "order-1", req.OrderID)
	require.Len(t, req.LineItems, 1)
	assert.Equal(t, int64(4200), req.LineItems[0].AmountCent)
	assert.Contains(t, req.SuccessURL, "session_id={CHECKOUT_SESSION_ID}")
}

func TestStripeGateway_RemoveGuardsOwnership(t *testing.T) {
	sc := &fakeStripeClient{
		owners: map[string]string{
			"pm_mine":   "cus_test_1",
			"pm_theirs": "cus_other",
		},
	}
	gw, _ := newStripeFixture(t, sc)

	err := gw.Remove(context.Background(), "user-1", "pm_theirs")
	require.ErrorIs(t, err, ErrMethodNotFound)
	assert.Empty(t, sc.detached)

	err = gw.Remove(context.Background(), "user-1", "pm_mine")
	require.NoError(t, err)
	assert.Equal(t, []string{"pm_mine"}, sc.detached)
}

func TestSelector(t *testing.T) {
	db := newTestDB(t)
	wallet := NewWalletGateway(db, repository.NewPaymentMethodRepository(db))
	card := NewStripeGateway(&fakeStripeClient{}, repository.NewUserRepository(db), "https://shop.example.com")

	token := NewTelrGateway(client.NewTelrClient(&config.Telr{
		StoreID:       "12345",
		AuthKey:       "auth-key",
		SigningSecret: "secret",
	}), "https://shop.example.com")

	s := NewSelector(card, token, wallet)
	assert.Equal(t, NameTelr, s.ForRegion(model.RegionAE).Name())
	assert.Equal(t, NameTelr, s.ForRegion(model.RegionSA).Name())
	assert.Equal(t, NameStripe, s.ForRegion(model.RegionGlobal).Name())

	// token gateway absent: gulf regions fall through to the card gateway
	s = NewSelector(card, nil, wallet)
	assert.Equal(t, NameStripe, s.ForRegion(model.RegionAE).Name())
	assert.Equal(t, NameStripe, s.ForRegion(model.RegionGlobal).Name())

	// nothing configured: everything settles through the wallet variant
	s = NewSelector(nil, nil, wallet)
	assert.Equal(t, NameWallet, s.ForRegion(model.RegionAE).Name())
	assert.Equal(t, NameWallet, s.ForRegion(model.RegionGlobal).Name())
	assert.Nil(t, s.Card())
}
