package client

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"marketplace-checkout/internal/config"
)

// TelrClient talks to the hosted-token gateway: a signed token request is
// exchanged for a hosted redirect URL, and the gateway calls back with a
// signed form payload once the shopper finishes.
type TelrClient interface {
	CreatePaymentToken(ctx context.Context, req *TokenRequest) (*TokenResponse, error)
	DecodeCallback(values url.Values) (*CallbackResult, error)
}

type TokenRequest struct {
	OrderRef    string // our order id, echoed back as cartid
	Amount      string
	Currency    string
	Description string
	ReturnOK    string
	ReturnFail  string
	ReturnAbort string
}

type TokenResponse struct {
	GatewayRef  string
	RedirectURL string
}

type CallbackResult struct {
	OrderRef string
	Amount   string
	Currency string
	Approved bool
}

type telrTokenResult struct {
	Order struct {
		Ref string `json:"ref"`
		URL string `json:"url"`
	} `json:"order"`
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

type telrClientImpl struct {
	httpClient    *http.Client
	apiURL        string
	storeID       string
	authKey       string
	signingSecret string
	testMode      bool
}

func NewTelrClient(cfg *config.Telr) TelrClient {
	return &telrClientImpl{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		apiURL:        cfg.APIURL,
		storeID:       cfg.StoreID,
		authKey:       cfg.AuthKey,
		signingSecret: cfg.SigningSecret,
		testMode:      cfg.TestMode,
	}
}

func (c *telrClientImpl) CreatePaymentToken(ctx context.Context, tokenReq *TokenRequest) (*TokenResponse, error) {
	testFlag := 0
	if c.testMode {
		testFlag = 1
	}

	payload := map[string]interface{}{
		"method":  "create",
		"store":   c.storeID,
		"authkey": c.authKey,
		"order": map[string]interface{}{
			"cartid":      tokenReq.OrderRef,
			"test":        testFlag,
			"amount":      tokenReq.Amount,
			"currency":    tokenReq.Currency,
			"description": tokenReq.Description,
		},
		"return": map[string]string{
			"authorised": tokenReq.ReturnOK,
			"declined":   tokenReq.ReturnFail,
			"cancelled":  tokenReq.ReturnAbort,
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal token request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, bytes.NewBuffer(body))
	if err != nil {
		return nil, fmt.Errorf("http new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Telr-Signature", c.sign(string(body)))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("telr token request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("telr error %d: %s", resp.StatusCode, string(respBody))
	}

	var result telrTokenResult
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, fmt.Errorf("decode telr response: %w", err)
	}

	if result.Error != nil {
		return nil, fmt.Errorf("telr error: %s", result.Error.Message)
	}
	if result.Order.URL == "" {
		return nil, fmt.Errorf("telr returned empty payment URL")
	}

	return &TokenResponse{
		GatewayRef:  result.Order.Ref,
		RedirectURL: result.Order.URL,
	}, nil
}

// DecodeCallback verifies the signed form payload the gateway posts after
// the hosted page completes. tran_status "A" means authorised.
func (c *telrClientImpl) DecodeCallback(values url.Values) (*CallbackResult, error) {
	orderRef := values.Get("tran_cartid")
	status := values.Get("tran_status")
	amount := values.Get("tran_amount")
	currency := values.Get("tran_currency")
	signature := values.Get("tran_sig")

	if orderRef == "" || signature == "" {
		return nil, fmt.Errorf("callback payload missing cartid or signature")
	}

	expected := c.sign(callbackSigningString(orderRef, status, amount, currency))
	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return nil, fmt.Errorf("callback signature mismatch")
	}

	return &CallbackResult{
		OrderRef: orderRef,
		Amount:   amount,
		Currency: currency,
		Approved: status == "A",
	}, nil
}

func (c *telrClientImpl) sign(payload string) string {
	mac := hmac.New(sha256.New, []byte(c.signingSecret))
	mac.Write([]byte(payload))
	return hex.EncodeToString(mac.Sum(nil))
}

func callbackSigningString(parts ...string) string {
	return strings.Join(parts, ":")
}

// SignCallback builds the signature a gateway would attach; the sandbox
// simulator and tests use it to produce valid callbacks.
func SignCallback(secret, orderRef, status, amount, currency string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(callbackSigningString(orderRef, status, amount, currency)))
	return hex.EncodeToString(mac.Sum(nil))
}
