package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/mickey4653/restful-payment-gateway-api/models"
)

const (
	sandboxBaseURL    = "https://api.sandbox.paypal.com"
	productionBaseURL = "https://api.paypal.com"

	defaultCurrency = "USD"

	// Refresh the cached token slightly before PayPal's declared expiry.
	tokenExpiryMargin = 60 * time.Second
)

// PayPalConfig is everything the client needs, resolved once at startup.
type PayPalConfig struct {
	Mode         string // "sandbox" or "production"
	ClientID     string
	ClientSecret string
	ReturnURL    string
	CancelURL    string
	BrandName    string
	// BaseURL overrides the mode-derived endpoint. Used by tests.
	BaseURL string
}

// OrderCreated is the result of a successful order creation.
type OrderCreated struct {
	ID         string
	ApproveURL string
	Raw        json.RawMessage
}

// OrderDetails is the processor-reported state of an order, mapped to the
// gateway's status vocabulary.
type OrderDetails struct {
	ID         string
	Status     string
	Amount     float64
	Currency   string
	PayerName  string
	PayerEmail string
	ApproveURL string
	Raw        json.RawMessage
}

// CaptureResult is the outcome of capturing an approved order.
type CaptureResult struct {
	ID       string
	Amount   float64
	Currency string
	Raw      json.RawMessage
}

// PayPalClient is the stateless request/response mapping to PayPal's
// checkout order API. Implementations must not hold per-order state.
type PayPalClient interface {
	CreateOrder(ctx context.Context, amount float64, currency, description, customID string) (*OrderCreated, error)
	GetOrder(ctx context.Context, id string) (*OrderDetails, error)
	CaptureOrder(ctx context.Context, id string) (*CaptureResult, error)
}

type paypalClient struct {
	cfg        PayPalConfig
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger

	mu          sync.Mutex
	token       string
	tokenExpiry time.Time
	tokenGroup  singleflight.Group
}

// NewPayPalClient builds a PayPal client with a bounded-timeout HTTP client
// and an access-token cache shared across concurrent operations.
func NewPayPalClient(cfg PayPalConfig, logger *zap.Logger) PayPalClient {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		if cfg.Mode == "production" {
			baseURL = productionBaseURL
		} else {
			baseURL = sandboxBaseURL
		}
	}
	return &paypalClient{
		cfg:        cfg,
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		logger:     logger,
	}
}

// --- token acquisition ---

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
}

func (c *paypalClient) getAccessToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	if c.token != "" && time.Now().Before(c.tokenExpiry) {
		token := c.token
		c.mu.Unlock()
		return token, nil
	}
	c.mu.Unlock()

	// Concurrent refreshes collapse into one upstream request.
	v, err, _ := c.tokenGroup.Do("token", func() (interface{}, error) {
		return c.requestToken(ctx)
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

func (c *paypalClient) requestToken(ctx context.Context) (string, error) {
	if c.cfg.ClientID == "" || c.cfg.ClientSecret == "" {
		return "", newError(KindCredentialsMissing, "PayPal client credentials are not configured", nil)
	}

	body := strings.NewReader("grant_type=client_credentials")
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/oauth2/token", body)
	if err != nil {
		return "", newError(KindTokenAcquisitionFailed, "failed to build token request", err)
	}
	req.SetBasicAuth(c.cfg.ClientID, c.cfg.ClientSecret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", newError(KindProcessorUnreachable, "failed to reach PayPal token endpoint", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return "", newErrorDetail(KindInvalidCredentials, "PayPal rejected the client credentials", string(respBody))
	case resp.StatusCode == http.StatusForbidden:
		return "", newErrorDetail(KindAccessForbidden, "PayPal denied access for these credentials", string(respBody))
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		c.logger.Error("token request failed",
			zap.Int("upstream_status", resp.StatusCode))
		return "", newErrorDetail(KindTokenAcquisitionFailed,
			fmt.Sprintf("PayPal token request failed with status %d", resp.StatusCode), string(respBody))
	}

	var tr tokenResponse
	if err := json.Unmarshal(respBody, &tr); err != nil {
		return "", newError(KindTokenAcquisitionFailed, "failed to decode token response", err)
	}
	if tr.AccessToken == "" {
		return "", newError(KindTokenAcquisitionFailed, "PayPal returned an empty access token", nil)
	}

	expiry := time.Now().Add(time.Duration(tr.ExpiresIn)*time.Second - tokenExpiryMargin)
	c.mu.Lock()
	c.token = tr.AccessToken
	c.tokenExpiry = expiry
	c.mu.Unlock()

	return tr.AccessToken, nil
}

// invalidateToken drops the cached token so the next call re-authenticates.
func (c *paypalClient) invalidateToken() {
	c.mu.Lock()
	c.token = ""
	c.tokenExpiry = time.Time{}
	c.mu.Unlock()
}

// --- wire types ---

type orderAmount struct {
	CurrencyCode string `json:"currency_code"`
	Value        string `json:"value"`
}

type orderLink struct {
	Href string `json:"href"`
	Rel  string `json:"rel"`
}

type createOrderRequest struct {
	Intent             string             `json:"intent"`
	PurchaseUnits      []purchaseUnit     `json:"purchase_units"`
	ApplicationContext applicationContext `json:"application_context"`
}

type purchaseUnit struct {
	Amount      orderAmount `json:"amount"`
	Description string      `json:"description,omitempty"`
	CustomID    string      `json:"custom_id,omitempty"`
}

type applicationContext struct {
	ReturnURL          string `json:"return_url"`
	CancelURL          string `json:"cancel_url"`
	BrandName          string `json:"brand_name"`
	LandingPage        string `json:"landing_page"`
	UserAction         string `json:"user_action"`
	ShippingPreference string `json:"shipping_preference"`
}

type orderResponse struct {
	ID            string      `json:"id"`
	Status        string      `json:"status"`
	Links         []orderLink `json:"links"`
	PurchaseUnits []struct {
		Amount   orderAmount `json:"amount"`
		Payments *struct {
			Captures []struct {
				ID     string      `json:"id"`
				Amount orderAmount `json:"amount"`
			} `json:"captures"`
		} `json:"payments"`
	} `json:"purchase_units"`
	Payer *struct {
		Name *struct {
			GivenName string `json:"given_name"`
			Surname   string `json:"surname"`
		} `json:"name"`
		EmailAddress string `json:"email_address"`
	} `json:"payer"`
}

// --- operations ---

func (c *paypalClient) CreateOrder(ctx context.Context, amount float64, currency, description, customID string) (*OrderCreated, error) {
	if currency == "" {
		currency = defaultCurrency
	}
	reqBody := createOrderRequest{
		Intent: "CAPTURE",
		PurchaseUnits: []purchaseUnit{{
			Amount: orderAmount{
				CurrencyCode: currency,
				Value:        strconv.FormatFloat(amount, 'f', 2, 64),
			},
			Description: description,
			CustomID:    customID,
		}},
		ApplicationContext: applicationContext{
			ReturnURL:          c.cfg.ReturnURL,
			CancelURL:          c.cfg.CancelURL,
			BrandName:          c.cfg.BrandName,
			LandingPage:        "LOGIN",
			UserAction:         "PAY_NOW",
			ShippingPreference: "NO_SHIPPING",
		},
	}

	raw, err := c.doJSON(ctx, http.MethodPost, "/v2/checkout/orders", reqBody)
	if err != nil {
		return nil, err
	}

	var order orderResponse
	if err := json.Unmarshal(raw, &order); err != nil {
		return nil, newError(KindProcessorRequestFailed, "failed to decode order creation response", err)
	}

	approveURL := findLink(order.Links, "approve")
	if approveURL == "" {
		return nil, newError(KindApprovalLinkMissing, "PayPal response has no approve link", nil)
	}

	return &OrderCreated{ID: order.ID, ApproveURL: approveURL, Raw: raw}, nil
}

func (c *paypalClient) GetOrder(ctx context.Context, id string) (*OrderDetails, error) {
	raw, err := c.doJSON(ctx, http.MethodGet, "/v2/checkout/orders/"+id, nil)
	if err != nil {
		return nil, err
	}

	var order orderResponse
	if err := json.Unmarshal(raw, &order); err != nil {
		return nil, newError(KindProcessorRequestFailed, "failed to decode order response", err)
	}

	details := &OrderDetails{
		ID:         order.ID,
		Status:     mapOrderStatus(order.Status),
		Currency:   defaultCurrency,
		PayerName:  "Unknown",
		PayerEmail: "Unknown",
		ApproveURL: findLink(order.Links, "approve"),
		Raw:        raw,
	}

	if len(order.PurchaseUnits) > 0 {
		unit := order.PurchaseUnits[0]
		if v, err := strconv.ParseFloat(unit.Amount.Value, 64); err == nil {
			details.Amount = v
		}
		if unit.Amount.CurrencyCode != "" {
			details.Currency = unit.Amount.CurrencyCode
		}
	}

	if payer := order.Payer; payer != nil {
		if payer.Name != nil {
			details.PayerName = strings.TrimSpace(payer.Name.GivenName + " " + payer.Name.Surname)
		}
		if payer.EmailAddress != "" {
			details.PayerEmail = payer.EmailAddress
		}
	}

	return details, nil
}

func (c *paypalClient) CaptureOrder(ctx context.Context, id string) (*CaptureResult, error) {
	raw, err := c.doJSON(ctx, http.MethodPost, "/v2/checkout/orders/"+id+"/capture", struct{}{})
	if err != nil {
		return nil, err
	}

	var order orderResponse
	if err := json.Unmarshal(raw, &order); err != nil {
		return nil, newError(KindProcessorRequestFailed, "failed to decode capture response", err)
	}

	if len(order.PurchaseUnits) == 0 ||
		order.PurchaseUnits[0].Payments == nil ||
		len(order.PurchaseUnits[0].Payments.Captures) == 0 {
		return nil, newError(KindCaptureDataMissing, "capture response has no capture data", nil)
	}

	capture := order.PurchaseUnits[0].Payments.Captures[0]
	amount, err := strconv.ParseFloat(capture.Amount.Value, 64)
	if err != nil {
		return nil, newError(KindCaptureDataMissing, "capture response has an unreadable amount", err)
	}

	currency := capture.Amount.CurrencyCode
	if currency == "" {
		currency = defaultCurrency
	}

	return &CaptureResult{ID: order.ID, Amount: amount, Currency: currency, Raw: raw}, nil
}

// doJSON performs an authenticated request against the PayPal API and
// classifies non-2xx responses. The bearer token never appears in logs.
func (c *paypalClient) doJSON(ctx context.Context, method, path string, payload interface{}) (json.RawMessage, error) {
	token, err := c.getAccessToken(ctx)
	if err != nil {
		return nil, err
	}

	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, newError(KindProcessorRequestFailed, "failed to encode request body", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, newError(KindProcessorRequestFailed, "failed to build PayPal request", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, newError(KindProcessorUnreachable, "failed to reach PayPal", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return respBody, nil
	}

	c.logger.Warn("PayPal request failed",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("upstream_status", resp.StatusCode),
	)

	switch resp.StatusCode {
	case http.StatusNotFound:
		return nil, newErrorDetail(KindOrderNotFound, "order not found", string(respBody))
	case http.StatusUnauthorized:
		c.invalidateToken()
		return nil, newErrorDetail(KindInvalidCredentials, "PayPal rejected the access token", string(respBody))
	case http.StatusForbidden:
		return nil, newErrorDetail(KindAccessForbidden, "PayPal denied access", string(respBody))
	default:
		return nil, newErrorDetail(KindProcessorRequestFailed,
			fmt.Sprintf("PayPal request failed with status %d", resp.StatusCode), string(respBody))
	}
}

func findLink(links []orderLink, rel string) string {
	for _, l := range links {
		if l.Rel == rel {
			return l.Href
		}
	}
	return ""
}

// mapOrderStatus folds PayPal's order status vocabulary into the gateway's.
// CANCELLED and VOIDED both mean the payer abandoned or the processor voided
// the order, so both map to cancelled.
func mapOrderStatus(status string) string {
	switch status {
	case "COMPLETED":
		return models.StatusCompleted
	case "CANCELLED", "VOIDED":
		return models.StatusCancelled
	default:
		return models.StatusPending
	}
}
