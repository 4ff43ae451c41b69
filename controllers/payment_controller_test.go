package controllers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"

	"github.com/mickey4653/restful-payment-gateway-api/controllers"
	"github.com/mickey4653/restful-payment-gateway-api/models"
	"github.com/mickey4653/restful-payment-gateway-api/routes"
	"github.com/mickey4653/restful-payment-gateway-api/services"
)

// --- Mock payment manager ---

type MockPaymentManager struct{ mock.Mock }

func (m *MockPaymentManager) Initiate(ctx context.Context, name, email string, amount float64) (*models.Payment, error) {
	args := m.Called(ctx, name, email, amount)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Payment), args.Error(1)
}

func (m *MockPaymentManager) GetByID(ctx context.Context, id string) (*models.Payment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Payment), args.Error(1)
}

func (m *MockPaymentManager) Capture(ctx context.Context, id string) (*models.Payment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Payment), args.Error(1)
}

func (m *MockPaymentManager) Cancel(ctx context.Context, id string) (*models.Payment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Payment), args.Error(1)
}

func newTestRouter(svc services.PaymentManager) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	pc := controllers.NewPaymentController(svc, zap.NewNop(), false)
	routes.RegisterRoutes(r, pc, "test")
	return r
}

// --- Tests ---

func TestInitiatePaymentEndpoint(t *testing.T) {
	t.Run("201 with the pending payment", func(t *testing.T) {
		mockSvc := new(MockPaymentManager)
		mockSvc.On("Initiate", mock.Anything, "Jane Doe", "jane@x.com", 50.0).
			Return(&models.Payment{
				ID:            "ORDER-1",
				CustomerName:  "Jane Doe",
				CustomerEmail: "jane@x.com",
				Amount:        50,
				Currency:      "USD",
				Status:        models.StatusPending,
				PaymentURL:    "https://pay/ORDER-1",
			}, nil).Once()
		router := newTestRouter(mockSvc)

		body := `{"customer_name":"Jane Doe","customer_email":"jane@x.com","amount":50}`
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/v1/payments", bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusCreated, w.Code)

		var resp struct {
			Status  string         `json:"status"`
			Payment models.Payment `json:"payment"`
		}
		assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "success", resp.Status)
		assert.Equal(t, "ORDER-1", resp.Payment.ID)
		assert.Equal(t, models.StatusPending, resp.Payment.Status)
		assert.Equal(t, "https://pay/ORDER-1", resp.Payment.PaymentURL)
		assert.Equal(t, "Jane Doe", resp.Payment.CustomerName)
		mockSvc.AssertExpectations(t)
	})

	t.Run("400 from validation never reaches the service", func(t *testing.T) {
		mockSvc := new(MockPaymentManager)
		router := newTestRouter(mockSvc)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/v1/payments",
			bytes.NewBufferString(`{"customer_name":"Jane Doe","customer_email":"jane@x.com","amount":"abc"}`))
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		mockSvc.AssertNotCalled(t, "Initiate", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("500 when initiation fails upstream", func(t *testing.T) {
		mockSvc := new(MockPaymentManager)
		mockSvc.On("Initiate", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return(nil, &services.Error{Kind: services.KindPaymentInitiationFailed, Message: "failed to initiate payment"}).Once()
		router := newTestRouter(mockSvc)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/v1/payments",
			bytes.NewBufferString(`{"customer_name":"Jane Doe","customer_email":"jane@x.com","amount":50}`))
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Contains(t, w.Body.String(), "Failed to initiate payment")
	})
}

func TestGetPaymentStatusEndpoint(t *testing.T) {
	t.Run("200 with the record", func(t *testing.T) {
		mockSvc := new(MockPaymentManager)
		mockSvc.On("GetByID", mock.Anything, "ORDER-1").
			Return(&models.Payment{ID: "ORDER-1", Status: models.StatusCompleted}, nil).Once()
		router := newTestRouter(mockSvc)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/v1/payments/ORDER-1", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"completed"`)
	})

	t.Run("404 when unknown everywhere", func(t *testing.T) {
		mockSvc := new(MockPaymentManager)
		mockSvc.On("GetByID", mock.Anything, "GHOST").Return(nil, nil).Once()
		router := newTestRouter(mockSvc)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/v1/payments/GHOST", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Contains(t, w.Body.String(), "Payment not found")
	})

	t.Run("502 when the status is unavailable", func(t *testing.T) {
		mockSvc := new(MockPaymentManager)
		mockSvc.On("GetByID", mock.Anything, "ORDER-1").
			Return(nil, &services.Error{Kind: services.KindPaymentStatusUnavailable, Message: "failed to verify payment status"}).Once()
		router := newTestRouter(mockSvc)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/v1/payments/ORDER-1", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadGateway, w.Code)
	})
}

func TestCallbackEndpoints(t *testing.T) {
	t.Run("capture callback completes the payment", func(t *testing.T) {
		mockSvc := new(MockPaymentManager)
		mockSvc.On("Capture", mock.Anything, "ORDER-1").
			Return(&models.Payment{ID: "ORDER-1", Status: models.StatusCompleted, CustomerName: "Jane Doe"}, nil).Once()
		router := newTestRouter(mockSvc)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/v1/payments/callback?token=ORDER-1", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "Payment completed successfully")
	})

	t.Run("capture callback without a token is a 400", func(t *testing.T) {
		mockSvc := new(MockPaymentManager)
		router := newTestRouter(mockSvc)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/v1/payments/callback", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		mockSvc.AssertNotCalled(t, "Capture", mock.Anything, mock.Anything)
	})

	t.Run("capture of an unknown payment is a 404", func(t *testing.T) {
		mockSvc := new(MockPaymentManager)
		mockSvc.On("Capture", mock.Anything, "GHOST").
			Return(nil, &services.Error{Kind: services.KindUnknownPayment, Message: "payment not found"}).Once()
		router := newTestRouter(mockSvc)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/v1/payments/callback?token=GHOST", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("cancel callback cancels the payment", func(t *testing.T) {
		mockSvc := new(MockPaymentManager)
		mockSvc.On("Cancel", mock.Anything, "ORDER-1").
			Return(&models.Payment{ID: "ORDER-1", Status: models.StatusCancelled}, nil).Once()
		router := newTestRouter(mockSvc)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/v1/payments/callback/cancel?token=ORDER-1", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"cancelled"`)
	})
}

func TestHealthAndNotFound(t *testing.T) {
	router := newTestRouter(new(MockPaymentManager))

	t.Run("health endpoint responds", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "API is running")
	})

	t.Run("unknown routes return a JSON 404", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/nope", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Contains(t, w.Body.String(), "Route not found")
	})
}
