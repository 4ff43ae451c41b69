package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mickey4653/restful-payment-gateway-api/middleware"
	"github.com/mickey4653/restful-payment-gateway-api/services"
)

// PaymentController translates HTTP requests into lifecycle operations and
// payment records into the public response envelope.
type PaymentController struct {
	Service     services.PaymentManager
	Logger      *zap.Logger
	Development bool
}

func NewPaymentController(service services.PaymentManager, logger *zap.Logger, development bool) *PaymentController {
	return &PaymentController{Service: service, Logger: logger, Development: development}
}

// InitiatePayment handles POST /api/v1/payments. The validation middleware
// has already checked fields and coerced the amount.
func (pc *PaymentController) InitiatePayment(c *gin.Context) {
	name := c.GetString(middleware.CustomerNameKey)
	email := c.GetString(middleware.CustomerEmailKey)
	amount := c.GetFloat64(middleware.AmountKey)

	payment, err := pc.Service.Initiate(c.Request.Context(), name, email, amount)
	if err != nil {
		pc.respondError(c, "initiate", "Failed to initiate payment", err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"status":  "success",
		"message": "Payment initiated successfully",
		"payment": payment,
	})
}

// GetPaymentStatus handles GET /api/v1/payments/:id.
func (pc *PaymentController) GetPaymentStatus(c *gin.Context) {
	id := c.Param("id")

	payment, err := pc.Service.GetByID(c.Request.Context(), id)
	if err != nil {
		pc.respondError(c, "lookup", "Failed to retrieve payment status", err)
		return
	}
	if payment == nil {
		c.JSON(http.StatusNotFound, gin.H{
			"status":  "error",
			"message": "Payment not found",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "success",
		"message": "Payment details retrieved successfully",
		"payment": payment,
	})
}

// HandleCallback handles GET /api/v1/payments/callback. PayPal redirects
// the payer here after approval, with the order id in the token parameter.
func (pc *PaymentController) HandleCallback(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"status":  "error",
			"message": "Missing required parameters",
		})
		return
	}

	payment, err := pc.Service.Capture(c.Request.Context(), token)
	if err != nil {
		pc.respondError(c, "capture", "Failed to process payment callback", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "success",
		"message": "Payment completed successfully",
		"payment": payment,
	})
}

// HandleCancelCallback handles GET /api/v1/payments/callback/cancel, hit
// when the payer abandons checkout.
func (pc *PaymentController) HandleCancelCallback(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"status":  "error",
			"message": "Missing required parameters",
		})
		return
	}

	payment, err := pc.Service.Cancel(c.Request.Context(), token)
	if err != nil {
		pc.respondError(c, "cancel", "Failed to cancel payment", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "success",
		"message": "Payment cancelled",
		"payment": payment,
	})
}

// respondError maps a typed service error onto an HTTP response. Upstream
// diagnostic detail is only included in development mode; it is always
// logged.
func (pc *PaymentController) respondError(c *gin.Context, operation, message string, err error) {
	status := http.StatusInternalServerError
	detail := ""

	if appErr, ok := services.AsError(err); ok {
		status = statusForKind(appErr)
		detail = appErr.Detail
	}

	pc.Logger.Error(message,
		zap.String("operation", operation),
		zap.String("path", c.Request.URL.Path),
		zap.Error(err),
	)

	body := gin.H{
		"status":  "error",
		"message": message,
	}
	if pc.Development {
		body["error"] = err.Error()
		if detail != "" {
			body["detail"] = detail
		}
	}
	c.JSON(status, body)
}

func statusForKind(e *services.Error) int {
	// The wrapped chain may carry a more specific kind than the outer
	// operation-level one.
	switch {
	case services.IsKind(e, services.KindUnknownPayment),
		services.IsKind(e, services.KindOrderNotFound):
		return http.StatusNotFound
	case services.IsKind(e, services.KindCredentialsMissing),
		services.IsKind(e, services.KindInvalidCredentials),
		services.IsKind(e, services.KindAccessForbidden):
		return http.StatusBadGateway
	case services.IsKind(e, services.KindProcessorUnreachable),
		services.IsKind(e, services.KindPaymentStatusUnavailable):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
