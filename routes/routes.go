package routes

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mickey4653/restful-payment-gateway-api/controllers"
	"github.com/mickey4653/restful-payment-gateway-api/middleware"
)

// RegisterRoutes wires the public API surface. The callback routes are
// registered before the :id route so gin matches them as static segments.
func RegisterRoutes(r *gin.Engine, pc *controllers.PaymentController, env string) {
	r.GET("/api/v1/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":      "success",
			"message":     "API is running",
			"environment": env,
			"timestamp":   time.Now().UTC().Format(time.RFC3339),
		})
	})

	payments := r.Group("/api/v1/payments")
	payments.POST("", middleware.ValidatePayment(), pc.InitiatePayment)
	payments.GET("/callback", pc.HandleCallback)
	payments.GET("/callback/cancel", pc.HandleCancelCallback)
	payments.GET("/:id", pc.GetPaymentStatus)

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{
			"status":  "error",
			"message": "Route not found",
			"path":    c.Request.URL.Path,
		})
	})
}
