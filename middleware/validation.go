package middleware

import (
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"regexp"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

// Context keys set by ValidatePayment for the controller to consume.
const (
	CustomerNameKey  = "customer_name"
	CustomerEmailKey = "customer_email"
	AmountKey        = "amount"
)

var emailRegex = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

type initiateRequest struct {
	CustomerName  string      `json:"customer_name"`
	CustomerEmail string      `json:"customer_email"`
	Amount        interface{} `json:"amount"`
}

// ValidatePayment rejects malformed initiation requests before any
// processor call is made. Amounts arrive as JSON numbers or as display
// strings like "$1,200.50"; both are coerced to a positive float.
func ValidatePayment() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req initiateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			abortValidation(c, "Invalid request body")
			return
		}

		if req.CustomerName == "" || req.CustomerEmail == "" || req.Amount == nil {
			abortValidation(c, "Missing required fields")
			return
		}

		if !emailRegex.MatchString(req.CustomerEmail) {
			abortValidation(c, "Invalid email format")
			return
		}

		amount, err := ParseAmount(req.Amount)
		if err != nil {
			abortValidation(c, "Amount must be a positive number")
			return
		}

		c.Set(CustomerNameKey, req.CustomerName)
		c.Set(CustomerEmailKey, req.CustomerEmail)
		c.Set(AmountKey, amount)
		c.Next()
	}
}

// ParseAmount coerces a JSON amount value to a positive float. String
// amounts may carry currency symbols and thousands separators.
func ParseAmount(v interface{}) (float64, error) {
	var amount float64
	switch val := v.(type) {
	case float64:
		amount = val
	case json.Number:
		f, err := val.Float64()
		if err != nil {
			return 0, err
		}
		amount = f
	case string:
		cleaned := strings.NewReplacer("$", "", "€", "", "£", "", ",", "", " ", "").Replace(val)
		if cleaned == "" {
			return 0, fmt.Errorf("empty amount")
		}
		f, err := strconv.ParseFloat(cleaned, 64)
		if err != nil {
			return 0, err
		}
		amount = f
	default:
		return 0, fmt.Errorf("unsupported amount type %T", v)
	}

	if amount <= 0 || math.IsNaN(amount) || math.IsInf(amount, 0) {
		return 0, fmt.Errorf("amount must be positive, got %v", amount)
	}
	return amount, nil
}

func abortValidation(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
		"status":  "error",
		"message": message,
	})
}
