package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestParseAmount(t *testing.T) {
	t.Run("accepts numbers and display strings", func(t *testing.T) {
		cases := []struct {
			in   interface{}
			want float64
		}{
			{50.0, 50.0},
			{"50", 50.0},
			{"$1,200.50", 1200.50},
			{"€99.99", 99.99},
			{"£ 10", 10.0},
			{json.Number("12.34"), 12.34},
		}
		for _, tc := range cases {
			got, err := ParseAmount(tc.in)
			assert.NoError(t, err, "input %v", tc.in)
			assert.Equal(t, tc.want, got, "input %v", tc.in)
		}
	})

	t.Run("rejects invalid amounts", func(t *testing.T) {
		for _, in := range []interface{}{"abc", "", 0.0, -5.0, "-5", "$", nil, true} {
			_, err := ParseAmount(in)
			assert.Error(t, err, "input %v", in)
		}
	})
}

func TestValidatePayment(t *testing.T) {
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.POST("/payments", ValidatePayment(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"name":   c.GetString(CustomerNameKey),
			"email":  c.GetString(CustomerEmailKey),
			"amount": c.GetFloat64(AmountKey),
		})
	})

	post := func(body string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/payments", bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, req)
		return w
	}

	t.Run("passes a valid request through with coerced amount", func(t *testing.T) {
		w := post(`{"customer_name":"Jane Doe","customer_email":"jane@x.com","amount":"$1,200.50"}`)
		assert.Equal(t, http.StatusOK, w.Code)

		var resp map[string]interface{}
		assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "Jane Doe", resp["name"])
		assert.Equal(t, 1200.50, resp["amount"])
	})

	t.Run("rejects missing fields", func(t *testing.T) {
		for _, body := range []string{
			`{}`,
			`{"customer_name":"Jane Doe"}`,
			`{"customer_name":"Jane Doe","customer_email":"jane@x.com"}`,
		} {
			w := post(body)
			assert.Equal(t, http.StatusBadRequest, w.Code, "body %s", body)
			assert.Contains(t, w.Body.String(), "Missing required fields")
		}
	})

	t.Run("rejects malformed emails", func(t *testing.T) {
		w := post(`{"customer_name":"Jane Doe","customer_email":"invalid-email","amount":50}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "Invalid email format")
	})

	t.Run("rejects non-positive and non-numeric amounts", func(t *testing.T) {
		for _, amount := range []string{`"abc"`, `0`, `-5`} {
			w := post(`{"customer_name":"Jane Doe","customer_email":"jane@x.com","amount":` + amount + `}`)
			assert.Equal(t, http.StatusBadRequest, w.Code, "amount %s", amount)
			assert.Contains(t, w.Body.String(), "Amount must be a positive number")
		}
	})
}
