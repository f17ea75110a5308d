package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMiddlewareLabelsByRouteTemplate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Middleware())
	r.GET("/products/:productId", func(c *gin.Context) { c.Status(http.StatusTeapot) })

	before := testutil.ToFloat64(httpRequests.WithLabelValues("GET", "/products/:productId", "418"))
	for _, id := range []string{"1", "2", "3"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/products/"+id, nil))
		require.Equal(t, http.StatusTeapot, w.Code)
	}
	after := testutil.ToFloat64(httpRequests.WithLabelValues("GET", "/products/:productId", "418"))
	assert.Equal(t, 3.0, after-before)
	assert.Equal(t, 0.0, testutil.ToFloat64(httpInFlight))
}

func TestRecordersAndHandler(t *testing.T) {
	orders := testutil.ToFloat64(ordersCreated)
	RecordOrderCreated()
	assert.Equal(t, orders+1, testutil.ToFloat64(ordersCreated))

	failures := testutil.ToFloat64(logins.WithLabelValues("failure"))
	RecordLogin("failure")
	assert.Equal(t, failures+1, testutil.ToFloat64(logins.WithLabelValues("failure")))

	w := httptest.NewRecorder()
	Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.Contains(w.Body.String(), "shop_orders_created_total"))
	assert.True(t, strings.Contains(w.Body.String(), "shop_auth_logins_total"))
}
