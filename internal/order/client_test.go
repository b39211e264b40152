package order_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tokokriya/storefront/internal/order"
	"github.com/tokokriya/storefront/internal/resilience"
)

func TestCreateOrder(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/orders", r.URL.Path)
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"data":{"orderId":"ord_1","orderNumber":"TK-1001"}}`))
	}))
	defer srv.Close()

	client := order.HTTPClient{BaseURL: srv.URL, HTTP: resilience.HTTPClient{Client: srv.Client()}}
	conf, err := client.Create(context.Background(), order.Order{CartID: "c1", Total: 5000})
	require.NoError(t, err)
	require.Equal(t, "ord_1", conf.OrderID)
	require.Equal(t, "TK-1001", conf.OrderNumber)
}

func TestCreateOrderSurfacesRemoteMessage(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"error":{"message":"destination not serviceable"}}`))
	}))
	defer srv.Close()

	client := order.HTTPClient{BaseURL: srv.URL, HTTP: resilience.HTTPClient{Client: srv.Client()}}
	_, err := client.Create(context.Background(), order.Order{CartID: "c1"})
	require.ErrorContains(t, err, "destination not serviceable")
}

func TestCreateOrderGenericFailure(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	client := order.HTTPClient{BaseURL: srv.URL, HTTP: resilience.HTTPClient{Client: srv.Client()}}
	_, err := client.Create(context.Background(), order.Order{CartID: "c1"})
	require.ErrorContains(t, err, "submission failed")
}
