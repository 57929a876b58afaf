package payment

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fakeStripe(t *testing.T) *Stripe {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/checkout/sessions", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer sk_test_1", r.Header.Get("Authorization"))
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "payment", r.PostForm.Get("mode"))
		assert.Equal(t, "99", r.PostForm.Get("line_items[0][price_data][unit_amount]"))
		assert.Equal(t, "usd", r.PostForm.Get("line_items[0][price_data][currency]"))
		assert.Equal(t, ProductName, r.PostForm.Get("line_items[0][price_data][product_data][name]"))
		assert.Equal(t, "http://x/purchase-success?token=t", r.PostForm.Get("success_url"))
		_ = json.NewEncoder(w).Encode(map[string]string{"id": "cs_1", "url": "https://checkout.stripe.com/c/cs_1"})
	})
	mux.HandleFunc("GET /v1/checkout/sessions/{id}", func(w http.ResponseWriter, r *http.Request) {
		switch r.PathValue("id") {
		case "cs_paid":
			_ = json.NewEncoder(w).Encode(map[string]string{"id": "cs_paid", "payment_status": "paid"})
		case "cs_open":
			_ = json.NewEncoder(w).Encode(map[string]string{"id": "cs_open", "payment_status": "unpaid"})
		default:
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"error":{"message":"No such checkout.session"}}`))
		}
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	s, err := NewStripe(Config{SecretKey: "sk_test_1", APIURL: srv.URL})
	require.NoError(t, err)
	return s
}

func TestNewStripeRequiresKey(t *testing.T) {
	_, err := NewStripe(Config{})
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestCreateCheckout(t *testing.T) {
	s := fakeStripe(t)
	co, err := s.CreateCheckout(context.Background(), "http://x/purchase-success?token=t", "http://x/report")
	require.NoError(t, err)
	assert.Equal(t, Checkout{ID: "cs_1", URL: "https://checkout.stripe.com/c/cs_1"}, co)
}

func TestCheckoutPaid(t *testing.T) {
	s := fakeStripe(t)
	ctx := context.Background()

	ok, err := s.CheckoutPaid(ctx, "cs_paid")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.CheckoutPaid(ctx, "cs_open")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = s.CheckoutPaid(ctx, "cs_missing")
	assert.ErrorContains(t, err, "No such checkout.session")

	ok, err = s.CheckoutPaid(ctx, "")
	require.NoError(t, err)
	assert.False(t, ok)
}
