// Package payment creates and checks Stripe Checkout sessions for the
// detailed report purchase.
package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/oauth2"
)

const ProductName = "Big 5 Detailed Archetype Report"

var ErrNotConfigured = errors.New("payment provider not configured")

// Provider is what the HTTP layer needs from a payment backend.
type Provider interface {
	CreateCheckout(ctx context.Context, successURL, cancelURL string) (Checkout, error)
	CheckoutPaid(ctx context.Context, id string) (bool, error)
}

type Checkout struct {
	ID  string
	URL string
}

type Config struct {
	SecretKey  string
	APIURL     string // default https://api.stripe.com
	PriceCents int64
	Currency   string
	Timeout    time.Duration
}

type Stripe struct {
	api      string
	http     *http.Client
	price    int64
	currency string
}

func NewStripe(cfg Config) (*Stripe, error) {
	if cfg.SecretKey == "" {
		return nil, ErrNotConfigured
	}
	api := strings.TrimSuffix(cfg.APIURL, "/")
	if api == "" {
		api = "https://api.stripe.com"
	}
	if cfg.PriceCents <= 0 {
		cfg.PriceCents = 99
	}
	if cfg.Currency == "" {
		cfg.Currency = "usd"
	}
	// Stripe accepts the secret key as a bearer token.
	h := oauth2.NewClient(context.Background(), oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.SecretKey}))
	if cfg.Timeout > 0 {
		h.Timeout = cfg.Timeout
	} else {
		h.Timeout = 10 * time.Second
	}
	return &Stripe{api: api, http: h, price: cfg.PriceCents, currency: cfg.Currency}, nil
}

type stripeSession struct {
	ID            string `json:"id"`
	URL           string `json:"url"`
	PaymentStatus string `json:"payment_status"`
}

type stripeError struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (s *Stripe) CreateCheckout(ctx context.Context, successURL, cancelURL string) (Checkout, error) {
	form := url.Values{
		"mode":                                          {"payment"},
		"payment_method_types[0]":                       {"card"},
		"line_items[0][quantity]":                       {"1"},
		"line_items[0][price_data][currency]":           {s.currency},
		"line_items[0][price_data][unit_amount]":        {strconv.FormatInt(s.price, 10)},
		"line_items[0][price_data][product_data][name]": {ProductName},
		"success_url":                                   {successURL},
		"cancel_url":                                    {cancelURL},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.api+"/v1/checkout/sessions", strings.NewReader(form.Encode()))
	if err != nil {
		return Checkout{}, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	var out stripeSession
	if err := s.do(req, "create checkout", &out); err != nil {
		return Checkout{}, err
	}
	if out.ID == "" || out.URL == "" {
		return Checkout{}, fmt.Errorf("create checkout: incomplete session in response")
	}
	return Checkout{ID: out.ID, URL: out.URL}, nil
}

func (s *Stripe) CheckoutPaid(ctx context.Context, id string) (bool, error) {
	if id == "" {
		return false, nil
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.api+"/v1/checkout/sessions/"+url.PathEscape(id), nil)
	if err != nil {
		return false, err
	}
	var out stripeSession
	if err := s.do(req, "retrieve checkout", &out); err != nil {
		return false, err
	}
	return out.PaymentStatus == "paid", nil
}

func (s *Stripe) do(req *http.Request, op string, v any) error {
	res, err := s.http.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.StatusCode/100 != 2 {
		var se stripeError
		if json.NewDecoder(res.Body).Decode(&se) == nil && se.Error.Message != "" {
			return fmt.Errorf("%s: %s: %s", op, res.Status, se.Error.Message)
		}
		return fmt.Errorf("%s: %s", op, res.Status)
	}
	if err := json.NewDecoder(res.Body).Decode(v); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
