// Package backend talks to the quiz server's verification and report
// endpoints over HTTP. Client satisfies the gate collaborator interfaces.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

type Client struct {
	base    string
	http    *http.Client
	cookies []*http.Cookie
}

type Config struct {
	BaseURL string
	Timeout time.Duration
	// Optional; copied, never modified. A fresh client is used when nil.
	HTTPClient *http.Client
}

const defaultTimeout = 5 * time.Second

func New(cfg Config) *Client {
	h := &http.Client{}
	if cfg.HTTPClient != nil {
		cp := *cfg.HTTPClient
		h = &cp
	}
	if cfg.Timeout > 0 {
		h.Timeout = cfg.Timeout
	} else if h.Timeout == 0 {
		h.Timeout = defaultTimeout
	}
	return &Client{base: cfg.BaseURL, http: h}
}

// WithCookies returns a copy of c that sends the given cookies on every
// call, so the server sees the visitor's session.
func (c *Client) WithCookies(cookies []*http.Cookie) *Client {
	cp := *c
	cp.cookies = cookies
	return &cp
}

func (c *Client) VerifyPayment(ctx context.Context, sessionID string) (bool, error) {
	q := url.Values{"session_id": {sessionID}}
	req, err := c.newRequest(ctx, http.MethodGet, "/verify-payment?"+q.Encode(), nil)
	if err != nil {
		return false, err
	}
	res, err := c.http.Do(req)
	if err != nil {
		return false, err
	}
	defer res.Body.Close()
	if res.StatusCode/100 != 2 {
		return false, fmt.Errorf("verify payment: %s", res.Status)
	}
	var out struct {
		Paid *bool `json:"paid"`
	}
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return false, fmt.Errorf("verify payment: %w", err)
	}
	if out.Paid == nil {
		return false, fmt.Errorf("verify payment: missing paid field")
	}
	return *out.Paid, nil
}

// VerifyFreeCode posts the code. The server answers 400 with valid=false
// for unknown or used codes; that is a normal negative answer.
func (c *Client) VerifyFreeCode(ctx context.Context, code string) (bool, error) {
	body, _ := json.Marshal(map[string]string{"code": code})
	req, err := c.newRequest(ctx, http.MethodPost, "/verify-free-code", body)
	if err != nil {
		return false, err
	}
	res, err := c.http.Do(req)
	if err != nil {
		return false, err
	}
	defer res.Body.Close()
	if res.StatusCode/100 != 2 && res.StatusCode != http.StatusBadRequest {
		return false, fmt.Errorf("verify free code: %s", res.Status)
	}
	var out struct {
		Valid *bool `json:"valid"`
	}
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return false, fmt.Errorf("verify free code: %w", err)
	}
	if out.Valid == nil {
		return false, fmt.Errorf("verify free code: missing valid field")
	}
	return *out.Valid, nil
}

func (c *Client) RenderReport(ctx context.Context, code, sub string) (string, error) {
	q := url.Values{"code": {code}}
	if sub != "" {
		q.Set("sub", sub)
	}
	req, err := c.newRequest(ctx, http.MethodGet, "/api/render-report?"+q.Encode(), nil)
	if err != nil {
		return "", err
	}
	res, err := c.http.Do(req)
	if err != nil {
		return "", err
	}
	defer res.Body.Close()
	if res.StatusCode/100 != 2 {
		return "", fmt.Errorf("render report: %s", res.Status)
	}
	b, err := io.ReadAll(res.Body)
	if err != nil {
		return "", fmt.Errorf("render report: %w", err)
	}
	return string(b), nil
}

func (c *Client) SetLatestCode(ctx context.Context, code string) error {
	body, _ := json.Marshal(map[string]string{"code": code})
	req, err := c.newRequest(ctx, http.MethodPost, "/api/set-latest-code", body)
	if err != nil {
		return err
	}
	res, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.StatusCode/100 != 2 {
		return fmt.Errorf("set latest code: %s", res.Status)
	}
	return nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, body []byte) (*http.Request, error) {
	var rd io.Reader
	if body != nil {
		rd = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, rd)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, ck := range c.cookies {
		req.AddCookie(ck)
	}
	return req, nil
}
