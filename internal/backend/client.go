// Package backend is the HTTP client for the store backend API.
//
// Every call takes its credential explicitly; the client holds no auth state,
// so one Client is safe to share across concurrent requests.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/tidwall/gjson"

	"github.com/mbuy/stores/internal/domain"
	"github.com/mbuy/stores/internal/metrics"
)

const maxBodyBytes = 8 << 20

// Credential is a bearer token for the secured endpoints. Empty means anonymous.
type Credential string

// StatusError is returned for non-2xx responses.
type StatusError struct {
	Op         string
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("backend.%s: status %d", e.Op, e.StatusCode)
	}
	return fmt.Sprintf("backend.%s: status %d: %s", e.Op, e.StatusCode, e.Message)
}

// Unwrap maps the status code onto a domain sentinel.
func (e *StatusError) Unwrap() error {
	switch {
	case e.StatusCode == http.StatusNotFound:
		return domain.ErrNotFound
	case e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden:
		return domain.ErrUnauthorized
	case e.StatusCode == http.StatusConflict:
		return domain.ErrConflict
	case e.StatusCode >= 500:
		return domain.ErrUnavailable
	default:
		return nil
	}
}

// Client talks to the backend REST API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a Client. A zero timeout leaves the transport default in place.
func New(baseURL string, timeout time.Duration) *Client {
	return NewWithHTTPClient(baseURL, &http.Client{Timeout: timeout})
}

// NewWithHTTPClient creates a Client using hc for transport.
func NewWithHTTPClient(baseURL string, hc *http.Client) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: hc,
	}
}

// GetStore fetches a store by slug. GET /public/store/{slug}
func (c *Client) GetStore(ctx context.Context, slug string) (*domain.Store, error) {
	body, err := c.do(ctx, "GetStore", http.MethodGet, "/public/store/"+url.PathEscape(slug), nil, "", nil)
	if err != nil {
		return nil, err
	}

	var store domain.Store
	if err := decodeData("GetStore", body, &store); err != nil {
		return nil, err
	}
	return &store, nil
}

// GetStoreTheme fetches the theme assignment of a store. GET /public/store/{slug}/theme
func (c *Client) GetStoreTheme(ctx context.Context, slug string) (*domain.StoreTheme, error) {
	body, err := c.do(ctx, "GetStoreTheme", http.MethodGet, "/public/store/"+url.PathEscape(slug)+"/theme", nil, "", nil)
	if err != nil {
		return nil, err
	}

	data, err := envelopeData("GetStoreTheme", body)
	if err != nil {
		return nil, err
	}
	return &domain.StoreTheme{ThemeID: data.Get("theme_id").String()}, nil
}

// GetStoreBranding fetches branding assets. GET /public/store/{slug}/branding
func (c *Client) GetStoreBranding(ctx context.Context, slug string) (*domain.Branding, error) {
	body, err := c.do(ctx, "GetStoreBranding", http.MethodGet, "/public/store/"+url.PathEscape(slug)+"/branding", nil, "", nil)
	if err != nil {
		return nil, err
	}

	var branding domain.Branding
	if err := decodeData("GetStoreBranding", body, &branding); err != nil {
		return nil, err
	}
	return &branding, nil
}

// ListProducts fetches one page of products. GET /store-site/{slug}/products
func (c *Client) ListProducts(ctx context.Context, slug string, q domain.ProductQuery) ([]domain.Product, error) {
	params := url.Values{}
	if q.Limit > 0 {
		params.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.Offset > 0 || q.Limit > 0 {
		params.Set("offset", strconv.Itoa(q.Offset))
	}
	if q.CategoryID != "" {
		params.Set("category_id", q.CategoryID)
	}

	body, err := c.do(ctx, "ListProducts", http.MethodGet, "/store-site/"+url.PathEscape(slug)+"/products", params, "", nil)
	if err != nil {
		return nil, err
	}

	data, err := envelopeData("ListProducts", body)
	if err != nil {
		return nil, err
	}
	if items := data.Get("items"); data.IsObject() && items.IsArray() {
		data = items
	}
	if !data.IsArray() {
		return nil, errors.New("backend.ListProducts: data is not a list")
	}

	products := make([]domain.Product, 0, len(data.Array()))
	if err := json.Unmarshal([]byte(data.Raw), &products); err != nil {
		return nil, fmt.Errorf("backend.ListProducts: decode: %w", err)
	}
	return products, nil
}

// CheckSlug reports whether slug is free. GET /secure/store/check-slug?slug=
// A response without ok/available is treated as taken.
func (c *Client) CheckSlug(ctx context.Context, cred Credential, slug string) (bool, error) {
	params := url.Values{"slug": []string{slug}}
	body, err := c.do(ctx, "CheckSlug", http.MethodGet, "/secure/store/check-slug", params, cred, nil)
	if err != nil {
		return false, err
	}

	res := gjson.ParseBytes(body)
	return res.Get("ok").Bool() && res.Get("data.available").Bool(), nil
}

// CreateStore creates a store. POST /secure/store/create
func (c *Client) CreateStore(ctx context.Context, cred Credential, req domain.CreateStoreRequest) (*domain.Store, error) {
	body, err := c.do(ctx, "CreateStore", http.MethodPost, "/secure/store/create", nil, cred, req)
	if err != nil {
		return nil, err
	}

	var store domain.Store
	if err := decodeData("CreateStore", body, &store); err != nil {
		return nil, err
	}
	if store.Slug == "" {
		store.Slug = req.Slug
	}
	if store.Name == "" {
		store.Name = req.Name
	}
	return &store, nil
}

// UpdateBranding updates branding fields. PUT /secure/store/{id}/branding
func (c *Client) UpdateBranding(ctx context.Context, cred Credential, storeID string, update domain.BrandingUpdate) error {
	body, err := c.do(ctx, "UpdateBranding", http.MethodPut, "/secure/store/"+url.PathEscape(storeID)+"/branding", nil, cred, update)
	if err != nil {
		return err
	}

	if ok := gjson.GetBytes(body, "ok"); ok.Exists() && !ok.Bool() {
		return fmt.Errorf("backend.UpdateBranding: %s: %w", envelopeMessage(body), domain.ErrConflict)
	}
	return nil
}

// AISuggestions requests branding suggestions. POST /secure/store/{id}/ai-suggestions
func (c *Client) AISuggestions(ctx context.Context, cred Credential, storeID string, req domain.SuggestionRequest) (*domain.Suggestions, error) {
	body, err := c.do(ctx, "AISuggestions", http.MethodPost, "/secure/store/"+url.PathEscape(storeID)+"/ai-suggestions", nil, cred, req)
	if err != nil {
		return nil, err
	}

	var s domain.Suggestions
	if err := decodeData("AISuggestions", body, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (c *Client) do(ctx context.Context, op, method, path string, query url.Values, cred Credential, payload any) (_ []byte, err error) {
	start := time.Now()
	defer func() {
		outcome := "ok"
		if err != nil {
			outcome = "error"
		}
		metrics.RecordBackendCall(op, outcome, time.Since(start))
	}()

	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var bodyReader io.Reader
	if payload != nil {
		raw, marshalErr := json.Marshal(payload)
		if marshalErr != nil {
			return nil, fmt.Errorf("backend.%s: marshal: %w", op, marshalErr)
		}
		bodyReader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("backend.%s: new request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if cred != "" {
		req.Header.Set("Authorization", "Bearer "+string(cred))
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("backend.%s: %w: %w", op, domain.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("backend.%s: read body: %w: %w", op, domain.ErrUnavailable, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		log.Debug().
			Str("op", op).
			Str("method", method).
			Str("path", path).
			Int("status", resp.StatusCode).
			Msg("backend: non-2xx response")
		return nil, &StatusError{Op: op, StatusCode: resp.StatusCode, Message: envelopeMessage(body)}
	}
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("backend.%s: invalid JSON response", op)
	}

	return body, nil
}

// envelopeData unwraps {ok, data}. ok:false or missing data is ErrNotFound.
func envelopeData(op string, body []byte) (gjson.Result, error) {
	res := gjson.ParseBytes(body)
	if ok := res.Get("ok"); ok.Exists() && !ok.Bool() {
		return gjson.Result{}, fmt.Errorf("backend.%s: %s: %w", op, envelopeMessage(body), domain.ErrNotFound)
	}
	data := res.Get("data")
	if !data.Exists() || data.Type == gjson.Null {
		return gjson.Result{}, fmt.Errorf("backend.%s: empty data: %w", op, domain.ErrNotFound)
	}
	return data, nil
}

func decodeData(op string, body []byte, target any) error {
	data, err := envelopeData(op, body)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(data.Raw), target); err != nil {
		return fmt.Errorf("backend.%s: decode: %w", op, err)
	}
	return nil
}

func envelopeMessage(body []byte) string {
	for _, path := range []string{"error.message", "error", "message"} {
		if v := gjson.GetBytes(body, path); v.Exists() && v.Type == gjson.String {
			return v.String()
		}
	}
	if len(body) > 0 && !gjson.ValidBytes(body) {
		msg := strings.TrimSpace(string(body))
		if len(msg) > 200 {
			msg = msg[:200] + "...(truncated)"
		}
		return msg
	}
	return ""
}
