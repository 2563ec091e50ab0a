package inventory

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Backend is everything the console asks of the REST API. *Client implements
// it; tests substitute fakes.
type Backend interface {
	Login(ctx context.Context, creds Credentials) (AuthResult, error)
	Register(ctx context.Context, reg Registration) (AuthResult, error)
	Me(ctx context.Context) (User, error)
	ListProducts(ctx context.Context, key QueryKey) (ProductList, error)
	GetProduct(ctx context.Context, id string) (Product, error)
	CreateProduct(ctx context.Context, in ProductInput) (Product, error)
	UpdateProduct(ctx context.Context, id string, in ProductInput) (Product, error)
	DeleteProduct(ctx context.Context, id string) error
}

// Ensure Client implements Backend at compile time.
var _ Backend = (*Client)(nil)

// TokenStore hands out the bearer token and forgets it on 401.
type TokenStore interface {
	Token() string
	Clear() error
}

// Client talks to the inventory REST API.
type Client struct {
	baseURL   *url.URL
	http      *http.Client
	userAgent string
	tokens    TokenStore
	log       *zap.Logger
}

// ClientOptions configure NewClient. Zero values pick defaults.
type ClientOptions struct {
	Timeout time.Duration
	Tokens  TokenStore
	Logger  *zap.Logger
}

const (
	defaultBaseURL   = "http://127.0.0.1:5000/api"
	defaultUserAgent = "shelf/0.1"
	defaultTimeout   = 10 * time.Second
	maxBodyBytes     = 4 << 20
)

// NewClient builds a Client rooted at baseURL (for example
// "http://127.0.0.1:5000/api").
func NewClient(baseURL string, opts ClientOptions) (*Client, error) {
	base, err := parseBaseURL(baseURL)
	if err != nil {
		return nil, err
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL:   base,
		http:      &http.Client{Timeout: timeout},
		userAgent: defaultUserAgent,
		tokens:    opts.Tokens,
		log:       logger.Named("client"),
	}, nil
}

// Login exchanges credentials for a token.
func (c *Client) Login(ctx context.Context, creds Credentials) (AuthResult, error) {
	var out AuthResult
	if _, err := c.do(ctx, http.MethodPost, "auth/login", nil, creds, &out); err != nil {
		return AuthResult{}, err
	}
	return out, nil
}

// Register creates an account and returns its token.
func (c *Client) Register(ctx context.Context, reg Registration) (AuthResult, error) {
	var out AuthResult
	if _, err := c.do(ctx, http.MethodPost, "auth/register", nil, reg, &out); err != nil {
		return AuthResult{}, err
	}
	return out, nil
}

// Me returns the profile bound to the current token.
func (c *Client) Me(ctx context.Context) (User, error) {
	var raw json.RawMessage
	if _, err := c.do(ctx, http.MethodGet, "auth/me", nil, nil, &raw); err != nil {
		return User{}, err
	}
	var wrapped struct {
		User *User `json:"user"`
	}
	if err := json.Unmarshal(raw, &wrapped); err == nil && wrapped.User != nil {
		return *wrapped.User, nil
	}
	var user User
	if err := json.Unmarshal(raw, &user); err != nil {
		return User{}, fmt.Errorf("decode user: %w", err)
	}
	return user, nil
}

// ListProducts fetches one filtered page.
func (c *Client) ListProducts(ctx context.Context, key QueryKey) (ProductList, error) {
	var products []Product
	env, err := c.do(ctx, http.MethodGet, "products", key.Values(), nil, &products)
	if err != nil {
		return ProductList{}, err
	}
	list := ProductList{Products: products}
	if env.Pagination != nil {
		list.Pagination = *env.Pagination
	} else {
		p := key.PageRequest().Normalize()
		list.Pagination = Pagination{Page: p.Page, Limit: p.Limit, Total: len(products), Pages: 1}
	}
	return list, nil
}

// GetProduct fetches a single product.
func (c *Client) GetProduct(ctx context.Context, id string) (Product, error) {
	if strings.TrimSpace(id) == "" {
		return Product{}, fmt.Errorf("product id required")
	}
	var p Product
	if _, err := c.do(ctx, http.MethodGet, "products/"+url.PathEscape(id), nil, nil, &p); err != nil {
		return Product{}, err
	}
	return p, nil
}

// CreateProduct posts a new product and returns the stored record.
func (c *Client) CreateProduct(ctx context.Context, in ProductInput) (Product, error) {
	var p Product
	if _, err := c.do(ctx, http.MethodPost, "products", nil, in, &p); err != nil {
		return Product{}, err
	}
	return p, nil
}

// UpdateProduct replaces a product and returns the stored record.
func (c *Client) UpdateProduct(ctx context.Context, id string, in ProductInput) (Product, error) {
	if strings.TrimSpace(id) == "" {
		return Product{}, fmt.Errorf("product id required")
	}
	var p Product
	if _, err := c.do(ctx, http.MethodPut, "products/"+url.PathEscape(id), nil, in, &p); err != nil {
		return Product{}, err
	}
	return p, nil
}

// DeleteProduct removes a product.
func (c *Client) DeleteProduct(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("product id required")
	}
	_, err := c.do(ctx, http.MethodDelete, "products/"+url.PathEscape(id), nil, nil, nil)
	return err
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, dest any) (Envelope, error) {
	reqURL := c.baseURL.JoinPath(path)
	if len(query) > 0 {
		reqURL.RawQuery = query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return Envelope{}, fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL.String(), reader)
	if err != nil {
		return Envelope{}, fmt.Errorf("create request: %w", err)
	}
	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("X-Request-ID", requestID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.tokens != nil {
		if token := c.tokens.Token(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	log := c.log.With(zap.String("method", method), zap.String("path", path), zap.String("request_id", requestID))
	started := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		log.Warn("request failed", zap.Error(err))
		return Envelope{}, &TransportError{Op: "execute request", Err: err}
	}
	defer func() { _ = resp.Body.Close() }()
	log.Debug("response", zap.Int("status", resp.StatusCode), zap.Duration("elapsed", time.Since(started)))

	if resp.StatusCode == http.StatusUnauthorized {
		if c.tokens != nil {
			if err := c.tokens.Clear(); err != nil {
				log.Error("clear credentials", zap.Error(err))
			}
		}
		log.Info("unauthorized; credentials cleared")
		return Envelope{}, fmt.Errorf("%s /%s: %w", method, path, ErrUnauthorized)
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return Envelope{}, &TransportError{Op: "read response", Err: err}
	}

	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		if resp.StatusCode >= 400 {
			return Envelope{}, &APIError{Status: resp.StatusCode, Message: fmt.Sprintf("api /%s returned status %d", path, resp.StatusCode)}
		}
		return Envelope{}, fmt.Errorf("decode response: %w", err)
	}
	if resp.StatusCode >= 400 || !env.Success {
		apiErr := &APIError{Status: resp.StatusCode, Message: env.failureMessage()}
		log.Info("application failure", zap.Int("status", resp.StatusCode), zap.String("message", apiErr.Message))
		return env, apiErr
	}

	if dest == nil || len(env.Data) == 0 {
		return env, nil
	}
	if err := json.Unmarshal(env.Data, dest); err != nil {
		return env, fmt.Errorf("decode response: %w", err)
	}
	return env, nil
}

func (e Envelope) failureMessage() string {
	if msg := strings.TrimSpace(e.Message); msg != "" {
		return msg
	}
	if len(e.Error) > 0 {
		var text string
		if err := json.Unmarshal(e.Error, &text); err == nil && text != "" {
			return text
		}
		var obj struct {
			Message string `json:"message"`
		}
		if err := json.Unmarshal(e.Error, &obj); err == nil && obj.Message != "" {
			return obj.Message
		}
	}
	return "request failed"
}

func parseBaseURL(raw string) (*url.URL, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		trimmed = defaultBaseURL
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "http://" + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse api url %q: %w", raw, err)
	}
	if u.Host == "" {
		return nil, errors.New("api url has no host")
	}
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}
