package accountapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	clinicauth "github.com/ovumlab/clinicauth"
)

const defaultTimeout = 10 * time.Second

// APIError carries the HTTP status and server-reported message of a
// non-2xx reply, plus the request ID for correlation with server logs.
type APIError struct {
	Status    int
	Message   string
	RequestID string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("account service: status %d (request %s)", e.Status, e.RequestID)
	}
	return fmt.Sprintf("account service: %s (status %d, request %s)", e.Message, e.Status, e.RequestID)
}

// Option configures a [Client].
type Option func(*Client)

// WithHTTPClient replaces the default 10-second-timeout http.Client.
// Timeouts and transport tuning live here; the Manager delegates both.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

// WithLogger sets the structured logger. Defaults to zap.NewNop.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// Client is the JSON account-service client.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *zap.Logger
}

var _ clinicauth.AccountService = (*Client)(nil)

// NewClient returns a Client for the service at baseURL.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	baseURL = strings.TrimRight(baseURL, "/")
	if baseURL == "" {
		return nil, errors.New("account service base url required")
	}

	c := &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: defaultTimeout},
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.http == nil {
		c.http = &http.Client{Timeout: defaultTimeout}
	}
	if c.logger == nil {
		c.logger = zap.NewNop()
	}

	return c, nil
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type verifyEmailRequest struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

type resendVerificationRequest struct {
	Email string `json:"email"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Login implements clinicauth.AccountService.
func (c *Client) Login(ctx context.Context, email, password string) (*clinicauth.AuthPayload, error) {
	var out clinicauth.AuthPayload
	if err := c.do(ctx, http.MethodPost, "/v1/auth/login", "", loginRequest{Email: email, Password: password}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Register implements clinicauth.AccountService.
func (c *Client) Register(ctx context.Context, input clinicauth.RegisterInput) (*clinicauth.AuthPayload, error) {
	var out clinicauth.AuthPayload
	if err := c.do(ctx, http.MethodPost, "/v1/auth/register", "", input, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Logout implements clinicauth.AccountService.
func (c *Client) Logout(ctx context.Context, accessToken string) error {
	return c.do(ctx, http.MethodPost, "/v1/auth/logout", accessToken, nil, nil)
}

// CurrentPrincipal implements clinicauth.AccountService.
func (c *Client) CurrentPrincipal(ctx context.Context, accessToken string) (*clinicauth.PrincipalPayload, error) {
	var out clinicauth.PrincipalPayload
	if err := c.do(ctx, http.MethodGet, "/v1/auth/me", accessToken, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateProfile implements clinicauth.AccountService.
func (c *Client) UpdateProfile(ctx context.Context, accessToken string, update clinicauth.ProfileUpdate) (*clinicauth.PrincipalPayload, error) {
	var out clinicauth.PrincipalPayload
	if err := c.do(ctx, http.MethodPatch, "/v1/auth/me", accessToken, update, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// VerifyEmail implements clinicauth.AccountService.
func (c *Client) VerifyEmail(ctx context.Context, email, code string) error {
	return c.do(ctx, http.MethodPost, "/v1/auth/verify-email", "", verifyEmailRequest{Email: email, Code: code}, nil)
}

// ResendVerification implements clinicauth.AccountService.
func (c *Client) ResendVerification(ctx context.Context, email string) error {
	return c.do(ctx, http.MethodPost, "/v1/auth/resend-verification", "", resendVerificationRequest{Email: email}, nil)
}

func (c *Client) do(ctx context.Context, method, path, accessToken string, body, out any) error {
	requestID := uuid.NewString()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+accessToken)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Debug("account service request failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.String("request_id", requestID),
			zap.Error(err))
		return fmt.Errorf("account service: %w", err)
	}
	defer resp.Body.Close()

	c.logger.Debug("account service request",
		zap.String("method", method),
		zap.String("path", path),
		zap.String("request_id", requestID),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{
			Status:    resp.StatusCode,
			RequestID: requestID,
		}
		var body errorResponse
		if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<16)).Decode(&body); err == nil {
			apiErr.Message = body.Error
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response (request %s): %w", requestID, err)
	}

	return nil
}
