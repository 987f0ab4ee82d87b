package identity

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

	"github.com/rs/zerolog"
)

var (
	// ErrEmailExists indicates the provider already has an account for the email.
	ErrEmailExists = errors.New("email already registered")
	// ErrInvalidCredentials indicates sign-in was rejected.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrAccountDisabled indicates the provider disabled the account.
	ErrAccountDisabled = errors.New("account disabled")
	// ErrUnavailable indicates the provider could not be reached.
	ErrUnavailable = errors.New("identity provider unavailable")
	// ErrNoSession indicates an operation requiring a signed-in session was
	// attempted on a handle without one.
	ErrNoSession = errors.New("no active session on handle")
)

// Account is the provider-side identity record bound to a session token.
type Account struct {
	UID     string
	IDToken string
}

// Session is a disposable, isolated credential-issuer handle. Each handle
// carries its own token state, so batch operations never replace the
// operator's session. Close must be called on every path.
type Session interface {
	SignUp(ctx context.Context, email, password string) (Account, error)
	SignIn(ctx context.Context, email, password string) (Account, error)
	DeleteAccount(ctx context.Context) error
	Close()
}

// Provider hands out scoped sessions against the identity provider.
type Provider interface {
	Scoped() Session
}

// Config holds connection settings for the identity provider REST API.
type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
	Logger  zerolog.Logger
}

// Client implements Provider over the identity provider's REST endpoints.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	logger  zerolog.Logger
}

// New constructs an identity client.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("identity provider base url must be provided")
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("identity provider api key must be provided")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		http:    &http.Client{Timeout: timeout},
		logger:  cfg.Logger.With().Str("component", "identity_client").Logger(),
	}, nil
}

// Scoped returns a fresh handle with empty token state.
func (c *Client) Scoped() Session {
	return &handle{client: c}
}

type handle struct {
	client  *Client
	account Account
	closed  bool
}

func (h *handle) SignUp(ctx context.Context, email, password string) (Account, error) {
	account, err := h.client.credentialCall(ctx, "accounts:signUp", email, password)
	if err != nil {
		return Account{}, err
	}
	h.account = account
	return account, nil
}

func (h *handle) SignIn(ctx context.Context, email, password string) (Account, error) {
	account, err := h.client.credentialCall(ctx, "accounts:signInWithPassword", email, password)
	if err != nil {
		return Account{}, err
	}
	h.account = account
	return account, nil
}

func (h *handle) DeleteAccount(ctx context.Context) error {
	if h.closed || h.account.IDToken == "" {
		return ErrNoSession
	}

	payload := map[string]string{"idToken": h.account.IDToken}
	if _, err := h.client.post(ctx, "accounts:delete", payload); err != nil {
		return err
	}

	h.account = Account{}
	return nil
}

// Close discards the handle's token state. The provider session is stateless
// server-side, so teardown is purely local.
func (h *handle) Close() {
	h.account = Account{}
	h.closed = true
}

type credentialResponse struct {
	LocalID string `json:"localId"`
	IDToken string `json:"idToken"`
}

type apiError struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (c *Client) credentialCall(ctx context.Context, endpoint, email, password string) (Account, error) {
	payload := map[string]interface{}{
		"email":             email,
		"password":          password,
		"returnSecureToken": true,
	}

	body, err := c.post(ctx, endpoint, payload)
	if err != nil {
		return Account{}, err
	}

	var parsed credentialResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return Account{}, fmt.Errorf("decode identity response: %w", err)
	}
	if parsed.LocalID == "" {
		return Account{}, fmt.Errorf("identity response missing uid")
	}

	return Account{UID: parsed.LocalID, IDToken: parsed.IDToken}, nil
}

func (c *Client) post(ctx context.Context, endpoint string, payload interface{}) ([]byte, error) {
	encoded, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode identity request: %w", err)
	}

	url := fmt.Sprintf("%s/v1/%s?key=%s", c.baseURL, endpoint, c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(encoded))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read identity response: %w", err)
	}

	if resp.StatusCode >= 400 {
		return nil, classifyAPIError(resp.StatusCode, body)
	}

	return body, nil
}

func classifyAPIError(status int, body []byte) error {
	var parsed apiError
	_ = json.Unmarshal(body, &parsed)
	code := strings.ToUpper(strings.TrimSpace(parsed.Error.Message))

	switch {
	case strings.HasPrefix(code, "EMAIL_EXISTS"):
		return ErrEmailExists
	case strings.HasPrefix(code, "EMAIL_NOT_FOUND"),
		strings.HasPrefix(code, "INVALID_PASSWORD"),
		strings.HasPrefix(code, "INVALID_LOGIN_CREDENTIALS"):
		return ErrInvalidCredentials
	case strings.HasPrefix(code, "USER_DISABLED"):
		return ErrAccountDisabled
	case status >= 500:
		return fmt.Errorf("%w: status %d", ErrUnavailable, status)
	default:
		if code == "" {
			return fmt.Errorf("identity provider error: status %d", status)
		}
		return fmt.Errorf("identity provider error: %s", code)
	}
}
