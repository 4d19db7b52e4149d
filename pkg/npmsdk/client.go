package npmsdk

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/aussiebroadwan/npmsdk/pkg/slogx"
)

// Client is the entry point of the SDK. It owns the Session and exposes the
// resource gateways. Create one with NewClient, then call Connect.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
	Logger     *slog.Logger

	// CheckRoles enables the client-side admin check for user management
	// operations. It saves a round trip and gives a clearer error than the
	// server's 403. Default: true
	CheckRoles bool

	// Proxy manages proxy hosts and certificates.
	Proxy *ProxyGateway

	// Users manages users. Most operations need the admin role.
	Users *UserGateway

	email    string
	password string
	session  *Session

	meMu sync.Mutex
	me   *User
}

// NewClient validates cfg and builds a disconnected Client.
func NewClient(cfg Config) (*Client, error) {
	if err := validateArgs(cfg); err != nil {
		return nil, err
	}

	scheme := cfg.Scheme
	if scheme == "" {
		scheme = "https"
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	var hc http.Client
	if cfg.HTTPClient != nil {
		hc = *cfg.HTTPClient
	} else {
		hc.Timeout = timeout
	}
	hc.Transport = slogx.NewTransport(hc.Transport, logger)

	c := &Client{
		BaseURL:    scheme + "://" + strings.TrimSuffix(cfg.Host, "/"),
		HTTPClient: &hc,
		Logger:     logger,
		CheckRoles: !cfg.SkipRoleCheck,
		email:      cfg.Email,
		password:   cfg.Password,
	}
	c.session = newSession(c)
	c.Proxy = &ProxyGateway{client: c}
	c.Users = &UserGateway{client: c}

	return c, nil
}

// NewClientFromEnv builds a Client from LoadConfig.
func NewClientFromEnv() (*Client, error) {
	return NewClient(LoadConfig())
}

// Connect logs in with the configured credentials and starts the renewal
// timer. It fails with ErrAlreadyConnected when a session is active and with
// an *AuthError when the credentials are rejected.
func (c *Client) Connect(ctx context.Context) error {
	if err := c.session.login(ctx); err != nil {
		return err
	}

	c.Logger.Info("npm session connected",
		"base_url", c.BaseURL,
		"expires_at", c.session.ExpiresAt(),
	)
	return nil
}

// Disconnect cancels the renewal timer and forgets the token. The Client can
// Connect again afterwards. Disconnecting a disconnected Client is a no-op.
func (c *Client) Disconnect() {
	if !c.session.logout() {
		return
	}

	c.meMu.Lock()
	c.me = nil
	c.meMu.Unlock()

	c.Logger.Info("npm session disconnected", "base_url", c.BaseURL)
}

// Session returns the client's session.
func (c *Client) Session() *Session {
	return c.session
}

// Email returns the login identity, also used as the Let's Encrypt contact.
func (c *Client) Email() string {
	return c.email
}

// Me fetches the logged in user, permissions expanded, and refreshes the
// cached roles used by CheckRoles.
func (c *Client) Me(ctx context.Context) (*User, error) {
	resp, err := c.doAuthRequest(ctx, http.MethodGet, "/api/users/me?expand=permissions", nil)
	if err != nil {
		return nil, err
	}

	var rec userRecord
	if err := decodeJSON(resp, &rec); err != nil {
		return nil, err
	}

	me := newUser(c, rec.toUserRecord())

	c.meMu.Lock()
	c.me = me
	c.meMu.Unlock()

	return me, nil
}

// requireAdmin enforces CheckRoles. The logged in user is fetched once per
// connection and cached, roles rarely change within a session.
func (c *Client) requireAdmin(ctx context.Context) error {
	if !c.CheckRoles {
		return nil
	}

	c.meMu.Lock()
	me := c.me
	c.meMu.Unlock()

	if me == nil {
		var err error
		if me, err = c.Me(ctx); err != nil {
			return err
		}
	}

	if !me.IsAdmin() {
		return ErrAdminRequired
	}
	return nil
}
