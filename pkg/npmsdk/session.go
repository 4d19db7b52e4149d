package npmsdk

import (
	"context"
	"sync"
	"time"

	"github.com/aussiebroadwan/npmsdk/pkg/slogx"
)

// Session is the client's authenticated state: a bearer token and its expiry.
//
// After every successful login or renewal the Session arms a single-shot timer
// for the exact expiry instant; when it fires the token is renewed with the
// stored credentials and the timer re-arms itself. At most one timer is
// outstanding at any time. Gateway calls that find the token expired renew it
// themselves, so renewal is driven from both sides and must stay idempotent.
//
// Every token request made for a connection is bound to that connection's
// lifetime: Disconnect cancels it instead of waiting for it.
//
// Sessions are safe for concurrent use.
type Session struct {
	client *Client

	// now is swapped in tests
	now func() time.Time

	mu        sync.RWMutex
	connected bool
	token     string
	expiresAt time.Time
	userID    int64

	timer *time.Timer
	gen   uint64 // bumped on every arm/logout so stale timer callbacks can tell

	// life is cancelled by logout. It has its own lock so logout can cancel
	// a renewal that holds mu.
	lifeMu     sync.Mutex
	life       context.Context
	cancelLife context.CancelFunc
}

func newSession(client *Client) *Session {
	return &Session{client: client, now: time.Now}
}

// Connected reports whether the session holds a token.
func (s *Session) Connected() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.connected
}

// Token returns the current token without checking expiry.
// For most use cases, prefer the gateway methods which renew automatically.
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// ExpiresAt returns when the current token expires.
func (s *Session) ExpiresAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.expiresAt
}

// UserID returns the user id embedded in the token, or 0 if unknown.
func (s *Session) UserID() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.userID
}

// login performs the initial authentication. Nothing is stored on failure.
func (s *Session) login(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.connected {
		return ErrAlreadyConnected
	}

	grant, err := s.client.requestToken(ctx, s.now())
	if err != nil {
		return err
	}

	life, cancel := context.WithCancel(slogx.WithContext(context.Background(), s.client.Logger.With("trigger", "renewal_timer")))
	s.lifeMu.Lock()
	s.life, s.cancelLife = life, cancel
	s.lifeMu.Unlock()

	s.applyLocked(grant)
	s.connected = true
	s.armLocked()

	return nil
}

// lifetime returns the current connection's context. It is already done
// when the session is not connected.
func (s *Session) lifetime() context.Context {
	s.lifeMu.Lock()
	defer s.lifeMu.Unlock()

	if s.life == nil {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		return ctx
	}
	return s.life
}

// logout cancels any in-flight token request and the timer, then clears the
// token. It reports whether the session was connected.
func (s *Session) logout() bool {
	s.lifeMu.Lock()
	if s.cancelLife != nil {
		s.cancelLife()
	}
	s.lifeMu.Unlock()

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.connected {
		return false
	}

	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.gen++

	s.connected = false
	s.token = ""
	s.expiresAt = time.Time{}
	s.userID = 0

	return true
}

// EnsureFreshToken returns the current token, re-authenticating with the
// stored credentials first if it has expired. A failed renewal leaves the
// previous token in place and returns the error to the caller.
func (s *Session) EnsureFreshToken(ctx context.Context) (string, error) {
	s.mu.RLock()
	if !s.connected {
		s.mu.RUnlock()
		return "", ErrNotConnected
	}
	if s.now().Before(s.expiresAt) {
		token := s.token
		s.mu.RUnlock()
		return token, nil
	}
	s.mu.RUnlock()

	// The caller's deadline applies, and so does Disconnect
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(s.lifetime(), cancel)
	defer stop()

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.renewLocked(ctx)
}

// renewLocked renews the token if it is still expired once the write lock is
// held; another goroutine (or the timer) may already have done it.
func (s *Session) renewLocked(ctx context.Context) (string, error) {
	if !s.connected {
		return "", ErrNotConnected
	}

	if s.now().Before(s.expiresAt) {
		return s.token, nil
	}

	grant, err := s.client.requestToken(ctx, s.now())
	if err != nil {
		return "", err
	}

	s.applyLocked(grant)
	s.armLocked()

	s.client.Logger.Info("npm token renewed", "expires_at", s.expiresAt)
	return s.token, nil
}

func (s *Session) applyLocked(grant *tokenGrant) {
	s.token = grant.token
	s.expiresAt = grant.expiresAt
	s.userID = grant.userID
}

// armLocked replaces any outstanding timer with one firing at expiresAt, or
// immediately if that has already passed.
func (s *Session) armLocked() {
	if s.timer != nil {
		s.timer.Stop()
	}

	s.gen++
	gen := s.gen

	delay := s.expiresAt.Sub(s.now())
	if delay < 0 {
		delay = 0
	}

	s.timer = time.AfterFunc(delay, func() { s.onTimer(gen) })
}

// onTimer runs on the timer goroutine. There is no caller to hand an error to,
// so a failed renewal is logged and the next gateway call retries it.
//
// The token request runs without holding mu so that gateway calls and
// Disconnect are never stuck behind it; gen tells whether its result is
// still wanted once it returns.
func (s *Session) onTimer(gen uint64) {
	s.mu.Lock()
	if !s.connected || gen != s.gen {
		s.mu.Unlock()
		return
	}

	// The wall clock can lag the timer's monotonic clock. If the token is
	// not expired yet, check again at the expiry instant.
	if s.now().Before(s.expiresAt) {
		s.armLocked()
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()

	grant, err := s.client.requestToken(s.lifetime(), s.now())

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.connected || gen != s.gen {
		// Disconnected, or a gateway call renewed first
		return
	}

	if err != nil {
		s.client.Logger.Error("npm token renewal failed", "error", err, "expired_at", s.expiresAt)
		return
	}

	s.applyLocked(grant)
	s.armLocked()

	s.client.Logger.Info("npm token renewed", "expires_at", s.expiresAt)
}
