package npmsdk

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/aussiebroadwan/npmsdk/pkg/jwtx"
)

/*
 * fakeNPM is an in-process stand-in for the proxy manager API. It keeps just
 * enough state to exercise the client and counts every call so tests can
 * assert that validation happens before any remote request.
 */

const (
	testEmail    = "admin@example.com"
	testPassword = "changeme"
)

type fakeNPM struct {
	t      *testing.T
	server *httptest.Server

	mu sync.Mutex

	// clock drives token expiry; tests share it with the Session. now is
	// what the server reads and may be pointed at real time instead.
	clock *fakeClock
	now   func() time.Time
	ttl   time.Duration

	// jwtTokens issues signed JWTs without an expires field
	jwtTokens    bool
	rejectLogins bool
	maxLogins    int // 0 means unlimited

	// expiredTokens issues tokens whose expiry is already a minute past
	expiredTokens bool

	// holdTokens, when set, parks token requests until it is closed or the
	// client gives up; heldTokens counts the parked requests
	holdTokens chan struct{}
	heldTokens int

	tokenSeq int
	logins   int
	calls    map[string]int
	bodies   map[string][]byte

	meRoles []string

	hosts      []map[string]any
	nextHostID int
	certs      []map[string]any
	users      []map[string]any
	nextUserID int
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Now().UTC()}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newFakeNPM(t *testing.T) *fakeNPM {
	t.Helper()

	clock := newFakeClock()
	f := &fakeNPM{
		t:          t,
		clock:      clock,
		now:        clock.Now,
		ttl:        time.Hour,
		calls:      make(map[string]int),
		bodies:     make(map[string][]byte),
		meRoles:    []string{"admin"},
		nextHostID: 1,
		nextUserID: 2,
		users: []map[string]any{
			{
				"id":          1,
				"created_on":  "2022-01-21T02:17:44.000Z",
				"modified_on": "2022-01-21T02:18:06.000Z",
				"is_disabled": 0,
				"email":       testEmail,
				"name":        "Administrator",
				"nickname":    "Admin",
				"avatar":      "",
				"roles":       []string{"admin"},
				"permissions": map[string]any{
					"visibility": "all", "proxy_hosts": "manage", "redirection_hosts": "manage",
					"dead_hosts": "manage", "streams": "manage", "access_lists": "manage", "certificates": "manage",
				},
			},
		},
	}

	f.server = httptest.NewServer(http.HandlerFunc(f.handle))
	t.Cleanup(f.server.Close)

	return f
}

// host returns the host[:port] part of the fake server's URL.
func (f *fakeNPM) host() string {
	return strings.TrimPrefix(f.server.URL, "http://")
}

func (f *fakeNPM) callCount(key string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[key]
}

func (f *fakeNPM) totalCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	total := 0
	for _, n := range f.calls {
		total += n
	}
	return total
}

func (f *fakeNPM) heldCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.heldTokens
}

func (f *fakeNPM) loginCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.logins
}

func (f *fakeNPM) lastBody(key string) map[string]any {
	f.mu.Lock()
	defer f.mu.Unlock()

	var body map[string]any
	require.NoError(f.t, json.Unmarshal(f.bodies[key], &body))
	return body
}

func (f *fakeNPM) set(fn func(f *fakeNPM)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fn(f)
}

// newTestClient returns a connected client whose session shares f's clock.
func newTestClient(t *testing.T, f *fakeNPM) *Client {
	t.Helper()

	c := newDisconnectedClient(t, f)
	require.NoError(t, c.Connect(t.Context()))
	t.Cleanup(c.Disconnect)

	return c
}

func newDisconnectedClient(t *testing.T, f *fakeNPM) *Client {
	t.Helper()

	c, err := NewClient(Config{
		Host:     f.host(),
		Scheme:   "http",
		Email:    testEmail,
		Password: testPassword,
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	require.NoError(t, err)
	c.session.now = f.clock.Now

	return c
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeEnvelope(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{
		"error": map[string]any{"code": status, "message": msg},
	})
}

func (f *fakeNPM) handle(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	key := r.Method + " " + r.URL.Path

	if key == "POST /api/tokens" {
		f.mu.Lock()
		hold := f.holdTokens
		if hold != nil {
			f.heldTokens++
		}
		f.mu.Unlock()

		if hold != nil {
			select {
			case <-hold:
			case <-r.Context().Done():
				return
			}
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls[key]++
	if len(body) > 0 {
		f.bodies[key] = body
	}

	if key == "POST /api/tokens" {
		f.issueToken(w, body)
		return
	}

	if !strings.HasPrefix(r.Header.Get("Authorization"), "Bearer ") {
		writeEnvelope(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	switch {
	case key == "GET /api/users/me":
		me := make(map[string]any)
		for k, v := range f.findUser(1) {
			me[k] = v
		}
		me["roles"] = f.meRoles
		writeJSON(w, http.StatusOK, me)

	case key == "GET /api/nginx/proxy-hosts":
		writeJSON(w, http.StatusOK, f.hostsOrEmpty())

	case key == "POST /api/nginx/proxy-hosts":
		f.createHost(w, body)

	case r.Method == http.MethodDelete && strings.HasPrefix(r.URL.Path, "/api/nginx/proxy-hosts/"):
		id, _ := strconv.Atoi(strings.TrimPrefix(r.URL.Path, "/api/nginx/proxy-hosts/"))
		for i, h := range f.hosts {
			if fmt.Sprint(h["id"]) == strconv.Itoa(id) {
				f.hosts = append(f.hosts[:i], f.hosts[i+1:]...)
				writeJSON(w, http.StatusOK, true)
				return
			}
		}
		writeEnvelope(w, http.StatusNotFound, "Not Found")

	case key == "GET /api/certificates":
		certs := f.certs
		if certs == nil {
			certs = []map[string]any{}
		}
		writeJSON(w, http.StatusOK, certs)

	case key == "GET /api/users":
		writeJSON(w, http.StatusOK, f.users)

	case key == "POST /api/users":
		var in map[string]any
		_ = json.Unmarshal(body, &in)
		in["id"] = f.nextUserID
		in["created_on"] = f.now().Format(time.RFC3339)
		in["modified_on"] = f.now().Format(time.RFC3339)
		in["permissions"] = map[string]any{"visibility": "user", "proxy_hosts": "hidden"}
		f.nextUserID++
		f.users = append(f.users, in)
		writeJSON(w, http.StatusCreated, in)

	case r.Method == http.MethodPut && strings.HasSuffix(r.URL.Path, "/auth"):
		writeJSON(w, http.StatusOK, true)

	case r.Method == http.MethodPut && strings.HasPrefix(r.URL.Path, "/api/users/"):
		id, _ := strconv.Atoi(strings.TrimPrefix(r.URL.Path, "/api/users/"))
		user := f.findUser(id)
		if user == nil {
			writeEnvelope(w, http.StatusNotFound, "Not Found")
			return
		}

		var in map[string]any
		_ = json.Unmarshal(body, &in)
		if email, ok := in["email"].(string); ok && email == "taken@example.com" {
			// Older releases answer validation failures with a bare message
			writeJSON(w, http.StatusBadRequest, map[string]any{"message": "Email address already in use"})
			return
		}
		for k, v := range in {
			user[k] = v
		}
		writeJSON(w, http.StatusOK, user)

	default:
		writeEnvelope(w, http.StatusNotFound, "Not Found")
	}
}

func (f *fakeNPM) issueToken(w http.ResponseWriter, body []byte) {
	var req struct {
		Identity string `json:"identity"`
		Secret   string `json:"secret"`
	}
	_ = json.Unmarshal(body, &req)

	if f.maxLogins > 0 && f.logins >= f.maxLogins {
		f.rejectLogins = true
	}

	if f.rejectLogins || req.Identity != testEmail || req.Secret != testPassword {
		writeEnvelope(w, http.StatusUnauthorized, "Invalid email or password")
		return
	}

	f.logins++
	f.tokenSeq++
	expires := f.now().Add(f.ttl)
	if f.expiredTokens {
		expires = f.now().Add(-time.Minute)
	}

	if f.jwtTokens {
		tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwtx.Claims{
			RegisteredClaims: jwt.RegisteredClaims{
				Issuer:    "api",
				ID:        strconv.Itoa(f.tokenSeq),
				ExpiresAt: jwt.NewNumericDate(expires),
			},
			Attrs: jwtx.Attrs{ID: 1},
		}).SignedString([]byte("fake-npm"))
		if err != nil {
			writeEnvelope(w, http.StatusInternalServerError, err.Error())
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{"token": tok})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"token":   fmt.Sprintf("token-%d", f.tokenSeq),
		"expires": expires.Format(time.RFC3339Nano),
	})
}

func (f *fakeNPM) createHost(w http.ResponseWriter, body []byte) {
	var in struct {
		DomainNames   []string `json:"domain_names"`
		ForwardHost   string   `json:"forward_host"`
		ForwardPort   int      `json:"forward_port"`
		ForwardScheme string   `json:"forward_scheme"`
		CertificateID string   `json:"certificate_id"`
		SSLForced     bool     `json:"ssl_forced"`
		Meta          struct {
			LetsencryptAgree bool `json:"letsencrypt_agree"`
		} `json:"meta"`
	}
	if err := json.Unmarshal(body, &in); err != nil {
		writeEnvelope(w, http.StatusBadRequest, err.Error())
		return
	}

	for _, d := range in.DomainNames {
		if d == "fail.example.com" {
			writeEnvelope(w, http.StatusInternalServerError, "Internal Error")
			return
		}
		for _, h := range f.hosts {
			for _, existing := range h["domain_names"].([]string) {
				if existing == d {
					writeEnvelope(w, http.StatusBadRequest, d+" is already in use")
					return
				}
			}
		}
	}

	var certificateID any = 0
	if in.CertificateID == "new" {
		certificateID = 42
	}

	now := f.now().Format("2006-01-02 15:04:05")
	host := map[string]any{
		"id":             f.nextHostID,
		"created_on":     now,
		"modified_on":    now,
		"owner_user_id":  1,
		"domain_names":   in.DomainNames,
		"forward_host":   in.ForwardHost,
		"forward_port":   in.ForwardPort,
		"forward_scheme": in.ForwardScheme,
		"access_list_id": 0,
		"certificate_id": certificateID,
		"ssl_forced":     in.SSLForced,
		"enabled":        1,
		"meta": map[string]any{
			"letsencrypt_agree": in.Meta.LetsencryptAgree,
			"nginx_online":      true,
			"nginx_err":         nil,
		},
	}
	f.nextHostID++
	f.hosts = append(f.hosts, host)

	writeJSON(w, http.StatusCreated, host)
}

func (f *fakeNPM) hostsOrEmpty() []map[string]any {
	if f.hosts == nil {
		return []map[string]any{}
	}
	return f.hosts
}

func (f *fakeNPM) findUser(id int) map[string]any {
	for _, u := range f.users {
		if fmt.Sprint(u["id"]) == strconv.Itoa(id) {
			return u
		}
	}
	return nil
}
