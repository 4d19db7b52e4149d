package npmsdk

import "time"

// ============================================================================
// Token Types
// ============================================================================

// tokenRequest is the body of POST /api/tokens.
type tokenRequest struct {
	Identity string `json:"identity"`
	Secret   string `json:"secret"`
}

// tokenResponse is returned by POST /api/tokens.
type tokenResponse struct {
	Token string `json:"token"`

	// Expires is an absolute timestamp; older servers sometimes omit it, in
	// which case the token's own exp claim is used. A value that cannot be
	// parsed is treated as absent.
	Expires flexTime `json:"expires"`
}

// ============================================================================
// Proxy Host Types
// ============================================================================

// ProxyHost is a proxy host as configured on the proxy manager.
type ProxyHost struct {
	ID      int64
	Domains []string

	ForwardScheme string
	ForwardHost   string
	ForwardPort   int

	// SSLEnabled mirrors meta.letsencrypt_agree
	SSLEnabled bool

	// CertificateID is nil when no certificate is attached
	CertificateID *int64

	AccessListID          int64
	OwnerUserID           int64
	Enabled               bool
	SSLForced             bool
	HTTP2Support          bool
	BlockExploits         bool
	AllowWebsocketUpgrade bool
	CachingEnabled        bool
	HSTSEnabled           bool
	HSTSSubdomains        bool

	// NginxOnline and NginxError report the last nginx reload for this host
	NginxOnline bool
	NginxError  string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// HasDomain reports whether domain appears anywhere in the host's domain list.
func (p *ProxyHost) HasDomain(domain string) bool {
	for _, d := range p.Domains {
		if d == domain {
			return true
		}
	}
	return false
}

// proxyHostRecord is the server's proxy host shape.
type proxyHostRecord struct {
	ID          flexInt  `json:"id"`
	CreatedOn   flexTime `json:"created_on"`
	ModifiedOn  flexTime `json:"modified_on"`
	OwnerUserID flexInt  `json:"owner_user_id"`

	DomainNames   []string `json:"domain_names"`
	ForwardScheme string   `json:"forward_scheme"`
	ForwardHost   string   `json:"forward_host"`
	ForwardPort   flexInt  `json:"forward_port"`

	AccessListID          flexInt        `json:"access_list_id"`
	CertificateID         certificateRef `json:"certificate_id"`
	SSLForced             flexBool       `json:"ssl_forced"`
	CachingEnabled        flexBool       `json:"caching_enabled"`
	BlockExploits         flexBool       `json:"block_exploits"`
	AllowWebsocketUpgrade flexBool       `json:"allow_websocket_upgrade"`
	HTTP2Support          flexBool       `json:"http2_support"`
	HSTSEnabled           flexBool       `json:"hsts_enabled"`
	HSTSSubdomains        flexBool       `json:"hsts_subdomains"`
	Enabled               flexBool       `json:"enabled"`

	Meta struct {
		LetsencryptAgree flexBool `json:"letsencrypt_agree"`
		LetsencryptEmail string   `json:"letsencrypt_email"`
		DNSChallenge     flexBool `json:"dns_challenge"`
		NginxOnline      flexBool `json:"nginx_online"`
		NginxErr         string   `json:"nginx_err"`
	} `json:"meta"`
}

func (r *proxyHostRecord) unparsedTimes() []any {
	return unparsedTimes(map[string]flexTime{"created_on": r.CreatedOn, "modified_on": r.ModifiedOn})
}

func (r *proxyHostRecord) toProxyHost() ProxyHost {
	domains := r.DomainNames
	if domains == nil {
		domains = []string{}
	}

	return ProxyHost{
		ID:                    int64(r.ID),
		Domains:               domains,
		ForwardScheme:         r.ForwardScheme,
		ForwardHost:           r.ForwardHost,
		ForwardPort:           int(r.ForwardPort),
		SSLEnabled:            bool(r.Meta.LetsencryptAgree),
		CertificateID:         r.CertificateID.ID,
		AccessListID:          int64(r.AccessListID),
		OwnerUserID:           int64(r.OwnerUserID),
		Enabled:               bool(r.Enabled),
		SSLForced:             bool(r.SSLForced),
		HTTP2Support:          bool(r.HTTP2Support),
		BlockExploits:         bool(r.BlockExploits),
		AllowWebsocketUpgrade: bool(r.AllowWebsocketUpgrade),
		CachingEnabled:        bool(r.CachingEnabled),
		HSTSEnabled:           bool(r.HSTSEnabled),
		HSTSSubdomains:        bool(r.HSTSSubdomains),
		NginxOnline:           bool(r.Meta.NginxOnline),
		NginxError:            r.Meta.NginxErr,
		CreatedAt:             r.CreatedOn.Time(),
		UpdatedAt:             r.ModifiedOn.Time(),
	}
}

// CreateProxyHostRequest describes a new proxy host.
type CreateProxyHostRequest struct {
	// Domain is a convenience for the single-domain case. It is only used
	// when Domains is empty.
	Domain string

	// Domains in the order the server should store them; the first entry is
	// the one GetHost matches on
	Domains []string

	ForwardHost string
	ForwardPort int

	// ForwardScheme defaults to "http"
	ForwardScheme string

	// SSL requests a new Let's Encrypt certificate and forces SSL
	SSL bool
}

// domains normalizes the single/multi domain forms into one ordered list.
func (r CreateProxyHostRequest) domains() []string {
	if len(r.Domains) > 0 {
		return r.Domains
	}
	if r.Domain != "" {
		return []string{r.Domain}
	}
	return nil
}

// createProxyHostBody is the wire body of POST /api/nginx/proxy-hosts.
// Field names must match the server exactly.
type createProxyHostBody struct {
	DomainNames           []string            `json:"domain_names"`
	ForwardScheme         string              `json:"forward_scheme"`
	ForwardHost           string              `json:"forward_host"`
	ForwardPort           int                 `json:"forward_port"`
	AccessListID          string              `json:"access_list_id"`
	CertificateID         string              `json:"certificate_id"`
	Meta                  createProxyHostMeta `json:"meta"`
	AdvancedConfig        string              `json:"advanced_config"`
	Locations             []proxyLocation     `json:"locations"`
	BlockExploits         bool                `json:"block_exploits"`
	CachingEnabled        bool                `json:"caching_enabled"`
	AllowWebsocketUpgrade bool                `json:"allow_websocket_upgrade"`
	HTTP2Support          bool                `json:"http2_support"`
	HSTSEnabled           bool                `json:"hsts_enabled"`
	HSTSSubdomains        bool                `json:"hsts_subdomains"`
	SSLForced             bool                `json:"ssl_forced"`
}

type createProxyHostMeta struct {
	LetsencryptAgree bool   `json:"letsencrypt_agree"`
	LetsencryptEmail string `json:"letsencrypt_email"`
	DNSChallenge     bool   `json:"dns_challenge"`
}

// proxyLocation is a custom location block. The client never sends any, but
// the server requires the array to be present.
type proxyLocation struct {
	Path          string `json:"path"`
	ForwardScheme string `json:"forward_scheme"`
	ForwardHost   string `json:"forward_host"`
	ForwardPort   int    `json:"forward_port"`
}

// ============================================================================
// Certificate Types
// ============================================================================

// Certificate is an SSL certificate managed by the proxy manager.
type Certificate struct {
	ID        int64
	Provider  string
	NiceName  string
	Domains   []string
	ExpiresAt time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

type certificateRecord struct {
	ID          flexInt  `json:"id"`
	CreatedOn   flexTime `json:"created_on"`
	ModifiedOn  flexTime `json:"modified_on"`
	Provider    string   `json:"provider"`
	NiceName    string   `json:"nice_name"`
	DomainNames []string `json:"domain_names"`
	ExpiresOn   flexTime `json:"expires_on"`
}

func (r *certificateRecord) unparsedTimes() []any {
	return unparsedTimes(map[string]flexTime{
		"created_on":  r.CreatedOn,
		"modified_on": r.ModifiedOn,
		"expires_on":  r.ExpiresOn,
	})
}

func (r *certificateRecord) toCertificate() Certificate {
	domains := r.DomainNames
	if domains == nil {
		domains = []string{}
	}

	return Certificate{
		ID:        int64(r.ID),
		Provider:  r.Provider,
		NiceName:  r.NiceName,
		Domains:   domains,
		ExpiresAt: r.ExpiresOn.Time(),
		CreatedAt: r.CreatedOn.Time(),
		UpdatedAt: r.ModifiedOn.Time(),
	}
}

// ============================================================================
// User Types
// ============================================================================

// UserRecord is a user exactly as listed by the server, with permissions
// expanded. It carries no client reference; use GetUser for a mutable User.
type UserRecord struct {
	ID          int64
	Email       string
	Name        string
	Nickname    string
	Username    string
	Avatar      string
	Roles       []string
	Permissions Permissions
	IsDisabled  bool
	CreatedOn   time.Time
	ModifiedOn  time.Time
}

type userRecord struct {
	ID          flexInt     `json:"id"`
	CreatedOn   flexTime    `json:"created_on"`
	ModifiedOn  flexTime    `json:"modified_on"`
	IsDisabled  flexBool    `json:"is_disabled"`
	Email       string      `json:"email"`
	Name        string      `json:"name"`
	Nickname    string      `json:"nickname"`
	Username    string      `json:"username"`
	Avatar      string      `json:"avatar"`
	Roles       []string    `json:"roles"`
	Permissions Permissions `json:"permissions"`
}

func (r *userRecord) unparsedTimes() []any {
	return unparsedTimes(map[string]flexTime{"created_on": r.CreatedOn, "modified_on": r.ModifiedOn})
}

func (r *userRecord) toUserRecord() UserRecord {
	roles := r.Roles
	if roles == nil {
		roles = []string{}
	}

	return UserRecord{
		ID:          int64(r.ID),
		Email:       r.Email,
		Name:        r.Name,
		Nickname:    r.Nickname,
		Username:    r.Username,
		Avatar:      r.Avatar,
		Roles:       roles,
		Permissions: r.Permissions,
		IsDisabled:  bool(r.IsDisabled),
		CreatedOn:   r.CreatedOn.Time(),
		ModifiedOn:  r.ModifiedOn.Time(),
	}
}

// CreateUserRequest describes a new user. Email, Password (at least 8
// characters), Name and Nickname are required.
type CreateUserRequest struct {
	Email      string
	Password   string
	Name       string
	Nickname   string
	IsDisabled bool
	IsAdmin    bool

	// Permissions are applied after creation when non-nil
	Permissions *Permissions
}

// createUserBody is the wire body of POST /api/users. The endpoint does not
// accept a password.
type createUserBody struct {
	Email      string   `json:"email"`
	IsDisabled bool     `json:"is_disabled"`
	Name       string   `json:"name"`
	Nickname   string   `json:"nickname"`
	Roles      []string `json:"roles"`
}

// setPasswordBody is the wire body of PUT /api/users/{id}/auth.
type setPasswordBody struct {
	Type   string `json:"type"`
	Secret string `json:"secret"`
}
