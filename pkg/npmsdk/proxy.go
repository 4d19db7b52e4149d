package npmsdk

import (
	"context"
	"fmt"
	"net/http"
)

// ProxyGateway manages proxy hosts and lists certificates. It holds no state
// of its own: host, scheme and token are read from the Client on every call.
type ProxyGateway struct {
	client *Client
}

// ListHosts returns every proxy host in server order.
func (g *ProxyGateway) ListHosts(ctx context.Context) ([]ProxyHost, error) {
	resp, err := g.client.doAuthRequest(ctx, http.MethodGet, "/api/nginx/proxy-hosts", nil)
	if err != nil {
		return nil, err
	}

	var records []proxyHostRecord
	if err := decodeJSON(resp, &records); err != nil {
		return nil, err
	}

	hosts := make([]ProxyHost, 0, len(records))
	for i := range records {
		g.client.warnUnparsedTimes("proxy host", int64(records[i].ID), records[i].unparsedTimes())
		hosts = append(hosts, records[i].toProxyHost())
	}
	return hosts, nil
}

// GetHost returns the first host whose first domain is exactly domain.
// Secondary domains are deliberately not considered; DeleteHost matches any
// domain of a host instead.
func (g *ProxyGateway) GetHost(ctx context.Context, domain string) (*ProxyHost, error) {
	if err := validateArg("domain", domain, "required"); err != nil {
		return nil, err
	}

	hosts, err := g.ListHosts(ctx)
	if err != nil {
		return nil, err
	}

	for i := range hosts {
		if len(hosts[i].Domains) > 0 && hosts[i].Domains[0] == domain {
			return &hosts[i], nil
		}
	}

	return nil, &NotFoundError{Kind: "proxy host", Key: domain}
}

// proxyHostArgs is the validated shape of a CreateProxyHostRequest. Field
// order is the order missing arguments are reported in.
type proxyHostArgs struct {
	Domains     []string `json:"domain" validate:"required,min=1,dive,required"`
	ForwardHost string   `json:"host" validate:"required"`
	ForwardPort int      `json:"port" validate:"required,min=1,max=65535"`
}

// CreateHost creates a proxy host. With SSL set a new Let's Encrypt
// certificate is requested and SSL is forced.
//
// A domain already claimed by another host yields a *DomainInUseError. An
// *UpstreamError means provisioning failed server-side; the host itself may
// exist without SSL and is not rolled back.
func (g *ProxyGateway) CreateHost(ctx context.Context, req CreateProxyHostRequest) (*ProxyHost, error) {
	args := proxyHostArgs{
		Domains:     req.domains(),
		ForwardHost: req.ForwardHost,
		ForwardPort: req.ForwardPort,
	}
	if err := validateArgs(args); err != nil {
		return nil, err
	}

	scheme := req.ForwardScheme
	if scheme == "" {
		scheme = "http"
	}

	certificateID := "0"
	if req.SSL {
		certificateID = "new"
	}

	body := createProxyHostBody{
		DomainNames:   args.Domains,
		ForwardScheme: scheme,
		ForwardHost:   args.ForwardHost,
		ForwardPort:   args.ForwardPort,
		AccessListID:  "0",
		CertificateID: certificateID,
		Meta: createProxyHostMeta{
			LetsencryptAgree: req.SSL,
			LetsencryptEmail: g.client.Email(),
			DNSChallenge:     false,
		},
		AdvancedConfig:        "",
		Locations:             []proxyLocation{},
		BlockExploits:         true,
		CachingEnabled:        false,
		AllowWebsocketUpgrade: true,
		HTTP2Support:          false,
		HSTSEnabled:           false,
		HSTSSubdomains:        false,
		SSLForced:             req.SSL,
	}

	resp, err := g.client.doAuthRequest(ctx, http.MethodPost, "/api/nginx/proxy-hosts", body)
	if err != nil {
		return nil, err
	}

	var record proxyHostRecord
	if err := decodeJSON(resp, &record); err != nil {
		return nil, classifyCreateHostError(err)
	}

	g.client.warnUnparsedTimes("proxy host", int64(record.ID), record.unparsedTimes())
	host := record.toProxyHost()
	g.client.Logger.Info("npm proxy host created",
		"id", host.ID,
		"domains", host.Domains,
		"ssl", host.SSLEnabled,
	)
	return &host, nil
}

// DeleteHost deletes the first host that lists domain anywhere in its domain
// names.
func (g *ProxyGateway) DeleteHost(ctx context.Context, domain string) error {
	if err := validateArg("domain", domain, "required"); err != nil {
		return err
	}

	hosts, err := g.ListHosts(ctx)
	if err != nil {
		return err
	}

	var target *ProxyHost
	for i := range hosts {
		if hosts[i].HasDomain(domain) {
			target = &hosts[i]
			break
		}
	}
	if target == nil {
		return &NotFoundError{Kind: "proxy host", Key: domain}
	}

	resp, err := g.client.doAuthRequest(ctx, http.MethodDelete, fmt.Sprintf("/api/nginx/proxy-hosts/%d", target.ID), nil)
	if err != nil {
		return err
	}

	if err := decodeJSON(resp, nil); err != nil {
		return err
	}

	g.client.Logger.Info("npm proxy host deleted", "id", target.ID, "domain", domain)
	return nil
}

// ListCertificates returns every certificate in server order.
func (g *ProxyGateway) ListCertificates(ctx context.Context) ([]Certificate, error) {
	resp, err := g.client.doAuthRequest(ctx, http.MethodGet, "/api/certificates", nil)
	if err != nil {
		return nil, err
	}

	var records []certificateRecord
	if err := decodeJSON(resp, &records); err != nil {
		return nil, err
	}

	certs := make([]Certificate, 0, len(records))
	for i := range records {
		g.client.warnUnparsedTimes("certificate", int64(records[i].ID), records[i].unparsedTimes())
		certs = append(certs, records[i].toCertificate())
	}
	return certs, nil
}
