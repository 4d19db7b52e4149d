/*
Package npmsdk provides a client SDK for the REST API of Nginx Proxy Manager.

# Overview

The package logs in with an email and password, keeps the returned bearer token
fresh, and exposes proxy hosts, certificates and users as Go types. It is a
library only: credentials and the session live in process memory.

# Client, Session and Gateways

  - Client: owns the configuration, the Session and the gateways
  - Session: holds the token and its expiry, renews it on its own
  - ProxyGateway (Client.Proxy): proxy hosts and certificates
  - UserGateway (Client.Users): user listing, lookup and creation
  - User: a user snapshot with chainable setters

	client, err := npmsdk.NewClient(npmsdk.Config{
		Host:     "npm.example.com:81",
		Scheme:   "http",
		Email:    "admin@example.com",
		Password: "changeme",
	})
	if err != nil {
		return err
	}

	if err := client.Connect(ctx); err != nil {
		return err
	}
	defer client.Disconnect()

	host, err := client.Proxy.CreateHost(ctx, npmsdk.CreateProxyHostRequest{
		Domain:      "app.example.com",
		ForwardHost: "10.0.0.1",
		ForwardPort: 8080,
		SSL:         true,
	})

# Token Renewal

Connect arms a timer for the instant the token expires. When it fires the
Session logs in again with the stored credentials and re-arms for the new
expiry. Independently, every gateway call checks the expiry before using the
token and renews it if needed, so a call made after a failed background
renewal retries it and returns the error to its caller. Disconnect cancels
the timer and any token request still in flight. A token that is already
expired when it arrives, usually a sign of clock skew between client and
server, is rejected with an *AuthError rather than renewed in a loop.

# Domain Matching

GetHost matches a host only by its first domain, DeleteHost by any of its
domains. A host serving "example.com" and "www.example.com" is found by
GetHost("example.com") but not GetHost("www.example.com"), while both names
delete it.

# Error Handling

Errors are typed and meant for errors.As / errors.Is:

  - *MissingArgumentError: required argument absent or malformed, no remote call made
  - *InvalidTypeError: value outside an enumerated set, no remote call made
  - *NotFoundError: no proxy host or user matched
  - *AuthError: login or renewal rejected, or server unreachable
  - ErrAlreadyConnected, ErrNotConnected: session misuse
  - ErrAdminRequired: admin-only operation without the admin role
  - *DomainInUseError: another host already claims the domain
  - *UpstreamError: the server failed while provisioning (often DNS or Let's Encrypt rate limits)
  - *APIError: any other non-2xx response

Nothing is retried.

# Configuration

LoadConfig reads NPM_HOST, NPM_SCHEME, NPM_EMAIL, NPM_PASSWORD, NPM_TIMEOUT,
NPM_SKIP_ROLE_CHECK, NPM_LOG_LEVEL and NPM_LOG_FORMAT from the environment.

# Thread Safety

Client, Session and the gateways are safe for concurrent use. User values are
snapshots and must not be mutated from several goroutines at once.
*/
package npmsdk
