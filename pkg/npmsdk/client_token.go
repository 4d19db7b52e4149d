package npmsdk

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/aussiebroadwan/npmsdk/pkg/jwtx"
)

// tokenGrant is a normalized /api/tokens response.
type tokenGrant struct {
	token     string
	expiresAt time.Time
	userID    int64
}

// requestToken authenticates with the stored credentials. Every failure,
// including an unreachable server, is reported as an *AuthError. A grant that
// is not valid past now is rejected: arming the renewal timer on it would
// log in again immediately, forever.
func (c *Client) requestToken(ctx context.Context, now time.Time) (*tokenGrant, error) {
	resp, err := c.doRequest(ctx, http.MethodPost, "/api/tokens", tokenRequest{
		Identity: c.email,
		Secret:   c.password,
	})
	if err != nil {
		return nil, &AuthError{Message: err.Error(), Err: err}
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &AuthError{StatusCode: resp.StatusCode, Message: "failed to read response body", Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := parseErrorResponse(resp, bodyBytes)
		return nil, &AuthError{StatusCode: resp.StatusCode, Message: apiErr.Message, Err: apiErr}
	}

	var tokenResp tokenResponse
	if err := json.Unmarshal(bodyBytes, &tokenResp); err != nil {
		return nil, &AuthError{
			StatusCode: resp.StatusCode,
			Message:    "failed to decode token response",
			Err:        fmt.Errorf("failed to decode response: %w", err),
		}
	}

	if tokenResp.Token == "" {
		return nil, &AuthError{StatusCode: resp.StatusCode, Message: "token response carries no token"}
	}

	grant := &tokenGrant{
		token:     tokenResp.Token,
		expiresAt: tokenResp.Expires.Time(),
	}

	// The token is a JWT; its claims back up a missing expires field and
	// carry the user id. Opaque tokens are fine as long as expires is set.
	if claims, err := jwtx.ParseUnverified(tokenResp.Token); err == nil {
		grant.userID = claims.Attrs.ID
		if grant.expiresAt.IsZero() {
			if exp, err := claims.Expiry(); err == nil {
				grant.expiresAt = exp
			}
		}
	}

	if grant.expiresAt.IsZero() {
		msg := "token response carries no expiry"
		if raw, ok := tokenResp.Expires.Unparsed(); ok {
			msg = fmt.Sprintf("token response carries an unrecognised expiry %q", raw)
		}
		return nil, &AuthError{StatusCode: resp.StatusCode, Message: msg}
	}

	if !grant.expiresAt.After(now) {
		c.Logger.Warn("npm token already expired on arrival, check clock skew",
			"expires_at", grant.expiresAt,
			"now", now,
		)
		return nil, &AuthError{StatusCode: resp.StatusCode, Message: "token response already expired"}
	}

	return grant, nil
}
