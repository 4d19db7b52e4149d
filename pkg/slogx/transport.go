package slogx

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/aussiebroadwan/npmsdk/pkg/idx"
)

// RequestIDHeader carries the correlation id on every outbound request.
const RequestIDHeader = "X-Request-ID"

// Transport is an http.RoundTripper that tags outbound requests with a request
// id and logs each round trip at debug level. It is the client-side twin of
// the usual request-logging middleware.
type Transport struct {
	Base   http.RoundTripper
	Logger *slog.Logger
}

// NewTransport wraps base (http.DefaultTransport when nil).
func NewTransport(base http.RoundTripper, logger *slog.Logger) *Transport {
	if base == nil {
		base = http.DefaultTransport
	}
	return &Transport{Base: base, Logger: logger}
}

func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()

	reqID, ok := RequestID(req.Context())
	if !ok {
		if existing, err := idx.Parse(req.Header.Get(RequestIDHeader)); err == nil {
			reqID = existing
		} else {
			reqID = idx.NewAt(start)
		}
	}

	// RoundTrippers must not mutate the caller's request
	req = req.Clone(req.Context())
	req.Header.Set(RequestIDHeader, reqID.String())

	logger := FromContext(req.Context(), t.Logger).With(
		"req_id", reqID.String(),
		"method", req.Method,
		"path", req.URL.Path,
	)

	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}

	resp, err := base.RoundTrip(req)
	duration := time.Since(start).Milliseconds()
	if err != nil {
		logger.Debug("npm_request_failed", "duration_ms", duration, "error", err)
		return nil, err
	}

	logger.Debug("npm_request",
		"status", resp.StatusCode,
		"duration_ms", duration,
	)

	return resp, nil
}
