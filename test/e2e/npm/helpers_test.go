package npm_test

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/aussiebroadwan/npmsdk/pkg/npmsdk"
)

/*
 * Common constants and helper functions for proxy manager end-to-end tests.
 * Every test gets a fresh container so hosts and users never leak between
 * tests.
 */

const (
	testImageName = "jc21/nginx-proxy-manager:2.11.3"

	adminEmail    = "admin@example.com"
	adminPassword = "changeme"
)

// setupNPMContainer starts the proxy manager and returns the host:port of its
// admin API.
func setupNPMContainer(t *testing.T) (string, func()) {
	t.Helper()
	testcontainers.SkipIfProviderIsNotHealthy(t)
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        testImageName,
		ExposedPorts: []string{"81/tcp"},
		Env: map[string]string{
			"DISABLE_IPV6":           "true",
			"INITIAL_ADMIN_EMAIL":    adminEmail,
			"INITIAL_ADMIN_PASSWORD": adminPassword,
		},
		WaitingFor: wait.ForHTTP("/api/").
			WithPort("81/tcp").
			WithStartupTimeout(120 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)

	mappedPort, err := container.MappedPort(ctx, "81")
	require.NoError(t, err)

	host, err := container.Host(ctx)
	require.NoError(t, err)

	cleanup := func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	}

	return fmt.Sprintf("%s:%s", host, mappedPort.Port()), cleanup
}

// newClient returns a client for host. It is not connected yet.
func newClient(t *testing.T, host string) *npmsdk.Client {
	t.Helper()

	client, err := npmsdk.NewClient(npmsdk.Config{
		Host:     host,
		Scheme:   "http",
		Email:    adminEmail,
		Password: adminPassword,
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	require.NoError(t, err)

	return client
}

// connectedClient returns a connected client that disconnects on cleanup.
func connectedClient(t *testing.T, host string) *npmsdk.Client {
	t.Helper()

	client := newClient(t, host)
	require.NoError(t, client.Connect(t.Context()))
	t.Cleanup(client.Disconnect)

	return client
}
