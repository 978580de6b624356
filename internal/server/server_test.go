package server

import (
	"context"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/deppfellow/employees-api/internal/config"
	"github.com/deppfellow/employees-api/internal/database"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) (*Server, pgxmock.PgxPoolIface) {
	t.Helper()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)

	log := zerolog.Nop()
	cfg := config.Default()

	return NewWithDatabase(cfg, &log, nil, database.NewFromPool(mock, &log)), mock
}

func TestNewWithDatabase_RegistersCollectors(t *testing.T) {
	t.Parallel()

	s, _ := newTestServer(t)
	require.NotNil(t, s.Metrics)

	s.Metrics.DBQueryDuration.WithLabelValues("list_employees").Observe(0.01)

	families, err := s.Registry.Gather()
	require.NoError(t, err)

	names := make([]string, 0, len(families))
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "employees_db_query_duration_seconds")
	assert.Contains(t, names, "go_goroutines")
}

func TestStart_RequiresSetup(t *testing.T) {
	t.Parallel()

	s, _ := newTestServer(t)
	assert.EqualError(t, s.Start(), "HTTP server not initialized")
}

func TestStartAndShutdown(t *testing.T) {
	t.Parallel()

	s, mock := newTestServer(t)
	mock.ExpectClose()

	// pick a free port
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	_, port, err := net.SplitHostPort(ln.Addr().String())
	require.NoError(t, err)
	require.NoError(t, ln.Close())

	s.Config.Server.Port = port
	s.SetupHTTPServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	done := make(chan error, 1)
	go func() { done <- s.Start() }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://127.0.0.1:" + port + "/")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusNoContent
	}, 5*time.Second, 20*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, s.Shutdown(ctx))
	require.NoError(t, <-done)
	require.NoError(t, mock.ExpectationsWereMet())
}
