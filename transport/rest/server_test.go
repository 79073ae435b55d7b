package rest

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rocketscienceinc/tictactoe-lineserver/internal/entity"
	"github.com/rocketscienceinc/tictactoe-lineserver/internal/monitor"
	"github.com/rocketscienceinc/tictactoe-lineserver/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errStorage = errors.New("storage is down")

type fakeResults struct {
	results     map[string]*entity.Result
	leaderboard []entity.LeaderboardEntry
	err         error
	limit       int64
}

func (f *fakeResults) GetByID(_ context.Context, id string) (*entity.Result, error) {
	if f.err != nil {
		return nil, f.err
	}

	result, ok := f.results[id]
	if !ok {
		return nil, repository.ErrResultNotFound
	}

	return result, nil
}

func (f *fakeResults) Leaderboard(_ context.Context, limit int64) ([]entity.LeaderboardEntry, error) {
	f.limit = limit
	return f.leaderboard, f.err
}

func newTestServer(results resultReader) *Server {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	registry := prometheus.NewRegistry()
	metrics := monitor.NewMetrics("tictactoe", registry)
	metrics.SessionOpened()

	return New(logger, registry, results)
}

func get(t *testing.T, handler http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))

	return rec
}

func TestServer_Ping(t *testing.T) {
	rec := get(t, newTestServer(nil), "/ping")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "pong", rec.Body.String())
}

func TestServer_Metrics(t *testing.T) {
	rec := get(t, newTestServer(nil), "/metrics")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "tictactoe_online_sessions 1")
}

func TestServer_Results(t *testing.T) {
	player := entity.PlayerOne
	results := &fakeResults{
		results: map[string]*entity.Result{
			"abc": {ID: "abc", Status: "won", Player: &player, FinishedAt: time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)},
		},
		leaderboard: []entity.LeaderboardEntry{{Player: "player:1", Wins: 3}},
	}
	srv := newTestServer(results)

	t.Run("Returns an archived result", func(t *testing.T) {
		// When: an existing result is requested
		rec := get(t, srv, "/results/abc")

		// Then: it is returned as JSON
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

		var got entity.Result
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		assert.Equal(t, "abc", got.ID)
		require.NotNil(t, got.Player)
		assert.Equal(t, entity.PlayerOne, *got.Player)
	})

	t.Run("Unknown result is 404", func(t *testing.T) {
		rec := get(t, srv, "/results/nope")

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("Leaderboard honours the limit", func(t *testing.T) {
		// When: the leaderboard is requested with a limit
		rec := get(t, srv, "/leaderboard?limit=3")

		// Then: the limit reaches the archive and entries are returned
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, int64(3), results.limit)

		var got []entity.LeaderboardEntry
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		assert.Equal(t, results.leaderboard, got)
	})

	t.Run("Leaderboard rejects a bad limit", func(t *testing.T) {
		rec := get(t, srv, "/leaderboard?limit=-1")

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("Storage errors are 500", func(t *testing.T) {
		broken := newTestServer(&fakeResults{err: errStorage})

		assert.Equal(t, http.StatusInternalServerError, get(t, broken, "/results/abc").Code)
		assert.Equal(t, http.StatusInternalServerError, get(t, broken, "/leaderboard").Code)
	})
}

func TestServer_WithoutArchive(t *testing.T) {
	rec := get(t, newTestServer(nil), "/leaderboard")

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServer_Start(t *testing.T) {
	// Given: a running server
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- newTestServer(nil).Start(ctx, "0") }()

	// When: the context is cancelled
	cancel()

	// Then: Start returns without error
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("server did not stop")
	}
}
