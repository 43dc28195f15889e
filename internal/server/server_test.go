package server_test

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Flaque/filet"
	"github.com/UnknownOlympus/pinmap/internal/config"
	"github.com/UnknownOlympus/pinmap/internal/models"
	"github.com/UnknownOlympus/pinmap/internal/server"
	"github.com/UnknownOlympus/pinmap/test/mocks"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, cfg *config.Config, points server.PointSource, repo *mocks.Interface) *server.Server {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	reg := prometheus.NewRegistry()

	if repo == nil {
		return server.NewServer(cfg, points, nil, nil, reg, logger)
	}
	return server.NewServer(cfg, points, repo, nil, reg, logger)
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()

	dir := filet.TmpDir(t, "")
	csvPath := filepath.Join(dir, "points.csv")
	require.NoError(t, os.WriteFile(csvPath, []byte("lat,lon,user\n1,2,alice\n"), 0o600))

	return &config.Config{
		Env:       "local",
		Port:      8080,
		CSVPath:   csvPath,
		StaticDir: dir,
		Username:  "ops",
		Password:  "secret",
	}
}

func TestHandlePoints(t *testing.T) {
	defer filet.CleanUp(t)

	cfg := testConfig(t)
	samplePoints := []models.Point{
		{Lat: 28.6139, Lon: 77.209, Label: "alice"},
		{Lat: 50.45, Lon: 30.52, Label: "carol"},
	}

	t.Run("returns points as JSON", func(t *testing.T) {
		mockPoints := mocks.NewPointSource(t)
		mockPoints.On("LoadPoints", mock.Anything).Return(samplePoints).Once()
		srv := newTestServer(t, cfg, mockPoints, nil)

		req := httptest.NewRequest(http.MethodGet, "/api/points", nil)
		req.SetBasicAuth("ops", "secret")
		rec := httptest.NewRecorder()

		srv.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
		assert.JSONEq(t,
			`[{"lat":28.6139,"lon":77.209,"label":"alice"},{"lat":50.45,"lon":30.52,"label":"carol"}]`,
			rec.Body.String())
		mockPoints.AssertExpectations(t)
	})

	t.Run("empty list stays valid JSON", func(t *testing.T) {
		mockPoints := mocks.NewPointSource(t)
		mockPoints.On("LoadPoints", mock.Anything).Return([]models.Point{}).Once()
		srv := newTestServer(t, cfg, mockPoints, nil)

		req := httptest.NewRequest(http.MethodGet, "/api/points", nil)
		req.SetBasicAuth("ops", "secret")
		rec := httptest.NewRecorder()

		srv.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `[]`, rec.Body.String())
	})
}

func TestBasicAuthGate(t *testing.T) {
	defer filet.CleanUp(t)

	cfg := testConfig(t)

	t.Run("missing credentials rejected", func(t *testing.T) {
		mockPoints := mocks.NewPointSource(t)
		srv := newTestServer(t, cfg, mockPoints, nil)

		req := httptest.NewRequest(http.MethodGet, "/api/points", nil)
		rec := httptest.NewRecorder()

		srv.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Contains(t, rec.Header().Get("WWW-Authenticate"), "Basic")
	})

	t.Run("wrong password rejected", func(t *testing.T) {
		mockPoints := mocks.NewPointSource(t)
		srv := newTestServer(t, cfg, mockPoints, nil)

		req := httptest.NewRequest(http.MethodGet, "/api/points", nil)
		req.SetBasicAuth("ops", "wrong")
		rec := httptest.NewRecorder()

		srv.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("auth disabled when username empty", func(t *testing.T) {
		openCfg := *cfg
		openCfg.Username = ""
		openCfg.Password = ""

		mockPoints := mocks.NewPointSource(t)
		mockPoints.On("LoadPoints", mock.Anything).Return([]models.Point{}).Once()
		srv := newTestServer(t, &openCfg, mockPoints, nil)

		req := httptest.NewRequest(http.MethodGet, "/api/points", nil)
		rec := httptest.NewRecorder()

		srv.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestHandleHistory(t *testing.T) {
	defer filet.CleanUp(t)

	cfg := testConfig(t)

	t.Run("disabled without repository", func(t *testing.T) {
		mockPoints := mocks.NewPointSource(t)
		srv := newTestServer(t, cfg, mockPoints, nil)

		req := httptest.NewRequest(http.MethodGet, "/api/history", nil)
		req.SetBasicAuth("ops", "secret")
		rec := httptest.NewRecorder()

		srv.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("returns recent snapshots", func(t *testing.T) {
		mockPoints := mocks.NewPointSource(t)
		mockRepo := mocks.NewInterface(t)
		snapshots := []models.Snapshot{{
			LoadedAt:      time.Date(2025, 7, 1, 12, 0, 0, 0, time.UTC),
			SourceModTime: time.Date(2025, 7, 1, 11, 58, 0, 0, time.UTC),
			PointCount:    2,
			DroppedCount:  1,
		}}
		mockRepo.On("FetchRecentSnapshots", mock.Anything, 20).Return(snapshots, nil).Once()
		srv := newTestServer(t, cfg, mockPoints, mockRepo)

		req := httptest.NewRequest(http.MethodGet, "/api/history", nil)
		req.SetBasicAuth("ops", "secret")
		rec := httptest.NewRecorder()

		srv.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"PointCount":2`)
		mockRepo.AssertExpectations(t)
	})

	t.Run("repository error maps to 500", func(t *testing.T) {
		mockPoints := mocks.NewPointSource(t)
		mockRepo := mocks.NewInterface(t)
		mockRepo.On("FetchRecentSnapshots", mock.Anything, 20).Return(nil, assert.AnError).Once()
		srv := newTestServer(t, cfg, mockPoints, mockRepo)

		req := httptest.NewRequest(http.MethodGet, "/api/history", nil)
		req.SetBasicAuth("ops", "secret")
		rec := httptest.NewRecorder()

		srv.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		mockRepo.AssertExpectations(t)
	})
}

func TestHandleHealth(t *testing.T) {
	defer filet.CleanUp(t)

	t.Run("healthy when source file exists", func(t *testing.T) {
		cfg := testConfig(t)
		mockPoints := mocks.NewPointSource(t)
		srv := newTestServer(t, cfg, mockPoints, nil)

		req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
		rec := httptest.NewRecorder()

		srv.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "OK", rec.Body.String())
	})

	t.Run("unavailable when source file missing", func(t *testing.T) {
		cfg := testConfig(t)
		cfg.CSVPath = filepath.Join(cfg.StaticDir, "missing.csv")
		mockPoints := mocks.NewPointSource(t)
		srv := newTestServer(t, cfg, mockPoints, nil)

		req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
		rec := httptest.NewRecorder()

		srv.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})
}

func TestMetricsEndpoint(t *testing.T) {
	defer filet.CleanUp(t)

	cfg := testConfig(t)
	mockPoints := mocks.NewPointSource(t)
	srv := newTestServer(t, cfg, mockPoints, nil)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestStaticAssets(t *testing.T) {
	defer filet.CleanUp(t)

	cfg := testConfig(t)
	assetPath := filepath.Join(cfg.StaticDir, "map.html")
	require.NoError(t, os.WriteFile(assetPath, []byte("<html>pinmap</html>"), 0o600))

	mockPoints := mocks.NewPointSource(t)
	srv := newTestServer(t, cfg, mockPoints, nil)

	req := httptest.NewRequest(http.MethodGet, "/map.html", nil)
	req.SetBasicAuth("ops", "secret")
	rec := httptest.NewRecorder()

	srv.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "pinmap")
}
