package performance

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finhealth/internal/app"
	"finhealth/internal/config"
	"finhealth/internal/presenter"
	"finhealth/internal/shared/testutil"
)

// Performance test configuration
const (
	MaxLatency       = 250 * time.Millisecond
	RequestsPerLevel = 200
)

var ConcurrencyLevels = []int{1, 10, 50}

// PerformanceTestSuite runs the whole console behind an httptest server
type PerformanceTestSuite struct {
	app     *app.Application
	scoring *testutil.ScoringServer
	server  *httptest.Server
}

func setupPerformanceTest(tb testing.TB) *PerformanceTestSuite {
	tb.Helper()

	scoring := testutil.NewScoringServer(tb)

	cfg := config.Default()
	cfg.Scoring.BaseURL = scoring.URL
	cfg.Security.RateLimit.Enabled = false

	a, err := app.New(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(tb, err)

	suite := &PerformanceTestSuite{
		app:     a,
		scoring: scoring,
		server:  httptest.NewServer(a.Router),
	}
	tb.Cleanup(suite.server.Close)
	return suite
}

func (s *PerformanceTestSuite) waitIdle(tb testing.TB) {
	tb.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	require.NoError(tb, s.app.Services.Orchestrator.Wait(ctx))
}

func (s *PerformanceTestSuite) post(path, body string) (*http.Response, error) {
	return http.Post(s.server.URL+path, "application/json", strings.NewReader(body))
}

// runConcurrent issues total requests from workers goroutines and returns each latency
func runConcurrent(workers, total int, do func() (int, error)) (latencies []time.Duration, failures int64) {
	var (
		mu     sync.Mutex
		failed atomic.Int64
		wg     sync.WaitGroup
		next   atomic.Int64
	)

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for next.Add(1) <= int64(total) {
				start := time.Now()
				status, err := do()
				elapsed := time.Since(start)
				if err != nil || status >= 400 {
					failed.Add(1)
				}
				mu.Lock()
				latencies = append(latencies, elapsed)
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	return latencies, failed.Load()
}

func percentile(latencies []time.Duration, p float64) time.Duration {
	if len(latencies) == 0 {
		return 0
	}
	sorted := append([]time.Duration(nil), latencies...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	idx := int(float64(len(sorted)-1) * p)
	return sorted[idx]
}

func TestStateReadLatency(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping performance test in short mode")
	}
	suite := setupPerformanceTest(t)

	for _, workers := range ConcurrencyLevels {
		t.Run(fmt.Sprintf("workers_%d", workers), func(t *testing.T) {
			latencies, failures := runConcurrent(workers, RequestsPerLevel, func() (int, error) {
				resp, err := http.Get(suite.server.URL + "/api/state")
				if err != nil {
					return 0, err
				}
				_, _ = io.Copy(io.Discard, resp.Body)
				resp.Body.Close()
				return resp.StatusCode, nil
			})

			require.Len(t, latencies, RequestsPerLevel)
			assert.Zero(t, failures)

			p95 := percentile(latencies, 0.95)
			t.Logf("workers=%d p50=%s p95=%s", workers, percentile(latencies, 0.5), p95)
			assert.Less(t, p95, MaxLatency)
		})
	}
}

func TestConcurrentActionsConverge(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping performance test in short mode")
	}
	suite := setupPerformanceTest(t)

	const actions = 40
	_, failures := runConcurrent(10, actions, func() (int, error) {
		resp, err := suite.post("/api/actions/sample", `{"industry":"Retail"}`)
		if err != nil {
			return 0, err
		}
		resp.Body.Close()
		return resp.StatusCode, nil
	})
	require.Zero(t, failures)
	suite.waitIdle(t)

	state := suite.app.Services.State.Snapshot()
	assert.Equal(t, uint64(2*actions), state.Version, "every dispatch and completion commits once")
	assert.False(t, state.Loading)
	assert.Len(t, suite.scoring.RequestsTo(http.MethodPost, "/analyze-json"), actions)
}

func TestMixedLoadKeepsPageServing(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping performance test in short mode")
	}
	suite := setupPerformanceTest(t)

	var counter atomic.Int64
	latencies, failures := runConcurrent(20, RequestsPerLevel, func() (int, error) {
		var (
			resp *http.Response
			err  error
		)
		switch counter.Add(1) % 4 {
		case 0:
			resp, err = suite.post("/api/actions/sample", `{}`)
		case 1:
			resp, err = suite.post("/api/actions/integrations", `{}`)
		case 2:
			resp, err = http.Get(suite.server.URL + "/api/health")
		default:
			resp, err = http.Get(suite.server.URL + "/")
		}
		if err != nil {
			return 0, err
		}
		_, _ = io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
		return resp.StatusCode, nil
	})
	suite.waitIdle(t)

	assert.Zero(t, failures)
	t.Logf("mixed p95=%s", percentile(latencies, 0.95))
	assert.False(t, suite.app.Services.State.Snapshot().Loading)
}

func BenchmarkStateSnapshot(b *testing.B) {
	suite := setupPerformanceTest(b)

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			_ = suite.app.Services.State.Snapshot()
		}
	})
}

func BenchmarkPresent(b *testing.B) {
	suite := setupPerformanceTest(b)
	resp, err := suite.post("/api/actions/sample", `{}`)
	require.NoError(b, err)
	resp.Body.Close()
	suite.waitIdle(b)

	state := suite.app.Services.State.Snapshot()
	catalog := suite.app.Services.Locales.Active()

	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		_ = suite.app.Services.Presenter.Present(state, catalog)
	}
}

func BenchmarkRiskGauge(b *testing.B) {
	for i := 0; i < b.N; i++ {
		_ = presenter.RiskGauge(float64(i % 101))
	}
}

func BenchmarkConsolePage(b *testing.B) {
	suite := setupPerformanceTest(b)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		rec := httptest.NewRecorder()
		suite.app.Router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		if rec.Code != http.StatusOK {
			b.Fatalf("unexpected status %d", rec.Code)
		}
	}
}
