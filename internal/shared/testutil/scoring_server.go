package testutil

import (
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
)

// ServicesResultJSON is the scoring result for the built-in sample with industry Services
const ServicesResultJSON = `{
  "revenue": 255000,
  "expenses": 188000,
  "net_margin": 0.2627,
  "net_cashflow": 63000,
  "current_ratio": 1.8,
  "dso_days": 34.2,
  "creditworthiness": "Good",
  "risk_score": 22,
  "benchmarks": {"net_margin": 0.18, "current_ratio": 1.5, "dso_days": 45},
  "flags": [],
  "recommendations": ["Maintain current AR cycle"]
}`

// FullResultJSON carries every optional section
const FullResultJSON = `{
  "industry": "Retail",
  "revenue": 1234567.891,
  "expenses": 1000000,
  "net_income": 234567.891,
  "net_margin": 0.153,
  "net_cashflow": -4200,
  "current_ratio": 1.234,
  "dso_days": 41.25,
  "dscr": 1.7,
  "creditworthiness": "Fair",
  "risk_score": 48,
  "benchmarks": {"net_margin": 0.07, "current_ratio": 1.2, "dso_days": 30},
  "flags": ["Low liquidity", "High receivables"],
  "recommendations": ["Tighten collections", "Negotiate supplier terms"],
  "default_probability": 42.5,
  "credit_risk_factors": ["Thin margin", "Rising debt"],
  "forecast": {
    "revenue": [130000, 132500.5, null],
    "expenses": [100000, 101000, 102000],
    "net_margin": [0.2308, 0.2377, 0.2411]
  },
  "scenarios": {
    "optimistic": {"revenue": 150000, "expenses": 100000, "net_margin": 0.3333},
    "base": {"revenue": 130000, "expenses": 100000, "net_margin": 0.2308},
    "pessimistic": {"revenue": 110000, "expenses": 105000, "net_margin": null}
  },
  "anomalies": ["Expense spike in period 2"]
}`

// BankAJSON and BankBJSON are integration documents returned by the fake server
const (
	BankAJSON = `{"bank":"A","balance":152340.5,"transactions":[{"amount":-1200,"memo":"Rent"}]}`
	BankBJSON = `{"bank":"B","balance":88000,"credit_line":{"limit":50000,"used":12000}}`
)

// RecordedRequest is a request received by the fake scoring server
type RecordedRequest struct {
	Method      string
	Path        string
	Query       url.Values
	Header      http.Header
	ContentType string
	Body        []byte
}

// ScoringServer is an httptest scoring service with replaceable routes
type ScoringServer struct {
	*httptest.Server

	mu       sync.Mutex
	requests []RecordedRequest
	handlers map[string]http.HandlerFunc
}

// NewScoringServer starts a fake scoring service answering every route with a canned
// success. It is closed when the test ends.
func NewScoringServer(t testing.TB) *ScoringServer {
	t.Helper()

	s := &ScoringServer{
		handlers: map[string]http.HandlerFunc{
			"POST /analyze":            RespondJSON(http.StatusOK, ServicesResultJSON),
			"POST /analyze-json":       RespondJSON(http.StatusOK, ServicesResultJSON),
			"GET /integrations/bank-a": RespondJSON(http.StatusOK, BankAJSON),
			"GET /integrations/bank-b": RespondJSON(http.StatusOK, BankBJSON),
		},
	}

	r := chi.NewRouter()
	r.Post("/analyze", s.route("POST /analyze"))
	r.Post("/analyze-json", s.route("POST /analyze-json"))
	r.Get("/integrations/bank-a", s.route("GET /integrations/bank-a"))
	r.Get("/integrations/bank-b", s.route("GET /integrations/bank-b"))

	s.Server = httptest.NewServer(r)
	t.Cleanup(s.Close)
	return s
}

// Handle replaces the handler of a route such as "POST /analyze-json"
func (s *ScoringServer) Handle(route string, h http.HandlerFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers[route] = h
}

// Requests returns every request received so far
func (s *ScoringServer) Requests() []RecordedRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]RecordedRequest, len(s.requests))
	copy(out, s.requests)
	return out
}

// RequestsTo returns the requests received on one route
func (s *ScoringServer) RequestsTo(method, path string) []RecordedRequest {
	var out []RecordedRequest
	for _, r := range s.Requests() {
		if r.Method == method && r.Path == path {
			out = append(out, r)
		}
	}
	return out
}

func (s *ScoringServer) route(key string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)

		s.mu.Lock()
		s.requests = append(s.requests, RecordedRequest{
			Method:      r.Method,
			Path:        r.URL.Path,
			Query:       r.URL.Query(),
			Header:      r.Header.Clone(),
			ContentType: r.Header.Get("Content-Type"),
			Body:        body,
		})
		h := s.handlers[key]
		s.mu.Unlock()

		h(w, r)
	}
}

// RespondJSON answers with a fixed status and JSON body
func RespondJSON(status int, body string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}
}

// Gate holds requests until released, for ordering completions in tests
type Gate struct {
	entered chan struct{}
	release chan struct{}
	once    sync.Once
}

// NewGate creates a closed gate
func NewGate() *Gate {
	return &Gate{
		entered: make(chan struct{}, 16),
		release: make(chan struct{}),
	}
}

// Wrap returns a handler that blocks until Open, then delegates to next
func (g *Gate) Wrap(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		g.entered <- struct{}{}
		select {
		case <-g.release:
		case <-r.Context().Done():
			return
		}
		next(w, r)
	}
}

// WaitEntered blocks until a request reached the gate or the timeout expires
func (g *Gate) WaitEntered(t *testing.T, timeout time.Duration) {
	t.Helper()
	select {
	case <-g.entered:
	case <-time.After(timeout):
		t.Fatalf("no request reached the gate within %s", timeout)
	}
}

// Open lets every held and future request through
func (g *Gate) Open() {
	g.once.Do(func() { close(g.release) })
}
