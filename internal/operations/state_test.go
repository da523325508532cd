package operations

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finhealth/pkg/contracts/domain"
)

func fptr(v float64) *float64 { return &v }

func TestReduceAnalyzeDispatch(t *testing.T) {
	s := InitialState()
	s.Error = ErrorMessage{Text: "previous"}

	next, applied := Reduce(s, Dispatched{Kind: KindAnalyze, Token: 1}, ReduceOptions{})

	assert.True(t, applied)
	assert.True(t, next.Loading)
	assert.True(t, next.Error.IsZero(), "dispatch clears the previous error")
	assert.Equal(t, PhasePending, next.Analyze.Phase)
	assert.Equal(t, 1, next.Analyze.InFlight)
	assert.Equal(t, uint64(1), next.LatestToken)
	assert.Equal(t, uint64(0), next.Version, "Reduce does not version")
}

func TestReduceIntegrationsDispatchLeavesLoadingAndError(t *testing.T) {
	s := InitialState()
	s.Error = ErrorMessage{Key: "analysisFailed"}

	next, applied := Reduce(s, Dispatched{Kind: KindIntegrations, Token: 4}, ReduceOptions{})

	assert.True(t, applied)
	assert.False(t, next.Loading)
	assert.Equal(t, ErrorMessage{Key: "analysisFailed"}, next.Error)
	assert.Equal(t, PhasePending, next.Integration.Phase)
	assert.Equal(t, uint64(0), next.LatestToken, "integration tokens do not move the analyze token")
}

func TestReduceAnalysisSucceededReplacesResult(t *testing.T) {
	old := &domain.AnalysisResult{Revenue: fptr(1), Flags: []string{"old"}}
	fresh := &domain.AnalysisResult{Revenue: fptr(2)}

	s := InitialState()
	s.Result = old
	s, _ = Reduce(s, Dispatched{Kind: KindAnalyze, Token: 1}, ReduceOptions{})
	s, applied := Reduce(s, AnalysisSucceeded{Token: 1, Result: fresh}, ReduceOptions{})

	assert.True(t, applied)
	assert.Same(t, fresh, s.Result)
	assert.Nil(t, s.Result.Flags, "no field-level merge with the previous result")
	assert.False(t, s.Loading)
	assert.Equal(t, PhaseSucceeded, s.Analyze.Phase)
	assert.Equal(t, 0, s.Analyze.InFlight)
}

func TestReduceAnalysisFailedKeepsResult(t *testing.T) {
	old := &domain.AnalysisResult{Revenue: fptr(1)}

	s := InitialState()
	s.Result = old
	s, _ = Reduce(s, Dispatched{Kind: KindAnalyze, Token: 1}, ReduceOptions{})
	s, applied := Reduce(s, AnalysisFailed{Token: 1, Message: ErrorMessage{Text: "Bad file"}}, ReduceOptions{})

	assert.True(t, applied)
	assert.Same(t, old, s.Result)
	assert.Equal(t, "Bad file", s.Error.Text)
	assert.False(t, s.Loading)
	assert.Equal(t, PhaseFailed, s.Analyze.Phase)
}

func TestReduceLastCompletionWinsWithoutGuard(t *testing.T) {
	first := &domain.AnalysisResult{Revenue: fptr(1)}
	second := &domain.AnalysisResult{Revenue: fptr(2)}

	s := InitialState()
	s, _ = Reduce(s, Dispatched{Kind: KindAnalyze, Token: 1}, ReduceOptions{})
	s, _ = Reduce(s, Dispatched{Kind: KindAnalyze, Token: 2}, ReduceOptions{})

	// The newer call resolves first
	s, _ = Reduce(s, AnalysisSucceeded{Token: 2, Result: second}, ReduceOptions{})
	assert.False(t, s.Loading, "any completion lowers loading")
	assert.Equal(t, PhasePending, s.Analyze.Phase, "one call still in flight")

	s, applied := Reduce(s, AnalysisSucceeded{Token: 1, Result: first}, ReduceOptions{})
	assert.True(t, applied)
	assert.Same(t, first, s.Result, "the stale response overwrites the fresher one")
	assert.Equal(t, PhaseSucceeded, s.Analyze.Phase)
	assert.Equal(t, 0, s.Analyze.InFlight)
}

func TestReduceStaleGuard(t *testing.T) {
	opts := ReduceOptions{DiscardStale: true}
	first := &domain.AnalysisResult{Revenue: fptr(1)}
	second := &domain.AnalysisResult{Revenue: fptr(2)}

	s := InitialState()
	s, _ = Reduce(s, Dispatched{Kind: KindAnalyze, Token: 1}, opts)
	s, applied := Reduce(s, AnalysisSucceeded{Token: 1, Result: first}, opts)
	require.True(t, applied, "the latest dispatch always commits")
	require.Same(t, first, s.Result)

	s, _ = Reduce(s, Dispatched{Kind: KindAnalyze, Token: 2}, opts)
	s, _ = Reduce(s, Dispatched{Kind: KindAnalyze, Token: 3}, opts)
	s, _ = Reduce(s, AnalysisSucceeded{Token: 3, Result: second}, opts)
	require.Same(t, second, s.Result)

	before := s
	s, applied = Reduce(s, AnalysisFailed{Token: 2, Message: ErrorMessage{Text: "late"}}, opts)

	assert.False(t, applied)
	assert.Same(t, second, s.Result)
	assert.True(t, s.Error.IsZero())
	assert.Equal(t, before.Loading, s.Loading)
	assert.Equal(t, PhaseSucceeded, s.Analyze.Phase, "the latest outcome is kept once nothing is in flight")
	assert.Equal(t, 0, s.Analyze.InFlight)
}

func TestReduceStaleGuardWhileLatestPending(t *testing.T) {
	opts := ReduceOptions{DiscardStale: true}

	s := InitialState()
	s, _ = Reduce(s, Dispatched{Kind: KindAnalyze, Token: 1}, opts)
	s, _ = Reduce(s, Dispatched{Kind: KindAnalyze, Token: 2}, opts)
	s, applied := Reduce(s, AnalysisSucceeded{Token: 1, Result: &domain.AnalysisResult{}}, opts)

	assert.False(t, applied)
	assert.Nil(t, s.Result)
	assert.True(t, s.Loading, "the latest call is still pending")
	assert.Equal(t, PhasePending, s.Analyze.Phase)
	assert.Equal(t, 1, s.Analyze.InFlight)
}

func TestReduceIntegrations(t *testing.T) {
	snapshot := domain.IntegrationSnapshot{BankA: []byte(`{"a":1}`), BankB: []byte(`{"b":2}`)}

	t.Run("loaded replaces both", func(t *testing.T) {
		s := InitialState()
		s.Integrations = domain.IntegrationSnapshot{BankA: []byte(`{"old":true}`), BankB: []byte(`{"old":true}`)}
		s, _ = Reduce(s, Dispatched{Kind: KindIntegrations, Token: 1}, ReduceOptions{})
		s, applied := Reduce(s, IntegrationsLoaded{Snapshot: snapshot}, ReduceOptions{})

		assert.True(t, applied)
		assert.Equal(t, snapshot, s.Integrations)
		assert.Equal(t, PhaseSucceeded, s.Integration.Phase)
	})

	t.Run("failed keeps both and sets error", func(t *testing.T) {
		s := InitialState()
		s.Integrations = snapshot
		s, _ = Reduce(s, Dispatched{Kind: KindIntegrations, Token: 1}, ReduceOptions{})
		s, applied := Reduce(s, IntegrationsFailed{Message: ErrorMessage{Key: "integrationsFailed"}}, ReduceOptions{})

		assert.True(t, applied)
		assert.Equal(t, snapshot, s.Integrations)
		assert.Equal(t, "integrationsFailed", s.Error.Key)
		assert.False(t, s.Loading)
		assert.Equal(t, PhaseFailed, s.Integration.Phase)
	})

	t.Run("completion leaves analyze loading alone", func(t *testing.T) {
		s := InitialState()
		s, _ = Reduce(s, Dispatched{Kind: KindAnalyze, Token: 1}, ReduceOptions{})
		s, _ = Reduce(s, Dispatched{Kind: KindIntegrations, Token: 2}, ReduceOptions{})
		s, _ = Reduce(s, IntegrationsLoaded{Snapshot: snapshot}, ReduceOptions{})

		assert.True(t, s.Loading)
		assert.Equal(t, PhasePending, s.Analyze.Phase)
	})
}

func TestReduceUnknownEvent(t *testing.T) {
	s := InitialState()
	next, applied := Reduce(s, Dispatched{Kind: "bogus"}, ReduceOptions{})
	assert.False(t, applied)
	assert.Equal(t, s, next)
}

func TestErrorMessageResolve(t *testing.T) {
	lookup := func(key string) string { return "translated:" + key }

	assert.Equal(t, "", ErrorMessage{}.Resolve(lookup))
	assert.Equal(t, "server says no", ErrorMessage{Text: "server says no"}.Resolve(lookup))
	assert.Equal(t, "translated:analysisFailed", ErrorMessage{Key: "analysisFailed"}.Resolve(lookup))
	assert.Equal(t, "", ErrorMessage{Key: "analysisFailed"}.Resolve(nil))
}
