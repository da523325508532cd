package operations

import (
	"finhealth/pkg/contracts/domain"
)

// Kind identifies one of the orchestrated operation families
type Kind string

const (
	// KindAnalyze covers both file and sample analysis; they share the loading flag
	KindAnalyze Kind = "analyze"
	// KindIntegrations is the joined pair of banking calls
	KindIntegrations Kind = "integrations"
)

// Phase is the lifecycle position of an operation kind
type Phase string

const (
	PhaseIdle      Phase = "idle"
	PhasePending   Phase = "pending"
	PhaseSucceeded Phase = "succeeded"
	PhaseFailed    Phase = "failed"
)

// OperationStatus tracks one operation kind. Succeeded and failed are idle phases that
// remember the last outcome; the phase stays pending while any dispatch is unresolved.
type OperationStatus struct {
	Phase    Phase `json:"phase"`
	InFlight int   `json:"in_flight"`
	// Outcome is the last applied completion, empty before the first one
	Outcome Phase `json:"outcome,omitempty"`
}

func (s OperationStatus) dispatched() OperationStatus {
	s.InFlight++
	s.Phase = PhasePending
	return s
}

// resolved releases one in-flight slot. An empty outcome releases the slot without
// recording a result.
func (s OperationStatus) resolved(outcome Phase) OperationStatus {
	if s.InFlight > 0 {
		s.InFlight--
	}
	if outcome != "" {
		s.Outcome = outcome
	}
	switch {
	case s.InFlight > 0:
		s.Phase = PhasePending
	case s.Outcome != "":
		s.Phase = s.Outcome
	default:
		s.Phase = PhaseIdle
	}
	return s
}

// ErrorMessage is the content of the shared error slot. Server-supplied text is kept
// verbatim; generic failures are stored as a locale key and translated at render time.
type ErrorMessage struct {
	Text string `json:"text,omitempty"`
	Key  string `json:"key,omitempty"`
}

// IsZero reports whether the slot is empty
func (m ErrorMessage) IsZero() bool {
	return m.Text == "" && m.Key == ""
}

// Resolve renders the message with the given key lookup
func (m ErrorMessage) Resolve(lookup func(key string) string) string {
	if m.Text != "" {
		return m.Text
	}
	if m.Key != "" && lookup != nil {
		return lookup(m.Key)
	}
	return ""
}

// State is the process-wide console state. A State value is a snapshot: the store
// never mutates a snapshot after handing it out.
type State struct {
	Version      uint64                     `json:"version"`
	Loading      bool                       `json:"loading"`
	Error        ErrorMessage               `json:"error"`
	Result       *domain.AnalysisResult     `json:"result,omitempty"`
	Integrations domain.IntegrationSnapshot `json:"integrations"`
	Analyze      OperationStatus            `json:"analyze"`
	Integration  OperationStatus            `json:"integration"`
	// LatestToken is the token of the most recent analyze dispatch
	LatestToken uint64 `json:"latest_token"`
}

// InitialState is the state of a freshly started console
func InitialState() State {
	return State{
		Analyze:     OperationStatus{Phase: PhaseIdle},
		Integration: OperationStatus{Phase: PhaseIdle},
	}
}

// Event is a state transition folded by Reduce
type Event interface {
	EventName() string
}

// Dispatched is emitted when an operation is issued
type Dispatched struct {
	Kind  Kind
	Token uint64
}

// AnalysisSucceeded carries a result that replaces the stored one wholesale
type AnalysisSucceeded struct {
	Token  uint64
	Result *domain.AnalysisResult
}

// AnalysisFailed carries the message for the error slot
type AnalysisFailed struct {
	Token   uint64
	Message ErrorMessage
}

// IntegrationsLoaded carries both banking documents
type IntegrationsLoaded struct {
	Snapshot domain.IntegrationSnapshot
}

// IntegrationsFailed is emitted when either banking call failed
type IntegrationsFailed struct {
	Message ErrorMessage
}

func (Dispatched) EventName() string         { return "dispatched" }
func (AnalysisSucceeded) EventName() string  { return "analysis_succeeded" }
func (AnalysisFailed) EventName() string     { return "analysis_failed" }
func (IntegrationsLoaded) EventName() string { return "integrations_loaded" }
func (IntegrationsFailed) EventName() string { return "integrations_failed" }

// ReduceOptions alters how completions are folded
type ReduceOptions struct {
	// DiscardStale drops analyze completions whose token is not the latest dispatch
	DiscardStale bool
}

// Reduce folds e into s. It returns the next state and whether the event was applied.
// A discarded stale completion only releases its in-flight slot; nothing visible changes.
// Reduce never bumps the version; the store does that for applied events.
func Reduce(s State, e Event, opts ReduceOptions) (State, bool) {
	switch ev := e.(type) {
	case Dispatched:
		switch ev.Kind {
		case KindAnalyze:
			s.Analyze = s.Analyze.dispatched()
			s.Loading = true
			s.Error = ErrorMessage{}
			if ev.Token > s.LatestToken {
				s.LatestToken = ev.Token
			}
		case KindIntegrations:
			// Integrations neither raise loading nor clear a previous error
			s.Integration = s.Integration.dispatched()
		default:
			return s, false
		}
		return s, true

	case AnalysisSucceeded:
		if opts.DiscardStale && ev.Token != s.LatestToken {
			s.Analyze = s.Analyze.resolved("")
			return s, false
		}
		s.Analyze = s.Analyze.resolved(PhaseSucceeded)
		s.Loading = false
		s.Result = ev.Result
		return s, true

	case AnalysisFailed:
		if opts.DiscardStale && ev.Token != s.LatestToken {
			s.Analyze = s.Analyze.resolved("")
			return s, false
		}
		s.Analyze = s.Analyze.resolved(PhaseFailed)
		s.Loading = false
		s.Error = ev.Message
		return s, true

	case IntegrationsLoaded:
		s.Integration = s.Integration.resolved(PhaseSucceeded)
		s.Integrations = ev.Snapshot
		return s, true

	case IntegrationsFailed:
		s.Integration = s.Integration.resolved(PhaseFailed)
		s.Error = ev.Message
		return s, true
	}

	return s, false
}
