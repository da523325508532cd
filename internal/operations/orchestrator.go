package operations

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"finhealth/internal/infrastructure"
	"finhealth/internal/locale"
	"finhealth/internal/scoring"
	"finhealth/pkg/contracts/domain"
)

// ScoringService is the remote collaborator used by the orchestrator
type ScoringService interface {
	AnalyzeFile(ctx context.Context, file *domain.Upload, industry domain.Industry, apiKey string) (*domain.AnalysisResult, error)
	AnalyzeRecords(ctx context.Context, records []domain.RecordRow, industry domain.Industry, apiKey string) (*domain.AnalysisResult, error)
	BankA(ctx context.Context, apiKey string) (json.RawMessage, error)
	BankB(ctx context.Context, apiKey string) (json.RawMessage, error)
}

// Orchestrator issues the console's remote operations and folds their outcomes
// into the store. Calls are never cancelled; a later completion overwrites an
// earlier one unless the store discards stale completions.
type Orchestrator struct {
	store   *Store
	scoring ScoringService
	logger  *slog.Logger
	metrics *infrastructure.BusinessMetrics
	tracer  trace.Tracer
	wg      sync.WaitGroup
}

// NewOrchestrator creates an orchestrator
func NewOrchestrator(store *Store, scoringService ScoringService, logger *slog.Logger, metrics *infrastructure.BusinessMetrics) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		store:   store,
		scoring: scoringService,
		logger:  infrastructure.WithComponent(logger, "orchestrator"),
		metrics: metrics,
		tracer:  otel.Tracer("finhealth/operations"),
	}
}

// Store returns the state store the orchestrator commits to
func (o *Orchestrator) Store() *Store {
	return o.store
}

// SubmitFile analyzes an uploaded statement. A nil file returns ErrRequestSkipped
// without dispatching or touching state.
func (o *Orchestrator) SubmitFile(ctx context.Context, file *domain.Upload, industry domain.Industry, apiKey string) error {
	if file == nil {
		o.logger.DebugContext(ctx, "File submission skipped: no file selected")
		return ErrRequestSkipped
	}
	industry, err := normalizeIndustry(industry)
	if err != nil {
		return err
	}

	req := domain.NewFileRequest(file, industry, apiKey)
	o.dispatchAnalysis(ctx, req, func(ctx context.Context) (*domain.AnalysisResult, error) {
		return o.scoring.AnalyzeFile(ctx, req.File, req.Industry, req.APIKey)
	})
	return nil
}

// SubmitSample analyzes the built-in sample records. It always dispatches.
func (o *Orchestrator) SubmitSample(ctx context.Context, industry domain.Industry, apiKey string) error {
	return o.SubmitRecords(ctx, domain.SampleRecords(), industry, apiKey)
}

// SubmitRecords analyzes the given records as JSON
func (o *Orchestrator) SubmitRecords(ctx context.Context, records []domain.RecordRow, industry domain.Industry, apiKey string) error {
	industry, err := normalizeIndustry(industry)
	if err != nil {
		return err
	}

	req := domain.NewSampleRequest(records, industry, apiKey)
	o.dispatchAnalysis(ctx, req, func(ctx context.Context) (*domain.AnalysisResult, error) {
		return o.scoring.AnalyzeRecords(ctx, req.Records, req.Industry, req.APIKey)
	})
	return nil
}

// FetchIntegrations loads both banking documents concurrently. Both are stored
// together or, if either call fails, neither is and the integration error is set.
func (o *Orchestrator) FetchIntegrations(ctx context.Context, apiKey string) error {
	ctx, logger := o.detach(ctx, KindIntegrations)
	token := o.store.Dispatch(ctx, KindIntegrations)
	infrastructure.RecordDispatchChange(ctx, o.metrics, 1, string(KindIntegrations))

	logger.InfoContext(ctx, "Integrations dispatched", slog.Uint64("token", token))

	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		defer infrastructure.RecordDispatchChange(ctx, o.metrics, -1, string(KindIntegrations))

		ctx, span := o.tracer.Start(ctx, "operations.fetch_integrations",
			trace.WithAttributes(attribute.Int64("dispatch.token", int64(token))))
		defer span.End()

		start := time.Now()
		docs, err := Join2(ctx,
			func(ctx context.Context) (json.RawMessage, error) { return o.scoring.BankA(ctx, apiKey) },
			func(ctx context.Context) (json.RawMessage, error) { return o.scoring.BankB(ctx, apiKey) },
		)
		if err != nil {
			infrastructure.RecordError(ctx, err)
			logger.WarnContext(ctx, "Integrations failed",
				slog.String("error", err.Error()),
				slog.Duration("duration", time.Since(start)))
			o.store.Commit(ctx, IntegrationsFailed{Message: ErrorMessage{Key: locale.KeyIntegrationsFailed}})
			return
		}

		logger.InfoContext(ctx, "Integrations loaded", slog.Duration("duration", time.Since(start)))
		o.store.Commit(ctx, IntegrationsLoaded{Snapshot: domain.IntegrationSnapshot{
			BankA: docs.First,
			BankB: docs.Second,
		}})
	}()

	return nil
}

// Wait blocks until every dispatched call has completed or ctx is done
func (o *Orchestrator) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		o.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (o *Orchestrator) dispatchAnalysis(ctx context.Context, req domain.AnalysisRequest, call func(context.Context) (*domain.AnalysisResult, error)) {
	ctx, logger := o.detach(ctx, KindAnalyze)
	token := o.store.Dispatch(ctx, KindAnalyze)
	infrastructure.RecordDispatchChange(ctx, o.metrics, 1, string(KindAnalyze))

	logger = logger.With(slog.Uint64("token", token), slog.String("request_kind", string(req.Kind)))
	logger.InfoContext(ctx, "Analysis dispatched", slog.String("industry", string(req.Industry)))

	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		defer infrastructure.RecordDispatchChange(ctx, o.metrics, -1, string(KindAnalyze))

		ctx, span := o.tracer.Start(ctx, "operations.analyze",
			trace.WithAttributes(
				attribute.String("request.kind", string(req.Kind)),
				attribute.String("industry", string(req.Industry)),
				attribute.Int64("dispatch.token", int64(token)),
			))
		defer span.End()

		start := time.Now()
		result, err := call(ctx)
		if err != nil {
			infrastructure.RecordError(ctx, err)
			msg := ErrorMessage{Key: locale.KeyAnalysisFailed}
			if detail := scoring.DetailOf(err); detail != "" {
				msg = ErrorMessage{Text: detail}
			}
			_, applied := o.store.Commit(ctx, AnalysisFailed{Token: token, Message: msg})
			logger.WarnContext(ctx, "Analysis failed",
				slog.String("error", err.Error()),
				slog.Bool("applied", applied),
				slog.Duration("duration", time.Since(start)))
			return
		}

		_, applied := o.store.Commit(ctx, AnalysisSucceeded{Token: token, Result: result})
		logger.InfoContext(ctx, "Analysis completed",
			slog.Bool("applied", applied),
			slog.Duration("duration", time.Since(start)))
	}()
}

// detach returns a context that outlives the triggering request and a logger
// tagged with a fresh dispatch ID
func (o *Orchestrator) detach(ctx context.Context, kind Kind) (context.Context, *slog.Logger) {
	ctx = infrastructure.EnsureTraceID(infrastructure.DetachedContext(ctx))
	logger := o.logger.With(
		slog.String("dispatch_id", uuid.NewString()),
		slog.String("kind", string(kind)),
	)
	return ctx, logger
}

func normalizeIndustry(industry domain.Industry) (domain.Industry, error) {
	if industry == "" {
		return domain.DefaultIndustry, nil
	}
	if !industry.Valid() {
		return "", ErrInvalidIndustry
	}
	return industry, nil
}
