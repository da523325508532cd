// Package operations owns the console state and the three remote operations that
// change it: file analysis, sample analysis and the banking integrations fetch.
//
// State changes are events folded by the pure Reduce function. The Store applies
// them one at a time and publishes every committed snapshot to its subscribers.
// The Orchestrator runs each remote call on its own goroutine with a context that
// is never cancelled, then commits the outcome.
//
//	store := operations.NewStore(operations.StoreOptions{Logger: logger})
//	orch := operations.NewOrchestrator(store, scoringClient, logger, metrics)
//	_ = orch.SubmitSample(ctx, domain.IndustryServices, "dev-key")
package operations
