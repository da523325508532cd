// Package services holds the console's supporting services that sit between
// the HTTP handlers and the core components.
//
// HealthService answers the liveness, readiness and version probes. Readiness
// inspects the locale store, the scoring endpoint resolver, the state store and
// the websocket hub without calling the scoring service.
//
// Services take their dependencies and a *slog.Logger through the constructor:
//
//	health := services.NewHealthService(locales, resolver, store, hub, logger)
//	status := health.ReadinessCheck(ctx)
package services
