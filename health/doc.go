// Package health reports whether cmdbridge can reach a backend.
//
// BridgeChecker inspects transport selection: healthy with a native bridge,
// degraded when only the HTTP fallback is configured, unhealthy when
// neither is. FallbackChecker probes the fallback server's /healthz.
//
// An Aggregator runs registered checkers in parallel and folds their
// results into one Status. LivenessHandler, ReadinessHandler and
// DetailedHandler expose the results over HTTP:
//
//	agg := health.NewAggregator()
//	agg.Register("bridge", health.NewBridgeChecker(selector))
//	agg.Register("fallback", health.NewFallbackChecker(client))
//
//	r := mux.NewRouter()
//	health.RegisterHandlers(r, agg)
package health
