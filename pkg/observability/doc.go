/*
Package observability turns interpreter lifecycle events into Prometheus
metrics and structured log lines.

Both are exposed as domain.LifecycleHooks so they can be merged and handed
to the interpreter and router without either knowing about metrics.
*/
package observability
