// Package devtools wires the reactive scheduler and the patch engine into
// observability backends: Prometheus metrics, OpenTelemetry spans, and a
// WebSocket stream of live patch edits for inspectors.
package devtools
