// Package otel exports authforge engine metrics as OpenTelemetry observable
// instruments. Counters register as observable counters and the validation
// latency histogram as per-bucket observable gauges, all fed from engine
// snapshots inside one registered callback.
package otel
