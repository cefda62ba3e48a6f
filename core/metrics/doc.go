// Package metrics defines the sink contract for recording fleet dispatch
// activity. Sinks like PromSink and InfluxSink record transitions,
// rejections and conflicts and can be combined with NewMultiSink. The
// factory helpers return a MultiSink automatically when multiple sinks are
// configured.
package metrics
