// Package metrics records scan run statistics as Prometheus metrics.
//
// embedleak is a batch tool, so metrics are not served over HTTP. They are
// written in the text exposition format to a file that the node_exporter
// textfile collector can pick up.
package metrics
