// Package metrics records deploy run observations.
//
// Components receive a Recorder through dependency injection and default to
// NoopRecorder, so no call site needs nil checks. PrometheusRecorder backs the
// interface with client_golang collectors that can be scraped over HTTP
// (daemon mode) or exported to a node_exporter textfile after a one-shot run.
package metrics
