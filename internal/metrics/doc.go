// Package metrics provides observability hooks for site builds.
//
// The build orchestrator reports through the Recorder interface so metrics
// stay optional: NoopRecorder is the default and does nothing, and the
// Prometheus implementation is injected only when a caller (the dev server's
// --metrics flag) asks for it. Components never nil-check their recorder.
package metrics
