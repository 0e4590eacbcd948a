// Package metrics exposes Prometheus counters for the recognition pipeline.
//
// Each Metrics value owns its registry so tests and multiple sessions never
// collide on the default registerer.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "mudra"

// Decision outcomes recorded by Decisions.
const (
	DecisionAccepted  = "accepted"
	DecisionDebounced = "debounced"
	DecisionDuplicate = "duplicate"
	DecisionIgnored   = "ignored"
)

// Speech results recorded by Speech.
const (
	SpeechSpoken   = "spoken"
	SpeechCooldown = "cooldown"
	SpeechMuted    = "muted"
	SpeechBusy     = "busy"
	SpeechFailed   = "failed"
)

// Metrics holds the pipeline instruments.
type Metrics struct {
	registry *prometheus.Registry

	// Frames counts frames applied to the pipeline stage.
	Frames prometheus.Counter

	// StaleResults counts frames or classifier results dropped as out of order.
	StaleResults prometheus.Counter

	// ClassifierErrors counts detector failures. Label: classifier.
	ClassifierErrors *prometheus.CounterVec

	// Fused counts fused per-frame decisions. Label: gesture.
	Fused *prometheus.CounterVec

	// Decisions counts state machine outcomes. Label: outcome.
	Decisions *prometheus.CounterVec

	// WordsCommitted counts words flushed into the sentence.
	WordsCommitted prometheus.Counter

	// Speech counts speech requests. Label: result.
	Speech *prometheus.CounterVec
}

// New creates a Metrics with its own registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		Frames: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "frames_total",
			Help:      "Frames applied to the recognition stage.",
		}),
		StaleResults: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stale_results_total",
			Help:      "Frames or classifier results discarded as out of order.",
		}),
		ClassifierErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "classifier_errors_total",
			Help:      "Detector failures treated as no gesture.",
		}, []string{"classifier"}),
		Fused: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fused_gestures_total",
			Help:      "Fused per-frame gesture decisions.",
		}, []string{"gesture"}),
		Decisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "decisions_total",
			Help:      "State machine outcomes for fused gestures.",
		}, []string{"outcome"}),
		WordsCommitted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "words_committed_total",
			Help:      "Words flushed into the sentence.",
		}),
		Speech: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "speech_requests_total",
			Help:      "Speech requests by result.",
		}, []string{"result"}),
	}

	m.registry.MustRegister(
		m.Frames,
		m.StaleResults,
		m.ClassifierErrors,
		m.Fused,
		m.Decisions,
		m.WordsCommitted,
		m.Speech,
		collectors.NewGoCollector(),
	)

	return m
}

// Registry returns the registry holding all instruments.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler returns an HTTP handler serving the registry in the Prometheus
// exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
