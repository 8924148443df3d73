// Copyright 2025 Blink Labs Software
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package metrics

import (
	"errors"
	"fmt"
	"math/big"
	"net/http"

	"github.com/blinklabs-io/btckit/internal/bitcoin"
	"github.com/blinklabs-io/btckit/internal/version"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	ResultAccepted = "accepted"

	namespace = "btckit"
)

type Metrics struct {
	registry         *prometheus.Registry
	headersValidated *prometheus.CounterVec
	chainHeight      *prometheus.GaugeVec
	chainWork        *prometheus.GaugeVec
}

var globalMetrics = New()

// New creates a set of metrics on its own registry
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		headersValidated: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "headers_validated_total",
				Help:      "Block headers validated, by result.",
			},
			[]string{"network", "result"},
		),
		chainHeight: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "chain_height",
				Help:      "Height of the stored chain tip.",
			},
			[]string{"network"},
		),
		chainWork: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "chain_work",
				Help:      "Cumulative work of the stored chain since the checkpoint.",
			},
			[]string{"network"},
		),
	}
	versionGauge := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "version",
			Help:      "Version of btckit running.",
		},
		[]string{"version"},
	)
	versionGauge.WithLabelValues(version.GetVersionString()).Set(1)
	m.registry.MustRegister(
		m.headersValidated,
		m.chainHeight,
		m.chainWork,
		versionGauge,
	)
	return m
}

// RecordValidation counts a validated header. A non-nil err is labeled
// with the rule that rejected the header.
func (m *Metrics) RecordValidation(network bitcoin.NetworkType, err error) {
	m.headersValidated.WithLabelValues(string(network), ResultLabel(err)).Inc()
}

func (m *Metrics) SetTip(network bitcoin.NetworkType, height uint32, work *big.Int) {
	m.chainHeight.WithLabelValues(string(network)).Set(float64(height))
	if work != nil {
		workFloat, _ := new(big.Float).SetInt(work).Float64()
		m.chainWork.WithLabelValues(string(network)).Set(workFloat)
	}
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ResultLabel maps a validation result to a metric label
func ResultLabel(err error) string {
	switch {
	case err == nil:
		return ResultAccepted
	case errors.Is(err, bitcoin.ErrInvalidEncoding):
		return "invalid_encoding"
	case errors.Is(err, bitcoin.ErrInsufficientWork):
		return "insufficient_work"
	case errors.Is(err, bitcoin.ErrUnexpectedDifficultyBits):
		return "unexpected_difficulty_bits"
	case errors.Is(err, bitcoin.ErrNoPreviousBlock):
		return "no_previous_block"
	case errors.Is(err, bitcoin.ErrNoAncestorAtHeight):
		return "no_ancestor_at_height"
	default:
		return "error"
	}
}

// Start serves the metrics endpoint. It blocks until the listener fails.
func (m *Metrics) Start(address string, port uint) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	return http.ListenAndServe(fmt.Sprintf("%s:%d", address, port), mux) // nolint:gosec
}

// GetMetrics returns the global metrics instance
func GetMetrics() *Metrics {
	return globalMetrics
}
