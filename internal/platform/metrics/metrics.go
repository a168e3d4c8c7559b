// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package metrics exposes Prometheus counters for the session lifecycle.

Collectors are registered on an explicit [prometheus.Registerer] so tests can
use a private registry instead of the process-wide default.
*/
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "vidtube"

// # Outcome Labels

const (
	OutcomeSuccess            = "success"
	OutcomeInvalidCredentials = "invalid_credentials"
	OutcomeInvalidToken       = "invalid_token"
	OutcomeReuseDetected      = "reuse_detected"
	OutcomeThrottled          = "throttled"
	OutcomeValidation         = "validation"
	OutcomeError              = "error"
)

// # Collectors

// Auth counts login and refresh attempts by outcome.
type Auth struct {
	logins    *prometheus.CounterVec
	refreshes *prometheus.CounterVec
}

// NewAuth creates the auth collectors and registers them on registerer.
func NewAuth(registerer prometheus.Registerer) (*Auth, error) {
	auth := &Auth{
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "auth",
			Name:      "logins_total",
			Help:      "Login attempts partitioned by outcome.",
		}, []string{"outcome"}),
		refreshes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "auth",
			Name:      "refreshes_total",
			Help:      "Refresh-token exchanges partitioned by outcome.",
		}, []string{"outcome"}),
	}

	for _, collector := range []prometheus.Collector{auth.logins, auth.refreshes} {
		if err := registerer.Register(collector); err != nil {
			return nil, err
		}
	}
	return auth, nil
}

// Login records one login attempt.
func (auth *Auth) Login(outcome string) {
	auth.logins.WithLabelValues(outcome).Inc()
}

// Refresh records one refresh attempt.
func (auth *Auth) Refresh(outcome string) {
	auth.refreshes.WithLabelValues(outcome).Inc()
}

// # Exposition

// Handler serves the metrics gathered by gatherer in the text exposition format.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
