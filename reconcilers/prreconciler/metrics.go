/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package prreconciler

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var reconcileCounter = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "lockpr_reconciliations_total",
		Help: "Total number of pull request reconciliations by outcome",
	},
	[]string{"outcome"},
)

func observe(res *Result, err error) {
	outcome := "error"
	if err == nil && res != nil {
		outcome = string(res.Action)
	}
	reconcileCounter.With(prometheus.Labels{"outcome": outcome}).Inc()
}
