package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// metricConsultations counts consultations by final engine state.
	// Labels: "fixpoint", "capped", "error"
	metricConsultations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "diagnosa_consultations_total",
		Help: "Consultations by final engine state",
	}, []string{"state"})

	metricConsultationDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "diagnosa_consultation_duration_seconds",
		Help:    "Time spent forward chaining one consultation",
		Buckets: []float64{0.00001, 0.0001, 0.001, 0.01, 0.1},
	})

	metricIterations = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "diagnosa_consultation_iterations",
		Help:    "Inference passes per consultation",
		Buckets: []float64{1, 2, 3, 5, 10, 20, 50},
	})

	metricRulesFired = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "diagnosa_rules_fired_total",
		Help: "Rule firings by rule ID",
	}, []string{"rule"})

	metricActiveRules = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "diagnosa_active_rules",
		Help: "Active rules in the loaded catalogue",
	})

	metricGoalChecks = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "diagnosa_goal_checks_total",
		Help: "Goal verifications by outcome",
	}, []string{"provable"})
)
