package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RecordsLoaded tracks the size of the current snapshot per dataset
	RecordsLoaded = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "analytics_records_loaded",
			Help: "Number of records in the current dataset snapshot",
		},
		[]string{"dataset"},
	)

	// ReloadsTotal counts snapshot reloads by outcome
	ReloadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "analytics_reloads_total",
			Help: "Dataset reloads by source and result",
		},
		[]string{"source", "result"},
	)

	// ModelSavesTotal counts prediction model writes by store and outcome
	ModelSavesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "analytics_model_saves_total",
			Help: "Prediction model saves by store and result",
		},
		[]string{"store", "result"},
	)
)

func resultLabel(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
