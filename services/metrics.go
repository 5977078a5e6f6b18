package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors of the background sweeps.
type Metrics struct {
	SweepRuns          prometheus.Counter
	SweepDuration      prometheus.Histogram
	NotificationsDue   prometheus.Counter
	NotificationsSent  prometheus.Counter
	DeliveryFailures   prometheus.Counter
	NotificationErrors *prometheus.CounterVec

	TokenSweepRuns   prometheus.Counter
	TokenSweepErrors prometheus.Counter
	TokensDeleted    prometheus.Counter

	JobRunsSkipped *prometheus.CounterVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)

	return &Metrics{
		SweepRuns: f.NewCounter(prometheus.CounterOpts{
			Name: "birthday_sweep_runs_total",
			Help: "Total number of notification sweep runs",
		}),
		SweepDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "birthday_sweep_duration_seconds",
			Help:    "Duration of notification sweep runs in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30},
		}),
		NotificationsDue: f.NewCounter(prometheus.CounterOpts{
			Name: "birthday_notifications_due_total",
			Help: "Total number of due notifications picked up by the sweep",
		}),
		NotificationsSent: f.NewCounter(prometheus.CounterOpts{
			Name: "birthday_notifications_sent_total",
			Help: "Total number of reminder emails handed to the mail provider",
		}),
		DeliveryFailures: f.NewCounter(prometheus.CounterOpts{
			Name: "birthday_notification_delivery_failures_total",
			Help: "Total number of reminder emails the mail provider rejected",
		}),
		NotificationErrors: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "birthday_notification_errors_total",
				Help: "Total number of per-notification sweep errors",
			},
			[]string{"stage"},
		),
		TokenSweepRuns: f.NewCounter(prometheus.CounterOpts{
			Name: "token_sweep_runs_total",
			Help: "Total number of expired token sweep runs",
		}),
		TokenSweepErrors: f.NewCounter(prometheus.CounterOpts{
			Name: "token_sweep_errors_total",
			Help: "Total number of failed expired token sweep runs",
		}),
		TokensDeleted: f.NewCounter(prometheus.CounterOpts{
			Name: "tokens_deleted_total",
			Help: "Total number of expired refresh tokens deleted",
		}),
		JobRunsSkipped: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scheduler_job_runs_skipped_total",
				Help: "Ticks skipped because the previous run of the job was still in progress",
			},
			[]string{"job"},
		),
	}
}
