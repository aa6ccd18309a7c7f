// Package metrics exposes Prometheus counters and gauges for the shell.
package metrics

import (
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"bike-rental/auth"
	"bike-rental/rental"
)

// Collector records command outcomes and the size of the store.
type Collector struct {
	commands       *prometheus.CounterVec
	commandLatency *prometheus.HistogramVec
	authFailures   prometheus.Counter
	bikes          prometheus.Gauge
	loans          *prometheus.GaugeVec
	lastLoanID     prometheus.Gauge
}

// NewCollector builds a Collector and registers its metrics with reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		commands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bikerental_commands_total",
			Help: "Executed commands by name and result.",
		}, []string{"command", "result"}),
		commandLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "bikerental_command_duration_seconds",
			Help:    "Command execution time in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"command"}),
		authFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "bikerental_auth_failures_total",
			Help: "Guarded commands rejected for a wrong password.",
		}),
		bikes: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "bikerental_bikes",
			Help: "Bikes in the store after the last commit.",
		}),
		loans: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "bikerental_loans",
			Help: "Loans in the store after the last commit, by status.",
		}, []string{"status"}),
		lastLoanID: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "bikerental_last_loan_id",
			Help: "Last allocated loan id, -1 when none.",
		}),
	}

	reg.MustRegister(
		c.commands,
		c.commandLatency,
		c.authFailures,
		c.bikes,
		c.loans,
		c.lastLoanID,
	)
	return c
}

// RecordCommand counts one command execution.
func (c *Collector) RecordCommand(name string, d time.Duration, err error) {
	result := "ok"
	if err != nil {
		result = "error"
		if errors.Is(err, auth.ErrInvalidPassword) {
			c.authFailures.Inc()
		}
	}
	c.commands.WithLabelValues(name, result).Inc()
	c.commandLatency.WithLabelValues(name).Observe(d.Seconds())
}

// ObserveSnapshot updates the store size gauges. It is meant to be
// registered as a rental.Subscriber.
func (c *Collector) ObserveSnapshot(snap rental.Snapshot) {
	c.bikes.Set(float64(len(snap.Bikes)))
	var ongoing, returned int
	for _, l := range snap.Loans {
		if l.Status == rental.StatusReturned {
			returned++
		} else {
			ongoing++
		}
	}
	c.loans.WithLabelValues(string(rental.StatusOngoing)).Set(float64(ongoing))
	c.loans.WithLabelValues(string(rental.StatusReturned)).Set(float64(returned))
	last := -1
	if snap.LastLoanID != nil {
		last = *snap.LastLoanID
	}
	c.lastLoanID.Set(float64(last))
}

// Handler returns the Prometheus scrape handler for gatherer.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// NewServer returns an HTTP server exposing /metrics on addr.
func NewServer(addr string, gatherer prometheus.Gatherer) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler(gatherer))
	return &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
}
