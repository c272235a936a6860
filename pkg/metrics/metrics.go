// Package metrics exposes Prometheus instrumentation for ledger commands
// and projections.
package metrics

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector gathers command and journal metrics on a private registry. A
// nil Collector is a no-op so callers never need to guard instrumentation
// sites.
type Collector struct {
	registry          *prometheus.Registry
	commandsTotal     *prometheus.CounterVec
	commandDuration   prometheus.Histogram
	duplicateCommands prometheus.Counter
	versionConflicts  prometheus.Counter
	eventsAppended    prometheus.Counter
	accountBalance    *prometheus.GaugeVec
	logger            *slog.Logger
}

// NewCollector creates a Collector with all metrics registered.
func NewCollector(logger *slog.Logger) *Collector {
	if logger == nil {
		logger = slog.Default()
	}

	registry := prometheus.NewRegistry()

	return &Collector{
		registry: registry,
		commandsTotal: promauto.With(registry).NewCounterVec(prometheus.CounterOpts{
			Name: "ledger_commands_total",
			Help: "Total ledger commands by name and outcome",
		}, []string{"command", "outcome"}),
		commandDuration: promauto.With(registry).NewHistogram(prometheus.HistogramOpts{
			Name:    "ledger_command_duration_seconds",
			Help:    "Time taken to execute a ledger command",
			Buckets: prometheus.DefBuckets,
		}),
		duplicateCommands: promauto.With(registry).NewCounter(prometheus.CounterOpts{
			Name: "ledger_duplicate_commands_total",
			Help: "Commands short-circuited by an idempotency key replay",
		}),
		versionConflicts: promauto.With(registry).NewCounter(prometheus.CounterOpts{
			Name: "ledger_version_conflicts_total",
			Help: "Appends rejected by optimistic concurrency",
		}),
		eventsAppended: promauto.With(registry).NewCounter(prometheus.CounterOpts{
			Name: "ledger_events_appended_total",
			Help: "Events committed to the journal",
		}),
		accountBalance: promauto.With(registry).NewGaugeVec(prometheus.GaugeOpts{
			Name: "ledger_account_balance_cents",
			Help: "Projected account balance in cents",
		}, []string{"account_id", "currency"}),
		logger: logger,
	}
}

// RecordCommand records one command execution.
func (c *Collector) RecordCommand(command string, duration time.Duration, err error) {
	if c == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	c.commandsTotal.WithLabelValues(command, outcome).Inc()
	c.commandDuration.Observe(duration.Seconds())
}

// RecordDuplicate counts an idempotency key replay.
func (c *Collector) RecordDuplicate() {
	if c == nil {
		return
	}
	c.duplicateCommands.Inc()
}

// RecordConflict counts an optimistic concurrency rejection.
func (c *Collector) RecordConflict() {
	if c == nil {
		return
	}
	c.versionConflicts.Inc()
}

// RecordAppended counts events committed to the journal.
func (c *Collector) RecordAppended(count int) {
	if c == nil {
		return
	}
	c.eventsAppended.Add(float64(count))
}

// UpdateAccountBalance sets the projected balance gauge for an account.
func (c *Collector) UpdateAccountBalance(accountID, currency string, balanceCents int64) {
	if c == nil {
		return
	}
	c.accountBalance.WithLabelValues(accountID, currency).Set(float64(balanceCents))
}

// Handler returns the scrape handler for the private registry.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// StartServer starts a metrics HTTP server on addr and returns it so the
// caller can shut it down.
func (c *Collector) StartServer(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", c.Handler())

	server := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	go func() {
		c.logger.Info("starting metrics server", slog.String("addr", addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			c.logger.Error("metrics server failed", slog.String("error", err.Error()))
		}
	}()

	return server
}
