// Package metrics collects prometheus metrics for the faucet
package metrics // import "github.com/joincivil/civil-social-faucet/pkg/metrics"

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector records executor and listener outcomes
type Collector struct {
	messages         *prometheus.CounterVec
	disbursements    *prometheus.CounterVec
	txAttempts       *prometheus.CounterVec
	rollbacks        prometheus.Counter
	duplicates       prometheus.Counter
	listenerFailures *prometheus.CounterVec
}

// NewCollector creates a Collector and registers its metrics with reg
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		messages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "faucet_messages_total",
			Help: "Messages processed by source and resulting status",
		}, []string{"source", "status"}),
		disbursements: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "faucet_disbursements_total",
			Help: "Disbursements by resulting status",
		}, []string{"status"}),
		txAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "faucet_transaction_attempts_total",
			Help: "Transaction attempts by builder and result",
		}, []string{"builder", "success"}),
		rollbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "faucet_cooldown_rollbacks_total",
			Help: "Cooldowns removed after a failed disbursement",
		}),
		duplicates: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "faucet_duplicate_messages_total",
			Help: "Redelivered messages dropped before processing",
		}),
		listenerFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "faucet_listener_failures_total",
			Help: "Listener errors by listener",
		}, []string{"listener"}),
	}

	reg.MustRegister(
		c.messages,
		c.disbursements,
		c.txAttempts,
		c.rollbacks,
		c.duplicates,
		c.listenerFailures,
	)
	return c
}

// RecordMessage counts a processed message
func (c *Collector) RecordMessage(source string, status string) {
	c.messages.WithLabelValues(source, status).Inc()
}

// RecordDisbursement counts a finished disbursement
func (c *Collector) RecordDisbursement(status string) {
	c.disbursements.WithLabelValues(status).Inc()
}

// RecordTransactionAttempt counts one submission attempt
func (c *Collector) RecordTransactionAttempt(builder string, success bool) {
	c.txAttempts.WithLabelValues(builder, strconv.FormatBool(success)).Inc()
}

// RecordCooldownRollback counts a removed cooldown
func (c *Collector) RecordCooldownRollback() {
	c.rollbacks.Inc()
}

// RecordDuplicateMessage counts a dropped redelivery
func (c *Collector) RecordDuplicateMessage() {
	c.duplicates.Inc()
}

// RecordListenerFailure counts an error reported by a listener
func (c *Collector) RecordListenerFailure(listener string) {
	c.listenerFailures.WithLabelValues(listener).Inc()
}

// Handler returns the scrape handler for gatherer
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
