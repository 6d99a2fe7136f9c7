// Package monitor Prometheus 业务指标
package monitor

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics 钱包 SDK 指标
//
// nil *Metrics 的所有方法都是空操作，库代码无需判空。
type Metrics struct {
	TransactionsBuilt   *prometheus.CounterVec
	SignaturesAdded     prometheus.Counter
	SignaturesRejected  *prometheus.CounterVec
	Executions          *prometheus.CounterVec
	ExecutionDuration   prometheus.Histogram
	PendingTransactions prometheus.Gauge
	ServiceRequests     *prometheus.CounterVec
}

// NewMetrics 在 registerer 上注册指标，registerer 为 nil 时创建不注册的指标
func NewMetrics(registerer prometheus.Registerer) *Metrics {
	factory := promauto.With(registerer)
	return &Metrics{
		TransactionsBuilt: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "safe_transactions_built_total",
			Help: "Number of Safe transactions built, by intent.",
		}, []string{"intent"}),
		SignaturesAdded: factory.NewCounter(prometheus.CounterOpts{
			Name: "safe_signatures_added_total",
			Help: "Number of owner signatures accepted.",
		}),
		SignaturesRejected: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "safe_signatures_rejected_total",
			Help: "Number of owner signatures rejected, by reason.",
		}, []string{"reason"}),
		Executions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "safe_executions_total",
			Help: "Number of execTransaction submissions, by outcome.",
		}, []string{"outcome"}),
		ExecutionDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "safe_execution_duration_seconds",
			Help:    "Time from submission to receipt for execTransaction.",
			Buckets: prometheus.DefBuckets,
		}),
		PendingTransactions: factory.NewGauge(prometheus.GaugeOpts{
			Name: "safe_pending_transactions",
			Help: "Transactions built but not yet executed or abandoned.",
		}),
		ServiceRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "safe_service_requests_total",
			Help: "Transaction service requests, by endpoint and status.",
		}, []string{"endpoint", "status"}),
	}
}

// Outcome 执行结果标签
const (
	OutcomeExecuted = "executed"
	OutcomeReverted = "reverted"
	OutcomeFailed   = "failed"
)

func (m *Metrics) TransactionBuilt(intent string) {
	if m == nil {
		return
	}
	m.TransactionsBuilt.WithLabelValues(intent).Inc()
	m.PendingTransactions.Inc()
}

func (m *Metrics) SignatureAdded() {
	if m == nil {
		return
	}
	m.SignaturesAdded.Inc()
}

func (m *Metrics) SignatureRejected(reason string) {
	if m == nil {
		return
	}
	m.SignaturesRejected.WithLabelValues(reason).Inc()
}

// Executed 记录一次执行，outcome 为 Outcome* 之一
func (m *Metrics) Executed(outcome string, seconds float64) {
	if m == nil {
		return
	}
	m.Executions.WithLabelValues(outcome).Inc()
	m.ExecutionDuration.Observe(seconds)
	if outcome != OutcomeFailed {
		m.PendingTransactions.Dec()
	}
}

// Abandoned 记录放弃的交易
func (m *Metrics) Abandoned() {
	if m == nil {
		return
	}
	m.PendingTransactions.Dec()
}

func (m *Metrics) ServiceRequest(endpoint, status string) {
	if m == nil {
		return
	}
	m.ServiceRequests.WithLabelValues(endpoint, status).Inc()
}
