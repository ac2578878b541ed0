package metrics

import (
	"sync"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	once         sync.Once
	stepDuration *prom.HistogramVec
	runDuration  *prom.HistogramVec
	stepResults  *prom.CounterVec
	runOutcome   *prom.CounterVec
	triggers     *prom.CounterVec
	queueDepth   prom.Gauge
}

// NewPrometheusRecorder constructs and registers Prometheus metrics (idempotent).
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{}
	pr.once.Do(func() {
		pr.stepDuration = prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: "relbuilder",
			Name:      "step_duration_seconds",
			Help:      "Duration of individual pipeline steps",
			Buckets:   prom.DefBuckets,
		}, []string{"pipeline", "step"})
		pr.runDuration = prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: "relbuilder",
			Name:      "run_duration_seconds",
			Help:      "Total pipeline run duration",
			Buckets:   prom.DefBuckets,
		}, []string{"pipeline"})
		pr.stepResults = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "relbuilder",
			Name:      "step_results_total",
			Help:      "Step result counts by outcome",
		}, []string{"pipeline", "step", "result"})
		pr.runOutcome = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "relbuilder",
			Name:      "run_outcomes_total",
			Help:      "Run outcomes by final status",
		}, []string{"pipeline", "outcome"})
		pr.triggers = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "relbuilder",
			Name:      "triggers_total",
			Help:      "Run triggers by source",
		}, []string{"pipeline", "trigger"})
		pr.queueDepth = prom.NewGauge(prom.GaugeOpts{
			Namespace: "relbuilder",
			Name:      "queue_depth",
			Help:      "Number of runs waiting in the dispatch queue",
		})
		reg.MustRegister(pr.stepDuration, pr.runDuration, pr.stepResults, pr.runOutcome, pr.triggers, pr.queueDepth)
	})
	return pr
}

func (p *PrometheusRecorder) ObserveStepDuration(pipeline, step string, d time.Duration) {
	if p == nil || p.stepDuration == nil {
		return
	}
	p.stepDuration.WithLabelValues(pipeline, step).Observe(d.Seconds())
}

func (p *PrometheusRecorder) ObserveRunDuration(pipeline string, d time.Duration) {
	if p == nil || p.runDuration == nil {
		return
	}
	p.runDuration.WithLabelValues(pipeline).Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncStepResult(pipeline, step string, result ResultLabel) {
	if p == nil || p.stepResults == nil {
		return
	}
	p.stepResults.WithLabelValues(pipeline, step, string(result)).Inc()
}

func (p *PrometheusRecorder) IncRunOutcome(pipeline, outcome string) {
	if p == nil || p.runOutcome == nil {
		return
	}
	p.runOutcome.WithLabelValues(pipeline, outcome).Inc()
}

func (p *PrometheusRecorder) IncTrigger(pipeline, trigger string) {
	if p == nil || p.triggers == nil {
		return
	}
	p.triggers.WithLabelValues(pipeline, trigger).Inc()
}

func (p *PrometheusRecorder) SetQueueDepth(n int) {
	if p == nil || p.queueDepth == nil {
		return
	}
	p.queueDepth.Set(float64(n))
}
