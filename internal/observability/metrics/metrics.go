package metrics

import "github.com/prometheus/client_golang/prometheus"

const (
	namespace = "creator"
	subsystem = "engine"
)

// EngineMetrics exposes counters/histograms for the sales engine.
type EngineMetrics struct {
	draftsTotal       *prometheus.CounterVec
	qaScore           *prometheus.HistogramVec
	hardRuleRejects   *prometheus.CounterVec
	stageTransitions  *prometheus.CounterVec
	plansTotal        *prometheus.CounterVec
	inboxLatency      prometheus.Histogram
	templateFallbacks *prometheus.CounterVec
}

// QAScoreMetric is the fully qualified name of the QA score histogram.
const QAScoreMetric = namespace + "_" + subsystem + "_draft_qa_score"

func NewEngineMetrics(reg prometheus.Registerer) *EngineMetrics {
	m := &EngineMetrics{
		draftsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "drafts_total",
			Help:      "Drafts built, by safety gate and assembly mode",
		}, []string{"gate", "mode"}),
		qaScore: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "draft_qa_score",
			Help:      "QA score of built drafts",
			Buckets:   []float64{20, 40, 59, 70, 80, 90, 100},
		}, []string{"mode"}),
		hardRuleRejects: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "hard_rule_rejections_total",
			Help:      "Drafts failing the pre-send hard rules, by first warning",
		}, []string{"warning"}),
		stageTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "stage_transitions_total",
			Help:      "Stage changes applied through action keys",
		}, []string{"from", "to"}),
		plansTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "plans_total",
			Help:      "Chatter plans served, by focus and branch",
		}, []string{"focus", "branch"}),
		inboxLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "inbox_latency_seconds",
			Help:      "Time to load and rank a creator inbox",
			Buckets:   prometheus.DefBuckets,
		}),
		templateFallbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "template_fallbacks_total",
			Help:      "Template lookups served from defaults, by reason",
		}, []string{"reason"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(
		m.draftsTotal,
		m.qaScore,
		m.hardRuleRejects,
		m.stageTransitions,
		m.plansTotal,
		m.inboxLatency,
		m.templateFallbacks,
	)
	return m
}

func (m *EngineMetrics) ObserveDraft(gate, mode string, qaScore int) {
	if m == nil {
		return
	}
	if gate == "" {
		gate = "none"
	}
	m.draftsTotal.WithLabelValues(gate, mode).Inc()
	m.qaScore.WithLabelValues(mode).Observe(float64(qaScore))
}

func (m *EngineMetrics) ObserveHardRuleReject(warning string) {
	if m == nil {
		return
	}
	m.hardRuleRejects.WithLabelValues(warning).Inc()
}

func (m *EngineMetrics) ObserveStageTransition(from, to string) {
	if m == nil {
		return
	}
	m.stageTransitions.WithLabelValues(from, to).Inc()
}

func (m *EngineMetrics) ObservePlan(focus, branch string) {
	if m == nil {
		return
	}
	m.plansTotal.WithLabelValues(focus, branch).Inc()
}

func (m *EngineMetrics) ObserveInboxLatency(seconds float64) {
	if m == nil {
		return
	}
	m.inboxLatency.Observe(seconds)
}

func (m *EngineMetrics) ObserveTemplateFallback(reason string) {
	if m == nil {
		return
	}
	m.templateFallbacks.WithLabelValues(reason).Inc()
}
