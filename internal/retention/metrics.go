package retention

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	// Сколько активных политик сейчас в кэше
	CachedPolicies prometheus.Gauge

	// Перечитывания реестра: result = ok | error
	Refreshes *prometheus.CounterVec

	// Время последнего успешного перечитывания (unix)
	LastRefresh prometheus.Gauge

	// Обращения к реестру по таблице: result = hit | miss
	Lookups *prometheus.CounterVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	// Если рег не передан, используем локальный, который никуда не подключен
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	return &Metrics{
		CachedPolicies: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Name: "retention_registry_policies",
			Help: "Number of active retention policies in the in-memory registry.",
		}),
		Refreshes: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "retention_registry_refreshes_total",
			Help: "Registry reloads from the policy store.",
		}, []string{"result"}),
		LastRefresh: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Name: "retention_registry_last_refresh_timestamp_seconds",
			Help: "Unix time of the last successful registry reload.",
		}),
		Lookups: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "retention_registry_lookups_total",
			Help: "Policy lookups by table name.",
		}, []string{"result"}),
	}
}
