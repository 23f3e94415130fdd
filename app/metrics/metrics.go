package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	PollTicks = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "mrturtle_poll_ticks_total",
		Help: "Poll ticks by loop and outcome",
	}, []string{"kind", "outcome"})

	ItemsFetched = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "mrturtle_items_fetched_total",
		Help: "Items returned by the forum listing",
	}, []string{"kind"})

	Matches = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "mrturtle_matches_total",
		Help: "Items matched by rule",
	}, []string{"kind", "rule"})

	Replies = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "mrturtle_replies_total",
		Help: "Reply decisions by result (sent, suppressed, failed, dry_run)",
	}, []string{"kind", "result"})

	EpisodesPublished = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "mrturtle_episodes_published_total",
		Help: "Episode discussion posts submitted",
	})

	PublishErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "mrturtle_publish_errors_total",
		Help: "Failed publish attempts",
	})

	SeenItems = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "mrturtle_seen_items",
		Help: "Ids in the seen set",
	}, []string{"kind"})

	TickDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "mrturtle_tick_duration_seconds",
		Help:    "Duration of task executions",
		Buckets: prometheus.DefBuckets,
	}, []string{"type"})
)

// MustRegister registers every collector with the registerer.
func MustRegister(registerer prometheus.Registerer) {
	registerer.MustRegister(
		PollTicks,
		ItemsFetched,
		Matches,
		Replies,
		EpisodesPublished,
		PublishErrors,
		SeenItems,
		TickDuration,
	)
}
