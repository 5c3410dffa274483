// Package metrics exports slot machine activity as prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"slot-machine/internal/game"
)

// Observer updates the collectors from round notifications.
type Observer struct {
	spins    prometheus.Counter
	wins     prometheus.Counter
	jackpots prometheus.Counter
	payout   prometheus.Counter
	rounds   *prometheus.CounterVec
	coins    prometheus.Gauge
	fever    prometheus.Gauge
	duration prometheus.Histogram
}

// New registers the collectors on reg.
func New(reg prometheus.Registerer) *Observer {
	f := promauto.With(reg)
	return &Observer{
		spins:    f.NewCounter(prometheus.CounterOpts{Name: "slot_spins_total", Help: "Spins started."}),
		wins:     f.NewCounter(prometheus.CounterOpts{Name: "slot_wins_total", Help: "Rounds with a payout."}),
		jackpots: f.NewCounter(prometheus.CounterOpts{Name: "slot_jackpots_total", Help: "Three SEVEN rounds."}),
		payout:   f.NewCounter(prometheus.CounterOpts{Name: "slot_payout_coins_total", Help: "Coins paid out."}),
		rounds: f.NewCounterVec(prometheus.CounterOpts{
			Name: "slot_rounds_total",
			Help: "Settled rounds by resulting state.",
		}, []string{"state"}),
		coins: f.NewGauge(prometheus.GaugeOpts{Name: "slot_coins", Help: "Current coin balance."}),
		fever: f.NewGauge(prometheus.GaugeOpts{Name: "slot_fever_active", Help: "1 while fever mode is active."}),
		duration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "slot_round_duration_seconds",
			Help:    "Time from spin start to evaluation.",
			Buckets: prometheus.ExponentialBuckets(0.25, 2, 6),
		}),
	}
}

func (o *Observer) SpinStarted(coins int64, fever bool) {
	o.spins.Inc()
	o.coins.Set(float64(coins))
	o.fever.Set(boolFloat(fever))
}

func (o *Observer) RoundSettled(r game.RoundReport) {
	if r.Win {
		o.wins.Inc()
		o.payout.Add(float64(r.Payout))
	}
	if r.Jackpot {
		o.jackpots.Inc()
	}
	o.rounds.WithLabelValues(r.State).Inc()
	o.coins.Set(float64(r.Coins))
	o.fever.Set(boolFloat(r.FeverNow))
	o.duration.Observe(r.Duration.Seconds())
}

func boolFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
