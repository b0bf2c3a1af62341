package server

import (
	"log"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics with bounded cardinality; claim kinds and roles are fixed
// enumerations, never client-supplied strings.
var (
	connectionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "arena_connections_active",
		Help: "Currently connected WebSocket clients",
	})

	playersInRoom = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "arena_players_in_room",
		Help: "Players currently in the room",
	})

	messagesSent = promauto.NewCounter(prometheus.CounterOpts{
		Name: "arena_ws_messages_sent_total",
		Help: "WebSocket messages queued for delivery",
	})

	claimsAccepted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "arena_claims_accepted_total",
		Help: "Accepted client claims",
	}, []string{"kind"}) // "swat", "hit", "collect", "pickup"

	claimsIgnored = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "arena_claims_ignored_total",
		Help: "Claims dropped by precondition or validator",
	}, []string{"kind"})

	roundsCompleted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "arena_rounds_completed_total",
		Help: "Rounds ended, by winning role",
	}, []string{"winner"})

	effectsActivated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "arena_effects_activated_total",
		Help: "Power-up effect activations",
	}, []string{"kind"})

	respawnQueueDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "arena_respawn_queue_depth",
		Help: "Pending scheduled power-up respawns",
	})
)

// ObserveConnection updates the connection gauge.
func ObserveConnection(count int) {
	connectionsActive.Set(float64(count))
}

// ObserveMessageSent counts one outbound message.
func ObserveMessageSent() {
	messagesSent.Inc()
}

// PromStats implements game.Stats over the Prometheus collectors.
type PromStats struct{}

func (PromStats) PlayerCount(n int)            { playersInRoom.Set(float64(n)) }
func (PromStats) ClaimAccepted(kind string)    { claimsAccepted.WithLabelValues(kind).Inc() }
func (PromStats) ClaimIgnored(kind string)     { claimsIgnored.WithLabelValues(kind).Inc() }
func (PromStats) RoundCompleted(winner string) { roundsCompleted.WithLabelValues(winner).Inc() }
func (PromStats) EffectActivated(kind string)  { effectsActivated.WithLabelValues(kind).Inc() }
func (PromStats) RespawnQueueDepth(n int)      { respawnQueueDepth.Set(float64(n)) }

// StartMetricsServer serves /metrics and /health on a localhost-only
// listener, separate from the game port.
func StartMetricsServer(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	go func() {
		log.Printf("metrics server on %s", addr)
		if err := http.ListenAndServe(addr, mux); err != nil {
			log.Printf("metrics server error: %v", err)
		}
	}()
}
