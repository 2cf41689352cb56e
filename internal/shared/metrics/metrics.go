// Package metrics holds the Prometheus collectors for channel and timer activity.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics groups the bot's collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	ChannelsCreated  prometheus.Counter
	ChannelsDeleted  prometheus.Counter
	MemberMoves      *prometheus.CounterVec
	TrackedChannels  prometheus.Gauge
	TimersScheduled  prometheus.Counter
	TimersFinished   *prometheus.CounterVec
	RenderErrors     prometheus.Counter
	ActiveTimers     prometheus.Gauge
	RequestsRejected *prometheus.CounterVec
}

// New registers the collectors on reg
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		ChannelsCreated: f.NewCounter(prometheus.CounterOpts{Name: "squadbot_channels_created_total", Help: "Ephemeral voice channels created"}),
		ChannelsDeleted: f.NewCounter(prometheus.CounterOpts{Name: "squadbot_channels_deleted_total", Help: "Ephemeral voice channels deleted after emptying"}),
		MemberMoves:     f.NewCounterVec(prometheus.CounterOpts{Name: "squadbot_member_moves_total", Help: "Member relocations into new channels"}, []string{"result"}),
		TrackedChannels: f.NewGauge(prometheus.GaugeOpts{Name: "squadbot_tracked_channels", Help: "Ephemeral voice channels currently tracked"}),
		TimersScheduled: f.NewCounter(prometheus.CounterOpts{Name: "squadbot_timers_scheduled_total", Help: "Countdown timers scheduled"}),
		TimersFinished:  f.NewCounterVec(prometheus.CounterOpts{Name: "squadbot_timers_finished_total", Help: "Countdown timers that reached a terminal state"}, []string{"state"}),
		RenderErrors:    f.NewCounter(prometheus.CounterOpts{Name: "squadbot_timer_render_errors_total", Help: "Failed countdown message edits"}),
		ActiveTimers:    f.NewGauge(prometheus.GaugeOpts{Name: "squadbot_active_timers", Help: "Countdown timers currently running"}),
		RequestsRejected: f.NewCounterVec(prometheus.CounterOpts{Name: "squadbot_requests_rejected_total", Help: "Command requests rejected, by error kind"}, []string{"command", "kind"}),
	}
}

func (m *Metrics) ChannelCreated(tracked int) {
	if m == nil {
		return
	}
	m.ChannelsCreated.Inc()
	m.TrackedChannels.Set(float64(tracked))
}

func (m *Metrics) ChannelDeleted(tracked int) {
	if m == nil {
		return
	}
	m.ChannelsDeleted.Inc()
	m.TrackedChannels.Set(float64(tracked))
}

func (m *Metrics) MemberMoved(ok bool) {
	if m == nil {
		return
	}
	result := "ok"
	if !ok {
		result = "failed"
	}
	m.MemberMoves.WithLabelValues(result).Inc()
}

func (m *Metrics) TimerScheduled() {
	if m == nil {
		return
	}
	m.TimersScheduled.Inc()
	m.ActiveTimers.Inc()
}

func (m *Metrics) TimerFinished(state string) {
	if m == nil {
		return
	}
	m.TimersFinished.WithLabelValues(state).Inc()
	m.ActiveTimers.Dec()
}

func (m *Metrics) RenderFailed() {
	if m == nil {
		return
	}
	m.RenderErrors.Inc()
}

func (m *Metrics) Rejected(command, kind string) {
	if m == nil {
		return
	}
	m.RequestsRejected.WithLabelValues(command, kind).Inc()
}
