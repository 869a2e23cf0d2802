// Package metrics provides Prometheus collectors for video playback.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Playback groups the collectors updated by a frame source.
// A nil *Playback is valid and records nothing.
type Playback struct {
	registry *prometheus.Registry

	FramesPushed  prometheus.Counter
	Rewinds       prometheus.Counter
	ReadFailures  prometheus.Counter
	CurrentFrame  prometheus.Gauge
	FramesPerSec  prometheus.Gauge
	OpenedSources prometheus.Counter
}

// NewPlayback creates the playback collectors on a fresh registry.
func NewPlayback() *Playback {
	p := &Playback{
		registry: prometheus.NewRegistry(),
		FramesPushed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "videostream_frames_pushed_total",
			Help: "Total number of frames pushed into the render target",
		}),
		Rewinds: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "videostream_rewinds_total",
			Help: "Number of times playback looped back to frame 0",
		}),
		ReadFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "videostream_read_failures_total",
			Help: "Frame reads that failed after all rewind retries",
		}),
		CurrentFrame: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "videostream_current_frame_index",
			Help: "Index of the last frame pushed by the frame source",
		}),
		FramesPerSec: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "videostream_fps",
			Help: "Playback frame rate of the open video",
		}),
		OpenedSources: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "videostream_sources_opened_total",
			Help: "Number of video files opened",
		}),
	}
	p.registry.MustRegister(
		p.FramesPushed,
		p.Rewinds,
		p.ReadFailures,
		p.CurrentFrame,
		p.FramesPerSec,
		p.OpenedSources,
	)
	return p
}

// Handler returns an HTTP handler exposing the collectors.
func (p *Playback) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{})
}

// Registry returns the registry holding the collectors.
func (p *Playback) Registry() *prometheus.Registry {
	return p.registry
}

// ObserveOpen counts an opened video and records its frame rate.
func (p *Playback) ObserveOpen(fps int) {
	if p == nil {
		return
	}
	p.OpenedSources.Inc()
	p.FramesPerSec.Set(float64(fps))
}

// ObservePush counts a pushed frame and records its index.
func (p *Playback) ObservePush(index int) {
	if p == nil {
		return
	}
	p.FramesPushed.Inc()
	p.CurrentFrame.Set(float64(index))
}

// ObserveRewind counts a loop back to frame 0.
func (p *Playback) ObserveRewind() {
	if p == nil {
		return
	}
	p.Rewinds.Inc()
}

// ObserveReadFailure counts a read that failed after all retries.
func (p *Playback) ObserveReadFailure() {
	if p == nil {
		return
	}
	p.ReadFailures.Inc()
}
