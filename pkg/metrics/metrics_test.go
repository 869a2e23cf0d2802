package metrics

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestPlayback_Observe(t *testing.T) {
	p := NewPlayback()

	p.ObserveOpen(30)
	p.ObservePush(1)
	p.ObservePush(2)
	p.ObserveRewind()
	p.ObserveReadFailure()

	if got := testutil.ToFloat64(p.FramesPushed); got != 2 {
		t.Errorf("frames pushed = %v, want 2", got)
	}
	if got := testutil.ToFloat64(p.CurrentFrame); got != 2 {
		t.Errorf("current frame = %v, want 2", got)
	}
	if got := testutil.ToFloat64(p.FramesPerSec); got != 30 {
		t.Errorf("fps = %v, want 30", got)
	}
	if got := testutil.ToFloat64(p.Rewinds); got != 1 {
		t.Errorf("rewinds = %v, want 1", got)
	}
	if got := testutil.ToFloat64(p.ReadFailures); got != 1 {
		t.Errorf("read failures = %v, want 1", got)
	}
}

func TestPlayback_NilIsNoop(t *testing.T) {
	var p *Playback

	p.ObserveOpen(25)
	p.ObservePush(1)
	p.ObserveRewind()
	p.ObserveReadFailure()
}

func TestPlayback_Handler(t *testing.T) {
	p := NewPlayback()
	p.ObservePush(3)

	rec := httptest.NewRecorder()
	p.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	if !strings.Contains(rec.Body.String(), "videostream_frames_pushed_total 1") {
		t.Errorf("expected counter in output, got:\n%s", rec.Body.String())
	}
}
