package mp4probe

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/Eyevinn/mp4ff/mp4"
	"github.com/spf13/afero"
)

func TestFrameRate(t *testing.T) {
	tests := []struct {
		name      string
		timescale uint32
		stts      *mp4.SttsBox
		want      int
	}{
		{
			name:      "30 fps",
			timescale: 15360,
			stts:      &mp4.SttsBox{SampleCount: []uint32{90}, SampleTimeDelta: []uint32{512}},
			want:      30,
		},
		{
			name:      "29.97 truncates",
			timescale: 30000,
			stts:      &mp4.SttsBox{SampleCount: []uint32{300}, SampleTimeDelta: []uint32{1001}},
			want:      29,
		},
		{
			name:      "dominant entry wins",
			timescale: 1000,
			stts:      &mp4.SttsBox{SampleCount: []uint32{1, 99}, SampleTimeDelta: []uint32{100, 40}},
			want:      25,
		},
		{name: "nil table", timescale: 1000, stts: nil, want: 0},
		{
			name:      "zero timescale",
			timescale: 0,
			stts:      &mp4.SttsBox{SampleCount: []uint32{1}, SampleTimeDelta: []uint32{1}},
			want:      0,
		},
		{
			name:      "zero delta",
			timescale: 1000,
			stts:      &mp4.SttsBox{SampleCount: []uint32{10}, SampleTimeDelta: []uint32{0}},
			want:      0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FrameRate(tt.timescale, tt.stts); got != tt.want {
				t.Errorf("FrameRate() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestCodecFromType(t *testing.T) {
	tests := map[string]string{
		"avc1": CodecH264,
		"avc3": CodecH264,
		"hvc1": CodecHEVC,
		"hev1": CodecHEVC,
		"av01": CodecAV1,
		"vp09": CodecVP9,
		"mp4a": CodecUnknown,
	}
	for boxType, want := range tests {
		if got := codecFromType(boxType); got != want {
			t.Errorf("codecFromType(%q) = %q, want %q", boxType, got, want)
		}
	}
}

func TestProber_MissingFile(t *testing.T) {
	p := NewWithFs(afero.NewMemMapFs())

	_, err := p.Probe(context.Background(), "missing.mp4")

	if err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestProbeBytes_NotMP4(t *testing.T) {
	_, err := ProbeBytes([]byte("definitely not a video"))

	if !errors.Is(err, ErrNotMP4) && !errors.Is(err, ErrNoVideoTrack) {
		t.Errorf("expected ErrNotMP4 or ErrNoVideoTrack, got %v", err)
	}
}

func TestProber_CancelledContext(t *testing.T) {
	fs := afero.NewMemMapFs()
	afero.WriteFile(fs, "clip.mp4", []byte{0}, 0644)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewWithFs(fs).Probe(ctx, "clip.mp4")

	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestProber_GeneratedClip(t *testing.T) {
	ffmpeg, err := exec.LookPath("ffmpeg")
	if err != nil {
		t.Skip("ffmpeg not available")
	}

	dir := t.TempDir()
	path := filepath.Join(dir, "clip.mp4")
	cmd := exec.Command(ffmpeg, "-y", "-loglevel", "error",
		"-f", "lavfi", "-i", "testsrc=size=64x48:rate=30:duration=3",
		"-c:v", "libx264", "-pix_fmt", "yuv420p", path)
	if out, err := cmd.CombinedOutput(); err != nil {
		t.Skipf("ffmpeg could not encode test clip: %v\n%s", err, out)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	fs := afero.NewMemMapFs()
	if err := afero.WriteFile(fs, "/videos/clip.mp4", data, 0644); err != nil {
		t.Fatal(err)
	}

	info, err := NewWithFs(fs).Probe(context.Background(), "/videos/clip.mp4")
	if err != nil {
		t.Fatalf("Probe failed: %v", err)
	}

	if info.Codec != CodecH264 {
		t.Errorf("codec = %q, want %q", info.Codec, CodecH264)
	}
	if info.FPS != 30 {
		t.Errorf("fps = %d, want 30", info.FPS)
	}
	if info.FrameCount != 90 {
		t.Errorf("frame count = %d, want 90", info.FrameCount)
	}
	if info.Size.Width != 64 || info.Size.Height != 48 {
		t.Errorf("size = %dx%d, want 64x48", info.Size.Width, info.Size.Height)
	}
	if info.FileName != "/videos/clip.mp4" {
		t.Errorf("file name = %q, want /videos/clip.mp4", info.FileName)
	}
}
