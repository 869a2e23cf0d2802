package ffmpegsource

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"github.com/user/videostream/pkg/ports"
)

// FFprobe reads video metadata with the ffprobe binary. It handles any
// container ffmpeg understands.
type FFprobe struct {
	logger ports.Logger
}

// NewFFprobe creates an ffprobe-backed prober.
func NewFFprobe(logger ports.Logger) *FFprobe {
	return &FFprobe{logger: logger.WithComponent("ffprobe")}
}

type probeOutput struct {
	Streams []struct {
		CodecName     string `json:"codec_name"`
		Width         int    `json:"width"`
		Height        int    `json:"height"`
		RFrameRate    string `json:"r_frame_rate"`
		AvgFrameRate  string `json:"avg_frame_rate"`
		NbFrames      string `json:"nb_frames"`
		NbReadPackets string `json:"nb_read_packets"`
	} `json:"streams"`
}

// Probe runs ffprobe on the first video stream of path.
// Name identifies the prober in logs.
func (p *FFprobe) Name() string { return "ffprobe" }

// Probe runs ffprobe on the first video stream of path.
func (p *FFprobe) Probe(ctx context.Context, path string) (ports.VideoInfo, error) {
	ffprobe, err := FindFFprobe()
	if err != nil {
		return ports.VideoInfo{}, err
	}

	p.logger.Debug("Probing %s with ffprobe", path)

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, ffprobe,
		"-v", "error",
		"-select_streams", "v:0",
		"-count_packets",
		"-show_entries", "stream=codec_name,width,height,r_frame_rate,avg_frame_rate,nb_frames,nb_read_packets",
		"-of", "json",
		path,
	)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return ports.VideoInfo{}, fmt.Errorf("ffprobe failed: %w\nstderr: %s", err, stderr.String())
	}

	info, err := parseProbeOutput(stdout.Bytes())
	if err != nil {
		return ports.VideoInfo{}, err
	}
	info.FileName = path
	return info, nil
}

func parseProbeOutput(data []byte) (ports.VideoInfo, error) {
	var out probeOutput
	if err := json.Unmarshal(data, &out); err != nil {
		return ports.VideoInfo{}, fmt.Errorf("parse ffprobe output: %w", err)
	}
	if len(out.Streams) == 0 {
		return ports.VideoInfo{}, ErrNoVideoStream
	}

	s := out.Streams[0]
	fps := parseRate(s.AvgFrameRate)
	if fps == 0 {
		fps = parseRate(s.RFrameRate)
	}
	frames, err := strconv.Atoi(s.NbFrames)
	if err != nil || frames == 0 {
		frames, _ = strconv.Atoi(s.NbReadPackets)
	}

	return ports.VideoInfo{
		Codec:      s.CodecName,
		FPS:        fps,
		FrameCount: frames,
		Size:       ports.Dimension{Width: s.Width, Height: s.Height},
	}, nil
}

// parseRate converts an ffprobe rational such as "30000/1001" to whole frames
// per second, truncated. Unknown rates ("0/0", "") yield 0.
func parseRate(rate string) int {
	num, den, ok := strings.Cut(rate, "/")
	if !ok {
		v, err := strconv.ParseFloat(rate, 64)
		if err != nil {
			return 0
		}
		return int(v)
	}
	n, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return 0
	}
	d, err := strconv.ParseFloat(den, 64)
	if err != nil || d == 0 {
		return 0
	}
	return int(n / d)
}

var _ ports.Prober = (*FFprobe)(nil)
