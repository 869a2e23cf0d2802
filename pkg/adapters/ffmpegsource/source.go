// Package ffmpegsource decodes video files to raw frames by piping them
// through an external ffmpeg process.
package ffmpegsource

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"sync"

	"github.com/user/videostream/pkg/ports"
)

var (
	// ErrFFmpegNotFound is returned when no ffmpeg binary can be located.
	ErrFFmpegNotFound = errors.New("ffmpegsource: ffmpeg not found")

	// ErrFFprobeNotFound is returned when no ffprobe binary can be located.
	ErrFFprobeNotFound = errors.New("ffmpegsource: ffprobe not found")

	// ErrNoVideoStream is returned when the file has no video stream.
	ErrNoVideoStream = errors.New("ffmpegsource: no video stream")

	// ErrNotOpen is returned when frames are read before Open or after Close.
	ErrNotOpen = errors.New("ffmpegsource: decoder not open")

	// ErrUnknownSize is returned when the frame dimensions cannot be determined.
	ErrUnknownSize = errors.New("ffmpegsource: unknown frame size")
)

// Options configures a Decoder.
type Options struct {
	// Format is the pixel format of decoded frames. Defaults to BGR.
	Format ports.PixelFormat

	// Prober is tried before ffprobe. May be nil.
	Prober ports.Prober
}

// Decoder implements ports.FrameDecoder on top of an ffmpeg rawvideo pipe.
// Rewind restarts the process from the beginning of the file.
type Decoder struct {
	opts    Options
	logger  ports.Logger
	ffprobe *FFprobe

	mu         sync.Mutex
	ffmpegPath string
	path       string
	info       ports.VideoInfo
	frameSize  int
	cmd        *exec.Cmd
	stdout     io.ReadCloser
	reader     *bufio.Reader
	stderr     *bytes.Buffer
}

// New creates a Decoder.
func New(logger ports.Logger, opts Options) *Decoder {
	return &Decoder{
		opts:    opts,
		logger:  logger.WithComponent("ffmpeg"),
		ffprobe: NewFFprobe(logger),
	}
}

// Open probes path and starts decoding it.
func (d *Decoder) Open(ctx context.Context, path string) (ports.VideoInfo, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	ffmpegPath, err := FindFFmpeg()
	if err != nil {
		return ports.VideoInfo{}, err
	}

	info, err := d.probe(ctx, path)
	if err != nil {
		return ports.VideoInfo{}, err
	}
	if info.Size.Width <= 0 || info.Size.Height <= 0 {
		return ports.VideoInfo{}, fmt.Errorf("%w: %s", ErrUnknownSize, path)
	}

	d.ffmpegPath = ffmpegPath
	d.path = path
	d.info = info
	d.frameSize = info.Size.BufferSize(d.opts.Format)

	if err := d.startLocked(); err != nil {
		return ports.VideoInfo{}, err
	}
	return info, nil
}

func (d *Decoder) probe(ctx context.Context, path string) (ports.VideoInfo, error) {
	if d.opts.Prober != nil {
		info, err := d.opts.Prober.Probe(ctx, path)
		if err == nil && info.Size.Width > 0 && info.FPS > 0 {
			return info, nil
		}
		if err != nil {
			d.logger.Debug("MP4 probe failed, falling back to ffprobe: %s", err)
		}
	}
	return d.ffprobe.Probe(ctx, path)
}

// args keeps frames in coded orientation. The probed size is the coded size,
// and autorotated frames of a rotated video would not match it.
func (d *Decoder) args() []string {
	return []string{
		"-loglevel", "error",
		"-nostdin",
		"-noautorotate",
		"-i", d.path,
		"-an",
		"-f", "rawvideo",
		"-pix_fmt", d.opts.Format.String(),
		"pipe:1",
	}
}

func (d *Decoder) startLocked() error {
	args := d.args()
	d.logger.Debug("Starting ffmpeg: %s", strings.Join(args, " "))

	cmd := exec.Command(d.ffmpegPath, args...)
	stderr := &bytes.Buffer{}
	cmd.Stderr = stderr

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("failed to get stdout pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start ffmpeg: %w", err)
	}

	d.cmd = cmd
	d.stdout = stdout
	d.reader = bufio.NewReaderSize(stdout, d.frameSize)
	d.stderr = stderr
	return nil
}

// ReadFrame returns the next frame, or io.EOF when the stream is exhausted.
func (d *Decoder) ReadFrame() (ports.Frame, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.reader == nil {
		return ports.Frame{}, ErrNotOpen
	}

	buf := make([]byte, d.frameSize)
	if _, err := io.ReadFull(d.reader, buf); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return ports.Frame{}, io.EOF
		}
		return ports.Frame{}, fmt.Errorf("read frame: %w", err)
	}

	return ports.Frame{Data: buf, Size: d.info.Size, Format: d.opts.Format}, nil
}

// Rewind restarts decoding from frame 0.
func (d *Decoder) Rewind() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.cmd == nil {
		return ErrNotOpen
	}
	d.stopLocked()
	return d.startLocked()
}

func (d *Decoder) stopLocked() error {
	if d.cmd == nil {
		return nil
	}
	if d.cmd.Process != nil {
		d.cmd.Process.Kill()
	}
	err := d.cmd.Wait()
	d.cmd = nil
	d.stdout = nil
	d.reader = nil

	// Killed on purpose; only report failures ffmpeg explained.
	if err != nil && d.stderr != nil && d.stderr.Len() > 0 {
		return fmt.Errorf("ffmpeg exited: %w\nstderr: %s", err, d.stderr.String())
	}
	return nil
}

// Close stops the ffmpeg process.
func (d *Decoder) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.stopLocked()
}

// Info returns the metadata of the open file.
func (d *Decoder) Info() ports.VideoInfo {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.info
}

var _ ports.FrameDecoder = (*Decoder)(nil)
