// Package smartsource selects a frame decoder backend for the host.
package smartsource

import (
	"context"
	"errors"
	"fmt"

	"github.com/user/videostream/pkg/adapters/ffmpegsource"
	"github.com/user/videostream/pkg/adapters/mp4probe"
	"github.com/user/videostream/pkg/ports"
)

// Backend represents the decoding backend used.
type Backend string

const (
	// BackendAuto prefers OpenCV when compiled in, then ffmpeg.
	BackendAuto Backend = "auto"
	// BackendFFmpeg pipes frames from an ffmpeg process.
	BackendFFmpeg Backend = "ffmpeg"
	// BackendGoCV decodes with OpenCV through gocv (build tag gocv).
	BackendGoCV Backend = "gocv"
)

var (
	// ErrUnknownBackend is returned for a backend name that is not recognised.
	ErrUnknownBackend = errors.New("smartsource: unknown backend")
	// ErrNoDecoderAvailable is returned when the requested backend cannot run here.
	ErrNoDecoderAvailable = errors.New("smartsource: no decoder available")
)

// ParseBackend parses a backend name. The empty string means auto.
func ParseBackend(s string) (Backend, error) {
	switch Backend(s) {
	case "", BackendAuto:
		return BackendAuto, nil
	case BackendFFmpeg, BackendGoCV:
		return Backend(s), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownBackend, s)
	}
}

// Options configures backend selection.
type Options struct {
	Backend Backend

	// FFmpegPath is an optional custom path to the ffmpeg binary.
	FFmpegPath string

	// Format is the pixel format of decoded frames.
	Format ports.PixelFormat
}

// Info describes the selected decoder.
type Info struct {
	Backend Backend
}

// IsGoCVAvailable reports whether the binary was built with OpenCV support.
func IsGoCVAvailable() bool {
	return newGoCV != nil
}

// Resolve returns the backend New would use for opts.
func Resolve(opts Options) (Backend, error) {
	if opts.FFmpegPath != "" {
		ffmpegsource.SetFFmpegPath(opts.FFmpegPath)
	}

	switch opts.Backend {
	case "", BackendAuto:
		if IsGoCVAvailable() {
			return BackendGoCV, nil
		}
		if ffmpegsource.IsAvailable() {
			return BackendFFmpeg, nil
		}
		return "", ErrNoDecoderAvailable
	case BackendGoCV:
		if !IsGoCVAvailable() {
			return "", fmt.Errorf("%w: built without gocv tag", ErrNoDecoderAvailable)
		}
		return BackendGoCV, nil
	case BackendFFmpeg:
		if !ffmpegsource.IsAvailable() {
			return "", fmt.Errorf("%w: %w", ErrNoDecoderAvailable, ffmpegsource.ErrFFmpegNotFound)
		}
		return BackendFFmpeg, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownBackend, opts.Backend)
	}
}

// New creates a decoder for the selected backend.
func New(logger ports.Logger, opts Options) (ports.FrameDecoder, Info, error) {
	backend, err := Resolve(opts)
	if err != nil {
		return nil, Info{}, err
	}

	switch backend {
	case BackendGoCV:
		return newGoCV(logger, opts.Format), Info{Backend: BackendGoCV}, nil
	default:
		dec := ffmpegsource.New(logger, ffmpegsource.Options{
			Format: opts.Format,
			Prober: mp4probe.New(),
		})
		return dec, Info{Backend: BackendFFmpeg}, nil
	}
}

// NewFactory returns a function creating a fresh decoder per call.
func NewFactory(logger ports.Logger, opts Options) func() (ports.FrameDecoder, error) {
	return func() (ports.FrameDecoder, error) {
		dec, _, err := New(logger, opts)
		return dec, err
	}
}

// Prober tries each prober in turn and returns the first complete result.
type Prober struct {
	probers []ports.Prober
	logger  ports.Logger
}

// NewProber reads MP4 headers directly and falls back to ffprobe for other
// containers or incomplete headers.
func NewProber(logger ports.Logger) *Prober {
	return &Prober{
		probers: []ports.Prober{mp4probe.New(), ffmpegsource.NewFFprobe(logger)},
		logger:  logger.WithComponent("probe"),
	}
}

// NewChain creates a Prober over the given probers.
func NewChain(logger ports.Logger, probers ...ports.Prober) *Prober {
	return &Prober{probers: probers, logger: logger.WithComponent("probe")}
}

// Probe returns the first result with a frame rate and a size. When every
// prober fails the errors are joined.
func (p *Prober) Probe(ctx context.Context, path string) (ports.VideoInfo, error) {
	var errs []error
	for i, prober := range p.probers {
		info, err := prober.Probe(ctx, path)
		if err == nil && info.FPS > 0 && info.Size.Width > 0 {
			return info, nil
		}
		if err == nil {
			err = fmt.Errorf("incomplete metadata for %s", path)
		}
		name := proberName(prober)
		if i < len(p.probers)-1 {
			p.logger.Debug("%s probe failed, trying next: %s", name, err)
		} else {
			p.logger.Debug("%s probe failed: %s", name, err)
		}
		errs = append(errs, fmt.Errorf("%s: %w", name, err))
	}
	return ports.VideoInfo{}, errors.Join(errs...)
}

var _ ports.Prober = (*Prober)(nil)

func proberName(p ports.Prober) string {
	if n, ok := p.(interface{ Name() string }); ok {
		return n.Name()
	}
	return fmt.Sprintf("%T", p)
}
