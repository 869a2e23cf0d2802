// Package framesource owns a video decoder and pushes its frames into a
// render target at the video's frame rate.
package framesource

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/user/videostream/pkg/framesink"
	"github.com/user/videostream/pkg/metrics"
	"github.com/user/videostream/pkg/ports"
)

var (
	// ErrCannotOpen is returned when the video file cannot be opened or has no frames.
	ErrCannotOpen = errors.New("framesource: cannot open video")

	// ErrInvalidFrameRate is returned when the video reports no frame rate and no fallback is set.
	ErrInvalidFrameRate = errors.New("framesource: invalid frame rate")

	// ErrEndOfStream is returned when no frame can be read even after rewinding.
	ErrEndOfStream = errors.New("framesource: end of stream")

	// ErrNotOpen is returned when frames are requested before Open.
	ErrNotOpen = errors.New("framesource: source not open")

	// ErrAlreadyOpen is returned when Open is called twice.
	ErrAlreadyOpen = errors.New("framesource: source already open")

	// ErrClosed is returned when the source is used after Close.
	ErrClosed = errors.New("framesource: source closed")

	// ErrAlreadyPlaying is returned when Play is called while playback is running.
	ErrAlreadyPlaying = errors.New("framesource: already playing")
)

// Options configures playback behavior.
type Options struct {
	// FallbackFPS is used when the video reports a frame rate of 0.
	// When it is 0 as well, Open fails with ErrInvalidFrameRate.
	FallbackFPS int

	// RewindRetries bounds how many times a read at end of stream rewinds
	// to frame 0 and retries. Values below 1 are treated as 1.
	RewindRetries int

	// Metrics receives playback observations. May be nil.
	Metrics *metrics.Playback

	// OnFrame is called after each frame pushed by AdvanceFrame with the new frame index.
	OnFrame func(index int)
}

// DefaultOptions returns Options with default values.
func DefaultOptions() Options {
	return Options{
		RewindRetries: 1,
	}
}

// Source reads frames from a decoder and forwards them to a frame sink.
type Source struct {
	decoder ports.FrameDecoder
	sink    *framesink.Adapter
	logger  ports.Logger
	opts    Options

	mu          sync.Mutex
	fileName    string
	info        ports.VideoInfo
	fps         int
	totalFrames int
	current     int
	size        ports.Dimension
	last        []byte
	opened      bool
	closed      bool

	playMu  sync.Mutex
	playing bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// New creates a Source. The decoder is owned by the Source and released by Close.
func New(decoder ports.FrameDecoder, sink *framesink.Adapter, logger ports.Logger, opts Options) *Source {
	if opts.RewindRetries < 1 {
		opts.RewindRetries = 1
	}
	return &Source{
		decoder: decoder,
		sink:    sink,
		logger:  logger.WithComponent("framesource"),
		opts:    opts,
	}
}

// Open opens filename, reads its metadata and pushes the first frame into the
// render target. It returns the frame dimensions.
func (s *Source) Open(ctx context.Context, filename string) (ports.Dimension, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ports.Dimension{}, ErrClosed
	}
	if s.opened {
		return ports.Dimension{}, ErrAlreadyOpen
	}

	s.logger.Debug("Opening %s", filename)
	info, err := s.decoder.Open(ctx, filename)
	if err != nil {
		return ports.Dimension{}, fmt.Errorf("%w %s: %w", ErrCannotOpen, filename, err)
	}

	fps := info.FPS
	if fps <= 0 {
		if s.opts.FallbackFPS <= 0 {
			s.decoder.Close()
			return ports.Dimension{}, fmt.Errorf("%w: %s reports %d fps", ErrInvalidFrameRate, filename, info.FPS)
		}
		s.logger.Warn("Frame rate unavailable, using fallback %d fps", s.opts.FallbackFPS)
		fps = s.opts.FallbackFPS
	}

	frame, err := s.decoder.ReadFrame()
	if err != nil {
		s.decoder.Close()
		return ports.Dimension{}, fmt.Errorf("%w %s: read first frame: %w", ErrCannotOpen, filename, err)
	}

	if err := s.sink.EnsureRenderTarget(frame.Size.Width, frame.Size.Height, frame.Data); err != nil {
		s.decoder.Close()
		return ports.Dimension{}, fmt.Errorf("init render target: %w", err)
	}

	s.fileName = filename
	s.info = info
	s.fps = fps
	s.totalFrames = info.FrameCount
	s.size = frame.Size
	s.last = frame.Data
	s.current = 1
	s.opened = true

	s.opts.Metrics.ObserveOpen(fps)
	s.opts.Metrics.ObservePush(s.current)
	s.logger.Info("Opened %s: %dx%d, %d fps, %d frames",
		filename, frame.Size.Width, frame.Size.Height, fps, info.FrameCount)

	return frame.Size, nil
}

// AdvanceFrame reads the next frame and pushes it to the sink. At end of stream
// the decoder is rewound to frame 0, so playback loops.
func (s *Source) AdvanceFrame() error {
	s.mu.Lock()
	index, err := s.advanceLocked()
	s.mu.Unlock()

	if err != nil {
		return err
	}
	if s.opts.OnFrame != nil {
		s.opts.OnFrame(index)
	}
	return nil
}

func (s *Source) advanceLocked() (int, error) {
	if s.closed {
		return 0, ErrClosed
	}
	if !s.opened {
		return 0, ErrNotOpen
	}

	frame, err := s.decoder.ReadFrame()
	for attempt := 1; errors.Is(err, io.EOF) && attempt <= s.opts.RewindRetries; attempt++ {
		s.logger.Debug("End of stream, rewinding (attempt %d)", attempt)
		s.opts.Metrics.ObserveRewind()
		if rerr := s.decoder.Rewind(); rerr != nil {
			return 0, fmt.Errorf("rewind: %w", rerr)
		}
		frame, err = s.decoder.ReadFrame()
	}
	if errors.Is(err, io.EOF) {
		s.opts.Metrics.ObserveReadFailure()
		return 0, fmt.Errorf("%w: %s after %d rewinds", ErrEndOfStream, s.fileName, s.opts.RewindRetries)
	}
	if err != nil {
		s.opts.Metrics.ObserveReadFailure()
		return 0, fmt.Errorf("read frame: %w", err)
	}

	if err := s.sink.PushFrame(frame.Data); err != nil {
		return 0, fmt.Errorf("push frame: %w", err)
	}

	s.last = frame.Data
	s.current++
	s.opts.Metrics.ObservePush(s.current)
	s.logger.Debug("Pushed frame %d", s.current)
	return s.current, nil
}

// Interval returns the timer period, 1000/fps milliseconds.
func (s *Source) Interval() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.intervalLocked()
}

func (s *Source) intervalLocked() time.Duration {
	if s.fps <= 0 {
		return 0
	}
	return time.Duration(1000/s.fps) * time.Millisecond
}

// Play advances frames on a ticker until ctx is cancelled or Stop is called.
// It returns nil when stopped and the advance error when playback fails.
func (s *Source) Play(ctx context.Context) error {
	s.mu.Lock()
	if !s.opened {
		s.mu.Unlock()
		return ErrNotOpen
	}
	interval := s.intervalLocked()
	s.mu.Unlock()
	if interval <= 0 {
		interval = time.Millisecond
	}

	s.playMu.Lock()
	if s.playing {
		s.playMu.Unlock()
		return ErrAlreadyPlaying
	}
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	s.playing = true
	s.cancel = cancel
	s.done = done
	s.playMu.Unlock()

	defer func() {
		cancel()
		s.playMu.Lock()
		s.playing = false
		s.cancel = nil
		s.done = nil
		s.playMu.Unlock()
		close(done)
	}()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.logger.Debug("Playback started at %v interval", interval)
	frames := 0
	for {
		select {
		case <-ctx.Done():
			s.logger.Debug("Playback stopped after %d frames", frames)
			return nil
		case <-ticker.C:
			if err := s.AdvanceFrame(); err != nil {
				if errors.Is(err, ErrClosed) {
					s.logger.Debug("Playback stopped after %d frames", frames)
					return nil
				}
				s.logger.Error("Playback failed: %s", err)
				return err
			}
			frames++
		}
	}
}

// Playing reports whether Play is running.
func (s *Source) Playing() bool {
	s.playMu.Lock()
	defer s.playMu.Unlock()
	return s.playing
}

// Stop cancels a running Play and waits for it to return.
func (s *Source) Stop() {
	s.playMu.Lock()
	cancel, done := s.cancel, s.done
	s.playMu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// Close stops playback, releases the decoder and removes the render target
// from the scene context. It is safe to call more than once.
func (s *Source) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.opened = false
	s.mu.Unlock()

	// A Play that starts after this point sees closed and stops on its first tick.
	s.Stop()

	var errs []error
	if err := s.decoder.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close decoder: %w", err))
	}
	if err := s.sink.Release(); err != nil {
		errs = append(errs, fmt.Errorf("release render target: %w", err))
	}
	s.logger.Debug("Frame source closed")
	return errors.Join(errs...)
}

// FileName returns the name of the open file.
func (s *Source) FileName() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fileName
}

// FPS returns the playback frame rate.
func (s *Source) FPS() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fps
}

// TotalFrames returns the frame count reported by the container.
func (s *Source) TotalFrames() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.totalFrames
}

// CurrentFrameIndex returns the number of frames pushed so far. It grows
// without bound; only the decoder position wraps.
func (s *Source) CurrentFrameIndex() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Dimensions returns the frame dimensions established by the first frame.
func (s *Source) Dimensions() ports.Dimension {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.size
}

// CurrentFrame returns a copy of the last pushed frame buffer.
func (s *Source) CurrentFrame() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]byte(nil), s.last...)
}

// Info returns the metadata reported by the decoder.
func (s *Source) Info() ports.VideoInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.info
}

// Sink returns the frame sink the source pushes into.
func (s *Source) Sink() *framesink.Adapter {
	return s.sink
}
