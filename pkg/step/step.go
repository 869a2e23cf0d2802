// Package step implements the videostream workflow step: it takes a rendering
// context and a video file path, and provides a frame source and a video descriptor.
package step

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/user/videostream/pkg/descriptor"
	"github.com/user/videostream/pkg/framesink"
	"github.com/user/videostream/pkg/framesource"
	"github.com/user/videostream/pkg/pipeline"
	"github.com/user/videostream/pkg/ports"
)

const (
	// Name is the step name registered with the workflow host.
	Name = "videostream"

	// Category is the palette category of the step.
	Category = "Utility"
)

var (
	// ErrNotConfigured is returned when Execute is called before a valid configuration.
	ErrNotConfigured = errors.New("step: not configured")

	// ErrMissingPortData is returned when Execute is called without both inputs.
	ErrMissingPortData = errors.New("step: missing port data")

	// ErrInvalidPort is returned for an index that is not a port of the required direction.
	ErrInvalidPort = errors.New("step: invalid port index")

	// ErrPortType is returned when port data has the wrong type.
	ErrPortType = errors.New("step: wrong port data type")
)

// State is the configuration and execution state of a step.
type State int

const (
	StateUnconfigured State = iota
	StateConfigured
	StateExecuted
)

// String returns the lower-case state name.
func (s State) String() string {
	switch s {
	case StateUnconfigured:
		return "unconfigured"
	case StateConfigured:
		return "configured"
	case StateExecuted:
		return "executed"
	default:
		return "unknown"
	}
}

// DecoderFactory creates a fresh decoder for each execution.
type DecoderFactory func() (ports.FrameDecoder, error)

// Options configures a step.
type Options struct {
	Source      framesource.Options
	PixelFormat ports.PixelFormat

	// AutoPlay starts playback after a successful Execute. Playback runs until Close
	// or the next Execute.
	AutoPlay bool

	// Sink receives the descriptor JSON after each execution. May be nil.
	Sink ports.DebugSink
}

// Inputs are the data of the uses ports.
type Inputs struct {
	Context  ports.SceneContext
	FilePath string
}

// Outputs are the data of the provides ports.
type Outputs struct {
	Source     *framesource.Source
	Descriptor *descriptor.Descriptor
}

// Step adapts a frame source to the workflow host's step contract.
type Step struct {
	location   string
	newDecoder DecoderFactory
	logger     ports.Logger
	opts       Options

	// execMu serializes Execute and Close. It is never taken by accessors.
	execMu sync.Mutex

	mu                    sync.Mutex
	config                Config
	configured            bool
	state                 State
	identifierOccursCount func(string) int
	onConfigured          func()
	onDone                func()

	sceneContext ports.SceneContext
	filePath     string
	source       *framesource.Source
	descriptor   *descriptor.Descriptor
}

// New creates an unconfigured step stored at location.
func New(location string, newDecoder DecoderFactory, logger ports.Logger, opts Options) *Step {
	return &Step{
		location:   location,
		newDecoder: newDecoder,
		logger:     logger.WithComponent("step"),
		opts:       opts,
		config:     NewConfig(),
	}
}

// Name returns the registered step name.
func (s *Step) Name() string { return Name }

// Category returns the palette category.
func (s *Step) Category() string { return Category }

// Location returns the directory the workflow stores the step in.
func (s *Step) Location() string { return s.location }

// Ports returns the port triples in index order.
func (s *Step) Ports() []Port { return Ports() }

// State returns the current state.
func (s *Step) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// IsConfigured reports whether the configuration passed validation.
func (s *Step) IsConfigured() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.configured
}

// SetIdentifierOccursCount installs the host's identifier uniqueness check.
func (s *Step) SetIdentifierOccursCount(fn func(identifier string) int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.identifierOccursCount = fn
}

// OnConfigured registers the host callback invoked after Configure.
func (s *Step) OnConfigured(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onConfigured = fn
}

// OnDone registers the host callback invoked when Execute completes.
func (s *Step) OnDone(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onDone = fn
}

// Identifier returns the identifier, unique within a workflow.
func (s *Step) Identifier() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.config.Identifier()
}

// SetIdentifier is called by the host when the step is loaded.
func (s *Step) SetIdentifier(identifier string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.config[IdentifierKey] = identifier
}

// Config returns a copy of the configuration.
func (s *Step) Config() Config {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.config.Clone()
}

// Configure runs the configuration dialog and adopts its configuration when accepted.
func (s *Step) Configure(dialog ports.ConfigDialog) {
	s.mu.Lock()
	dialog.SetIdentifierOccursCount(s.identifierOccursCount)
	dialog.SetConfig(s.config.Clone())
	dialog.Validate()
	s.mu.Unlock()

	accepted := dialog.Exec()

	s.mu.Lock()
	if accepted {
		s.config = Config(dialog.GetConfig())
	}
	s.setConfiguredLocked(dialog.Validate())
	observer := s.onConfigured
	s.mu.Unlock()

	if observer != nil {
		observer()
	}
}

func (s *Step) setConfiguredLocked(ok bool) {
	s.configured = ok
	switch {
	case !ok:
		s.state = StateUnconfigured
	case s.state == StateUnconfigured:
		s.state = StateConfigured
		s.logger.Info("Step %s configured", s.config.Identifier())
	}
}

// Serialize encodes the configuration as sorted-key JSON.
func (s *Step) Serialize() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.config.Serialize()
}

// Deserialize merges the JSON configuration into the current one and
// re-validates it with the dialog's rule.
func (s *Step) Deserialize(text string) error {
	parsed, err := ParseConfig(text)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.config.Merge(parsed)
	s.logger.Debug("Configuration merged: %d keys", len(parsed))

	d := NewHeadlessDialog()
	d.SetIdentifierOccursCount(s.identifierOccursCount)
	d.SetConfig(s.config)
	s.setConfiguredLocked(d.Validate())
	return nil
}

// SetPortData sets the data of a uses port.
func (s *Step) SetPortData(index int, data any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch index {
	case PortContext:
		ctx, ok := data.(ports.SceneContext)
		if !ok {
			return fmt.Errorf("%w: port %d wants a rendering context, got %T", ErrPortType, index, data)
		}
		s.sceneContext = ctx
	case PortFilePath:
		path, ok := data.(string)
		if !ok {
			return fmt.Errorf("%w: port %d wants a file path, got %T", ErrPortType, index, data)
		}
		s.filePath = path
	default:
		return fmt.Errorf("%w: %d is not a uses port", ErrInvalidPort, index)
	}
	return nil
}

// PortData returns the data of a provides port, or nil before execution.
func (s *Step) PortData(index int) (any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch index {
	case PortFrameSource:
		if s.source == nil {
			return nil, nil
		}
		return s.source, nil
	case PortDescriptor:
		if s.descriptor == nil {
			return nil, nil
		}
		return s.descriptor, nil
	default:
		return nil, fmt.Errorf("%w: %d is not a provides port", ErrInvalidPort, index)
	}
}

// Execute opens the input file, builds a frame source and a descriptor and
// publishes them on the provides ports. Every call rebuilds both; a source
// from a previous call is closed first.
func (s *Step) Execute(ctx context.Context) error {
	s.execMu.Lock()
	defer s.execMu.Unlock()

	s.mu.Lock()
	if !s.configured {
		s.mu.Unlock()
		return ErrNotConfigured
	}
	if s.sceneContext == nil || s.filePath == "" {
		s.mu.Unlock()
		return ErrMissingPortData
	}
	identifier := s.config.Identifier()
	scene, path := s.sceneContext, s.filePath
	previous := s.takeSourceLocked()
	s.mu.Unlock()

	s.logger.Info("Executing step %s", identifier)
	s.release(previous)

	src, desc, err := s.build(ctx, scene, path)
	if err != nil {
		s.logger.Error("Failed to open %s: %s", path, err)
		return err
	}

	s.mu.Lock()
	s.source = src
	s.descriptor = desc
	s.state = StateExecuted
	done := s.onDone
	s.mu.Unlock()

	if s.opts.Sink != nil && s.opts.Sink.Enabled() {
		if data, err := json.MarshalIndent(desc, "", "  "); err == nil {
			s.opts.Sink.SaveDescriptorJSON(data)
		}
	}

	if s.opts.AutoPlay {
		go func() {
			err := src.Play(context.WithoutCancel(ctx))
			if err != nil && !errors.Is(err, framesource.ErrNotOpen) && !errors.Is(err, framesource.ErrClosed) {
				s.logger.Error("Playback failed: %s", err)
			}
		}()
	}

	s.logger.Info("Step %s executed", identifier)
	if done != nil {
		done()
	}
	return nil
}

func (s *Step) build(ctx context.Context, scene ports.SceneContext, path string) (*framesource.Source, *descriptor.Descriptor, error) {
	dec, err := s.newDecoder()
	if err != nil {
		return nil, nil, fmt.Errorf("create decoder: %w", err)
	}

	sink := framesink.New(scene, s.opts.PixelFormat, s.logger)
	src := framesource.New(dec, sink, s.logger, s.opts.Source)

	size, err := src.Open(ctx, path)
	if err != nil {
		src.Close()
		return nil, nil, err
	}

	desc, err := descriptor.Build(descriptor.Params{
		Context:    scene,
		FileName:   path,
		FPS:        src.FPS(),
		FrameCount: src.TotalFrames(),
		Size:       size,
	})
	if err != nil {
		src.Close()
		return nil, nil, fmt.Errorf("build descriptor: %w", err)
	}
	return src, desc, nil
}

// takeSourceLocked detaches the published source so it can be closed without
// holding s.mu. Closing waits for playback, whose OnFrame hook may call back
// into the step.
func (s *Step) takeSourceLocked() *framesource.Source {
	src := s.source
	s.source = nil
	s.descriptor = nil
	return src
}

func (s *Step) release(src *framesource.Source) {
	if src == nil {
		return
	}
	s.logger.Debug("Releasing previous frame source")
	if err := src.Close(); err != nil {
		s.logger.Warn("Failed to close decoder: %s", err)
	}
}

// AsStage exposes the step as a pipeline stage for programmatic hosts.
func (s *Step) AsStage() pipeline.Stage[Inputs, Outputs] {
	return pipeline.Named[Inputs, Outputs](Name, pipeline.StageFunc[Inputs, Outputs](func(ctx context.Context, in Inputs) (Outputs, error) {
		if err := s.SetPortData(PortContext, in.Context); err != nil {
			return Outputs{}, err
		}
		if err := s.SetPortData(PortFilePath, in.FilePath); err != nil {
			return Outputs{}, err
		}
		if err := s.Execute(ctx); err != nil {
			return Outputs{}, err
		}

		s.mu.Lock()
		defer s.mu.Unlock()
		return Outputs{Source: s.source, Descriptor: s.descriptor}, nil
	}))
}

// Close stops playback and releases the decoder of the last execution.
func (s *Step) Close() error {
	s.execMu.Lock()
	defer s.execMu.Unlock()

	s.mu.Lock()
	src := s.takeSourceLocked()
	s.mu.Unlock()

	if src == nil {
		return nil
	}
	return src.Close()
}
