package main

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/ideamans/go-l10n"
	"github.com/urfave/cli/v2"

	"github.com/user/videostream/pkg/adapters/filesink"
	"github.com/user/videostream/pkg/adapters/ggrenderer"
	"github.com/user/videostream/pkg/adapters/nullsink"
	"github.com/user/videostream/pkg/adapters/osfilesystem"
	"github.com/user/videostream/pkg/adapters/smartsource"
	"github.com/user/videostream/pkg/adapters/softscene"
	"github.com/user/videostream/pkg/config"
	"github.com/user/videostream/pkg/framesink"
	"github.com/user/videostream/pkg/metrics"
	"github.com/user/videostream/pkg/pipeline"
	"github.com/user/videostream/pkg/ports"
	"github.com/user/videostream/pkg/step"
)

func playCommand() *cli.Command {
	return &cli.Command{
		Name:      "play",
		Usage:     l10n.T("Play a video into a software rendering context"),
		ArgsUsage: "FILE",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "identifier",
				Aliases: []string{"i"},
				Value:   step.Name,
				Usage:   l10n.T("Step identifier"),
			},
			&cli.StringFlag{
				Name:    "backend",
				Aliases: []string{"b"},
				Usage:   l10n.T("Decoder backend (auto, ffmpeg, gocv)"),
			},
			&cli.StringFlag{
				Name:  "ffmpeg-path",
				Usage: l10n.T("Path to the ffmpeg binary"),
			},
			&cli.DurationFlag{
				Name:    "duration",
				Aliases: []string{"d"},
				Usage:   l10n.T("Stop playback after this duration"),
			},
			&cli.IntFlag{
				Name:    "frames",
				Aliases: []string{"n"},
				Usage:   l10n.T("Stop playback after this many frames"),
			},
			&cli.BoolFlag{
				Name:  "debug",
				Usage: l10n.T("Write the descriptor and surface snapshots"),
			},
			&cli.StringFlag{
				Name:  "debug-dir",
				Usage: l10n.T("Directory for debug output"),
			},
			&cli.StringFlag{
				Name:  "metrics-addr",
				Usage: l10n.T("Serve Prometheus metrics on this address"),
			},
		},
		Action: runPlay,
	}
}

func applyPlayFlags(c *cli.Context, cfg *config.Config) error {
	if c.IsSet("backend") {
		cfg.Backend = c.String("backend")
	}
	if c.IsSet("ffmpeg-path") {
		cfg.FFmpegPath = c.String("ffmpeg-path")
	}
	if c.IsSet("debug") {
		cfg.Debug = c.Bool("debug")
	}
	if c.IsSet("debug-dir") {
		cfg.DebugDir = c.String("debug-dir")
	}
	if c.IsSet("metrics-addr") {
		cfg.MetricsAddr = c.String("metrics-addr")
	}
	return cfg.Validate()
}

func runPlay(c *cli.Context) error {
	if c.NArg() != 1 {
		return cli.Exit(l10n.T("A video file argument is required"), 2)
	}
	path := c.Args().First()

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	if err := applyPlayFlags(c, &cfg); err != nil {
		return err
	}
	log := newLogger(c, cfg)

	ctx, cancel := context.WithCancel(c.Context)
	defer cancel()
	if d := c.Duration("duration"); d > 0 {
		ctx, cancel = context.WithTimeout(ctx, d)
		defer cancel()
	}

	m := metrics.NewPlayback()
	if cfg.MetricsAddr != "" {
		shutdown := serveMetrics(ctx, cfg.MetricsAddr, m, log)
		defer shutdown()
	}

	renderer := ggrenderer.New()
	scene := softscene.New(renderer, softscene.Options{
		Background:  config.ParseColor(cfg.Background),
		TextureUnit: framesink.TextureUnit,
	})
	var sink ports.DebugSink = nullsink.New()
	if cfg.Debug {
		sink = filesink.New(cfg.DebugDir, osfilesystem.New(), renderer)
	}

	// Assigned after Execute; OnFrame only runs during Play.
	var surface ports.Surface
	var pushed atomic.Int64
	limit := c.Int("frames")
	srcOpts := cfg.SourceOptions()
	srcOpts.Metrics = m
	srcOpts.OnFrame = func(index int) {
		n := int(pushed.Add(1))
		if sink.Enabled() && cfg.SnapshotEvery > 0 && index%cfg.SnapshotEvery == 0 {
			snapshot(log, sink, surface, index, cfg.SurfaceWidth, cfg.SurfaceHeight)
		}
		if limit > 0 && n >= limit {
			cancel()
		}
	}

	st := step.New(path, smartsource.NewFactory(log, cfg.DecoderOptions()), log, step.Options{
		Source:      srcOpts,
		PixelFormat: cfg.Format(),
		Sink:        sink,
	})
	defer st.Close()

	st.SetIdentifier(c.String("identifier"))
	st.Configure(step.NewHeadlessDialog())
	if !st.IsConfigured() {
		return cli.Exit(l10n.F("Step %s is not configured", st.Identifier()), 1)
	}

	playback := pipeline.StageFunc[step.Outputs, int](func(ctx context.Context, out step.Outputs) (int, error) {
		surface = out.Descriptor.Surface()
		size := out.Descriptor.ImageDimensions()
		log.Info("Playing %s: %d fps, %d frames, %dx%d", path, out.Descriptor.FPS(), out.Descriptor.FrameCount(), size.Width, size.Height)
		snapshot(log, sink, surface, out.Source.CurrentFrameIndex(), cfg.SurfaceWidth, cfg.SurfaceHeight)

		if err := out.Source.Play(ctx); err != nil {
			return 0, err
		}
		log.Info("Playback finished at frame %d", out.Source.CurrentFrameIndex())
		return int(pushed.Load()), nil
	})

	played, err := pipeline.Chain[step.Inputs, step.Outputs, int](st.AsStage(), playback).
		Execute(ctx, step.Inputs{Context: scene, FilePath: path})
	if err != nil {
		return err
	}
	fmt.Fprintln(c.App.Writer, l10n.F("Played %d frames", played))
	return nil
}

func snapshot(log ports.Logger, sink ports.DebugSink, surface ports.Surface, index, width, height int) {
	if !sink.Enabled() {
		return
	}
	img, err := surface.Render(width, height)
	if err != nil {
		log.Warn("Failed to render snapshot %d: %s", index, err)
		return
	}
	if err := sink.SaveSnapshot(index, img); err != nil {
		log.Warn("Failed to save snapshot %d: %s", index, err)
	}
}
