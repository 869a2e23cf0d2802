package main

import (
	"encoding/json"
	"fmt"

	"github.com/ideamans/go-l10n"
	"github.com/urfave/cli/v2"

	"github.com/user/videostream/pkg/adapters/ffmpegsource"
	"github.com/user/videostream/pkg/adapters/smartsource"
)

func probeCommand() *cli.Command {
	return &cli.Command{
		Name:      "probe",
		Usage:     l10n.T("Show frame rate, frame count and size of a video"),
		ArgsUsage: "FILE",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "json",
				Usage: l10n.T("Print metadata as JSON"),
			},
		},
		Action: runProbe,
	}
}

func runProbe(c *cli.Context) error {
	if c.NArg() != 1 {
		return cli.Exit(l10n.T("A video file argument is required"), 2)
	}
	path := c.Args().First()

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	log := newLogger(c, cfg)
	if cfg.FFmpegPath != "" {
		ffmpegsource.SetFFmpegPath(cfg.FFmpegPath)
	}

	info, err := smartsource.NewProber(log).Probe(c.Context, path)
	if err != nil {
		return fmt.Errorf("probe %s: %w", path, err)
	}

	w := c.App.Writer
	if c.Bool("json") {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(info)
	}

	fmt.Fprintf(w, "%s: %s\n", l10n.T("File"), path)
	fmt.Fprintf(w, "%s: %s\n", l10n.T("Codec"), info.Codec)
	fmt.Fprintf(w, "%s: %d\n", l10n.T("Frame Rate"), info.FPS)
	fmt.Fprintf(w, "%s: %d\n", l10n.T("Frame Count"), info.FrameCount)
	fmt.Fprintf(w, "%s: %dx%d\n", l10n.T("Size"), info.Size.Width, info.Size.Height)
	return nil
}
