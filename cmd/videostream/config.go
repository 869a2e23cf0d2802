package main

import (
	"fmt"

	"github.com/ideamans/go-l10n"
	"github.com/urfave/cli/v2"

	"github.com/user/videostream/pkg/adapters/logger"
	"github.com/user/videostream/pkg/adapters/osfilesystem"
	"github.com/user/videostream/pkg/step"
)

func configCommand() *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: l10n.T("Write or check a step configuration"),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "identifier",
				Aliases: []string{"i"},
				Value:   step.Name,
				Usage:   l10n.T("Step identifier"),
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   l10n.T("Write the configuration to a file instead of stdout"),
			},
			&cli.StringFlag{
				Name:  "check",
				Usage: l10n.T("Check an existing step configuration file"),
			},
		},
		Action: runConfig,
	}
}

func runConfig(c *cli.Context) error {
	fs := osfilesystem.New()
	st := step.New("", nil, logger.NewNoop(), step.Options{})

	if path := c.String("check"); path != "" {
		data, err := fs.ReadFile(path)
		if err != nil {
			return err
		}
		if err := st.Deserialize(string(data)); err != nil {
			return err
		}
		if !st.IsConfigured() {
			return cli.Exit(l10n.F("Step %s is not configured", st.Identifier()), 1)
		}
		fmt.Fprintln(c.App.Writer, l10n.F("Step %s configured", st.Identifier()))
		return nil
	}

	st.SetIdentifier(c.String("identifier"))
	st.Configure(step.NewHeadlessDialog())
	if !st.IsConfigured() {
		return cli.Exit(l10n.F("Step %s is not configured", st.Identifier()), 1)
	}

	text, err := st.Serialize()
	if err != nil {
		return err
	}
	if out := c.String("output"); out != "" {
		return fs.WriteFile(out, []byte(text+"\n"))
	}
	fmt.Fprintln(c.App.Writer, text)
	return nil
}
