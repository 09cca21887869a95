package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/starford/notedex/internal"
	pkgconfig "github.com/starford/notedex/pkg/config"
)

// newApp builds the notedex command tree. Command output goes to stdout;
// logs go to stderr.
func newApp(stdin io.Reader, stdout io.Writer) *cli.Command {
	return &cli.Command{
		Name:    "notedex",
		Usage:   "Parse, convert and index Markdown notes with metadata frontmatter",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file (YAML, or TOML by extension)",
				DefaultText: "notedex.yaml",
				Value:       "notedex.yaml",
				Sources:     cli.EnvVars("NOTEDEX_CONFIG"),
			},
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "Enable debug logging",
			},
		},
		Commands: []*cli.Command{
			ingestCommand(stdout),
			searchCommand(stdout),
			renderCommand(stdin, stdout),
			convertCommand(stdin, stdout),
			watchCommand(),
			serveCommand(),
			mcpCommand(),
		},
	}
}

// loadConfig reads the config file named by --config, falling back to
// defaults when it does not exist, and builds the stderr logger.
func loadConfig(cmd *cli.Command) (*internal.Config, *slog.Logger, error) {
	cfg := internal.NewDefaultConfig()
	if err := pkgconfig.LoadOptional(cmd.String("config"), cfg); err != nil {
		return nil, nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if cmd.Bool("verbose") {
		cfg.App.LogLevel = slog.LevelDebug
	}
	logger := internal.NewLogger(os.Stderr, cfg.App.LogLevel)
	slog.SetDefault(logger)
	return cfg, logger, nil
}

// readInput returns the named file, or stdin for "" and "-".
func readInput(stdin io.Reader, name string) ([]byte, error) {
	if name == "" || name == "-" {
		return io.ReadAll(stdin)
	}
	return os.ReadFile(name)
}
