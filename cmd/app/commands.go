package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/fatih/color"
	"github.com/urfave/cli/v3"

	"github.com/starford/notedex/internal"
	"github.com/starford/notedex/internal/document"
	"github.com/starford/notedex/internal/ingest"
	"github.com/starford/notedex/internal/legacy"
	"github.com/starford/notedex/internal/mcpserver"
	"github.com/starford/notedex/internal/preview"
	"github.com/starford/notedex/internal/search"
	"github.com/starford/notedex/internal/storage"
)

func ingestCommand(stdout io.Writer) *cli.Command {
	return &cli.Command{
		Name:      "ingest",
		Usage:     "Submit note files to the search service",
		ArgsUsage: "[pattern...]",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "legacy", Usage: "Read files in the legacy single-author schema"},
			&cli.BoolFlag{Name: "changed-only", Usage: "Skip files unchanged since their last submission"},
			&cli.IntFlag{Name: "workers", Aliases: []string{"w"}, Usage: "Files processed concurrently"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, logger, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			applyIngestFlags(cmd, cfg)

			patterns := cmd.Args().Slice()
			if len(patterns) == 0 {
				patterns = cfg.Ingest.Patterns
			}
			if len(patterns) == 0 {
				return errors.New("no patterns given and ingest.patterns is empty")
			}

			c, err := internal.Build(cfg, logger, ingest.WithEventCallback(statusPrinter(stdout)))
			if err != nil {
				return err
			}
			defer c.Close()

			rep, err := c.Service.Ingest(ctx, patterns)
			if err != nil {
				return err
			}
			fmt.Fprintf(stdout, "%d submitted, %d skipped, %d failed\n", rep.Submitted, rep.Skipped, rep.Failed)
			if rep.Failed > 0 {
				return fmt.Errorf("%d of %d files failed", rep.Failed, rep.Submitted+rep.Skipped+rep.Failed)
			}
			return nil
		},
	}
}

func applyIngestFlags(cmd *cli.Command, cfg *internal.Config) {
	if cmd.IsSet("legacy") {
		cfg.Ingest.Legacy = cmd.Bool("legacy")
	}
	if cmd.IsSet("changed-only") {
		cfg.Ingest.ChangedOnly = cmd.Bool("changed-only")
	}
	if cmd.IsSet("workers") {
		cfg.Ingest.Workers = int(cmd.Int("workers"))
	}
}

// statusPrinter prints one colored line per processed file.
func statusPrinter(w io.Writer) ingest.EventCallback {
	ok := color.New(color.FgGreen).SprintFunc()
	bad := color.New(color.FgRed).SprintFunc()
	dim := color.New(color.Faint).SprintFunc()
	return func(ev ingest.Event) {
		switch ev.Kind {
		case ingest.EventSubmitted:
			fmt.Fprintf(w, "%s %s %s\n", ok("✅"), ev.Path, dim(ev.Title))
		case ingest.EventSkipped:
			fmt.Fprintf(w, "%s %s %s\n", dim("·"), ev.Path, dim("unchanged"))
		case ingest.EventFailed:
			fmt.Fprintf(w, "%s %s %s\n", bad("❌"), ev.Path, bad(ev.Error))
		}
	}
}

func searchCommand(stdout io.Writer) *cli.Command {
	return &cli.Command{
		Name:      "search",
		Usage:     "Search submitted notes",
		ArgsUsage: "[query]",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "filter", Aliases: []string{"f"}, Usage: "Filter expression, e.g. 'vim | !bash'"},
			&cli.IntFlag{Name: "limit", Aliases: []string{"n"}, Value: search.DefaultLimit, Usage: "Maximum number of hits"},
			&cli.BoolFlag{Name: "show", Usage: "Render the first hit's body"},
			&cli.BoolFlag{Name: "json", Usage: "Print hits as storage JSON"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, logger, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			c, err := internal.Build(cfg, logger)
			if err != nil {
				return err
			}
			defer c.Close()

			hits, err := c.Service.Search(ctx, search.Query{
				Query:  cmd.Args().First(),
				Filter: cmd.String("filter"),
				Limit:  int(cmd.Int("limit")),
			})
			if err != nil {
				return err
			}
			if cmd.Bool("json") {
				return writeJSON(stdout, hits)
			}

			p := preview.New(stdout)
			if err := p.Hits(hits); err != nil {
				return err
			}
			if cmd.Bool("show") && len(hits) > 0 {
				fmt.Fprintln(stdout)
				return p.Body(hits[0])
			}
			return nil
		},
	}
}

func modeFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "mode",
		Aliases: []string{"m"},
		Value:   document.ModeStorage.String(),
		Usage:   "Rendering mode: storage, disk or human",
	}
}

func renderCommand(stdin io.Reader, stdout io.Writer) *cli.Command {
	return &cli.Command{
		Name:      "render",
		Usage:     "Parse a note and print it in the given mode",
		ArgsUsage: "[file|-]",
		Flags: []cli.Flag{
			modeFlag(),
			&cli.BoolFlag{Name: "legacy", Usage: "Read the note in the legacy schema and convert it"},
			&cli.BoolFlag{Name: "json", Usage: "Print the rendering as JSON"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, logger, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			mode, err := document.ParseMode(cmd.String("mode"))
			if err != nil {
				return err
			}
			name := cmd.Args().First()
			raw, err := readInput(stdin, name)
			if err != nil {
				return err
			}

			c, err := internal.Build(cfg, logger)
			if err != nil {
				return err
			}
			defer c.Close()

			var d *document.Document
			if cmd.Bool("legacy") {
				d, err = c.Service.ConvertLegacy(raw, mode)
			} else {
				d, err = c.Service.Render(raw, mode)
			}
			if err != nil {
				return fmt.Errorf("%s: %w", displayName(name), err)
			}

			switch {
			case cmd.Bool("json"):
				return writeJSON(stdout, d)
			case mode == document.ModeHuman:
				return preview.New(stdout).Body(*d)
			default:
				_, err = io.WriteString(stdout, d.String())
				return err
			}
		},
	}
}

func convertCommand(stdin io.Reader, stdout io.Writer) *cli.Command {
	return &cli.Command{
		Name:      "convert",
		Usage:     "Convert legacy notes to the current schema",
		ArgsUsage: "[file...]",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Usage: "Write note files into this directory instead of stdout"},
			&cli.BoolFlag{Name: "force", Usage: "Overwrite existing note files"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if _, _, err := loadConfig(cmd); err != nil {
				return err
			}
			files := cmd.Args().Slice()
			if len(files) == 0 {
				files = []string{"-"}
			}

			var store *storage.FS
			if out := cmd.String("out"); out != "" {
				var err error
				if store, err = storage.NewFS(out); err != nil {
					return err
				}
			}

			for _, name := range files {
				raw, err := readInput(stdin, name)
				if err != nil {
					return err
				}
				d, err := legacy.ConvertFile(displayName(name), raw, nil)
				if err != nil {
					return err
				}
				if name == "-" || name == "" {
					d.Filename = ""
				}

				if store == nil {
					text, err := storage.NoteText(*d)
					if err != nil {
						return err
					}
					if _, err := stdout.Write(text); err != nil {
						return err
					}
					continue
				}
				path, err := store.WriteNote(*d, cmd.Bool("force"))
				if err != nil {
					return err
				}
				fmt.Fprintf(stdout, "%s -> %s\n", displayName(name), filepath.Join(store.Root(), path))
			}
			return nil
		},
	}
}

func watchCommand() *cli.Command {
	return &cli.Command{
		Name:      "watch",
		Usage:     "Submit notes and re-submit them as they change",
		ArgsUsage: "[pattern...]",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "legacy", Usage: "Read files in the legacy single-author schema"},
			&cli.BoolFlag{Name: "changed-only", Usage: "Skip files unchanged since their last submission"},
			&cli.IntFlag{Name: "workers", Aliases: []string{"w"}, Usage: "Files processed concurrently"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, logger, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			applyIngestFlags(cmd, cfg)

			patterns := cmd.Args().Slice()
			if len(patterns) == 0 {
				patterns = cfg.Ingest.Patterns
			}
			if len(patterns) == 0 {
				return errors.New("no patterns given and ingest.patterns is empty")
			}

			c, err := internal.Build(cfg, logger)
			if err != nil {
				return err
			}
			defer c.Close()

			ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
			defer stop()
			return c.Ingester.Watch(ctx, patterns)
		},
	}
}

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the HTTP API",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, logger, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if err := internal.Run(ctx, internal.WithConfig(cfg), internal.WithLogger(logger)); err != nil {
				return fmt.Errorf("app run error: %w", err)
			}
			return nil
		},
	}
}

func mcpCommand() *cli.Command {
	return &cli.Command{
		Name:  "mcp",
		Usage: "Serve notedex tools over MCP on stdio",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, logger, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			c, err := internal.Build(cfg, logger)
			if err != nil {
				return err
			}
			defer c.Close()

			logger.Info("MCP server starting on stdio")
			return mcpserver.New(c.Service, version).ServeStdio()
		},
	}
}

func displayName(name string) string {
	if name == "" || name == "-" {
		return "<stdin>"
	}
	return name
}
