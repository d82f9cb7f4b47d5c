package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/urfave/cli/v3"

	"github.com/starford/mindflow/internal"
	"github.com/starford/mindflow/internal/ai"
	"github.com/starford/mindflow/internal/markdown"
	"github.com/starford/mindflow/internal/models"
	"github.com/starford/mindflow/internal/noteservice"
)

func yesFlag() cli.Flag {
	return &cli.BoolFlag{
		Name:    "yes",
		Aliases: []string{"y"},
		Usage:   "Answer yes to confirmation prompts",
	}
}

// withService opens the configured store for a one-shot command. Logs go to
// stderr so stdout stays clean for output.
func withService(fn func(ctx context.Context, cmd *cli.Command, svc *noteservice.Service) error) cli.ActionFunc {
	return func(ctx context.Context, cmd *cli.Command) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		rt, err := internal.Open(cfg, internal.NewLogger(cfg.App.LogLevel, os.Stderr))
		if err != nil {
			return err
		}
		defer rt.Close()
		return fn(ctx, cmd, rt.Service)
	}
}

func confirmerFor(cmd *cli.Command) noteservice.Confirmer {
	root := cmd.Root()
	return promptConfirmer(root.Reader, root.Writer, cmd.Bool("yes"))
}

// textArg joins the positional arguments, or reads stdin when there are none.
func textArg(cmd *cli.Command) (string, error) {
	if cmd.Args().Len() > 0 {
		return strings.Join(cmd.Args().Slice(), " "), nil
	}
	data, err := io.ReadAll(cmd.Root().Reader)
	if err != nil {
		return "", fmt.Errorf("read stdin: %w", err)
	}
	return strings.TrimRight(string(data), "\n"), nil
}

func printNote(w io.Writer, n models.Note) {
	fmt.Fprintf(w, "%s\t%s\t%s\n", n.ID, n.Type, n.TitleOr("Untitled"))
}

func addCommand() *cli.Command {
	return &cli.Command{
		Name:      "add",
		Usage:     "Save a note, optionally through Magic Format or Summarize",
		ArgsUsage: "[text...] (stdin when omitted; --magic and --summary then need --yes)",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "title", Aliases: []string{"t"}, Usage: "Note title"},
			&cli.StringFlag{Name: "tags", Usage: "Comma-separated tags"},
			&cli.StringFlag{Name: "id", Usage: "Edit this note instead of creating one"},
			&cli.BoolFlag{Name: "magic", Aliases: []string{"m"}, Usage: "Run Magic Format before saving"},
			&cli.BoolFlag{Name: "summary", Aliases: []string{"s"}, Usage: "Summarize before saving"},
			yesFlag(),
		},
		Action: withService(func(ctx context.Context, cmd *cli.Command, svc *noteservice.Service) error {
			if cmd.Bool("magic") && cmd.Bool("summary") {
				return errors.New("--magic and --summary are mutually exclusive")
			}
			// Stdin carries the text, so no answer to the prompt can follow it.
			if cmd.Args().Len() == 0 && (cmd.Bool("magic") || cmd.Bool("summary")) && !cmd.Bool("yes") {
				return errors.New("--yes is required when the text is read from stdin")
			}
			text, err := textArg(cmd)
			if err != nil {
				return err
			}
			d := noteservice.Draft{
				ID:      cmd.String("id"),
				Title:   cmd.String("title"),
				Content: text,
				Tags:    markdown.ParseTagList(cmd.String("tags")),
			}

			var n models.Note
			switch {
			case cmd.Bool("magic"):
				n, err = svc.MagicFormat(ctx, d, confirmerFor(cmd))
			case cmd.Bool("summary"):
				n, err = svc.Summarize(ctx, d, confirmerFor(cmd))
			default:
				n, err = svc.SaveRaw(ctx, d)
			}
			if err != nil {
				return err
			}
			printNote(cmd.Root().Writer, n)
			return nil
		}),
	}
}

func listCommand() *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "List notes, pinned first then newest first",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "all", Aliases: []string{"a"}, Usage: "Include archived notes, in stored order"},
			&cli.BoolFlag{Name: "json", Usage: "Print JSON"},
		},
		Action: withService(func(ctx context.Context, cmd *cli.Command, svc *noteservice.Service) error {
			notes := svc.List(ctx)
			if cmd.Bool("all") {
				notes = svc.All(ctx)
			}
			return writeNotes(cmd.Root().Writer, notes, cmd.Bool("json"))
		}),
	}
}

func writeNotes(w io.Writer, notes []models.Note, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(notes)
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTYPE\tFLAGS\tTITLE\tTAGS")
	for _, n := range notes {
		flags := ""
		if n.Pinned() {
			flags += "P"
		}
		if n.IsArchived {
			flags += "A"
		}
		if n.CanUndo() {
			flags += "U"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			n.ID, n.Type, flags, n.TitleOr("Untitled"), strings.Join(n.Tags, ","))
	}
	return tw.Flush()
}

func askCommand() *cli.Command {
	return &cli.Command{
		Name:      "ask",
		Usage:     "Ask a question answered from your notes",
		ArgsUsage: "<question...>",
		Action: withService(func(ctx context.Context, cmd *cli.Command, svc *noteservice.Service) error {
			q, err := textArg(cmd)
			if err != nil {
				return err
			}
			answer, err := svc.Ask(ctx, q)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.Root().Writer, answer)
			return nil
		}),
	}
}

func toneCommand() *cli.Command {
	return &cli.Command{
		Name:      "tone",
		Usage:     "Rewrite text in another tone; nothing is saved",
		ArgsUsage: "[text...] (stdin when omitted)",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "tone", Value: ai.TonePresets[0], Usage: strings.Join(ai.TonePresets, ", ") + " or any label"},
		},
		Action: withService(func(ctx context.Context, cmd *cli.Command, svc *noteservice.Service) error {
			text, err := textArg(cmd)
			if err != nil {
				return err
			}
			out, err := svc.RewriteTone(ctx, text, cmd.String("tone"))
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.Root().Writer, out)
			return nil
		}),
	}
}

func undoCommand() *cli.Command {
	return &cli.Command{
		Name:      "undo",
		Usage:     "Restore the text an AI transformation replaced",
		ArgsUsage: "<id>",
		Flags:     []cli.Flag{yesFlag()},
		Action: withService(func(ctx context.Context, cmd *cli.Command, svc *noteservice.Service) error {
			id := cmd.Args().First()
			if id == "" {
				return errors.New("note id is required")
			}
			n, err := svc.Undo(ctx, id, confirmerFor(cmd))
			if err != nil {
				return err
			}
			printNote(cmd.Root().Writer, n)
			return nil
		}),
	}
}

func exportCommand() *cli.Command {
	return &cli.Command{
		Name:      "export",
		Usage:     "Write every note as a Markdown file with YAML frontmatter",
		ArgsUsage: "[dir]",
		Action: withService(func(ctx context.Context, cmd *cli.Command, svc *noteservice.Service) error {
			dir := cmd.Args().First()
			if dir == "" {
				dir = "export"
			}
			n, err := markdown.ExportDir(dir, svc.All(ctx))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.Root().Writer, "exported %d notes to %s\n", n, dir)
			return nil
		}),
	}
}

func importCommand() *cli.Command {
	return &cli.Command{
		Name:      "import",
		Usage:     "Add the Markdown notes found in a directory; known ids are skipped",
		ArgsUsage: "<dir>",
		Action: withService(func(ctx context.Context, cmd *cli.Command, svc *noteservice.Service) error {
			dir := cmd.Args().First()
			if dir == "" {
				return errors.New("directory is required")
			}
			notes, err := markdown.ImportDir(dir)
			if err != nil {
				return err
			}
			added := svc.Import(ctx, notes)
			fmt.Fprintf(cmd.Root().Writer, "imported %d of %d notes\n", len(added), len(notes))
			return nil
		}),
	}
}

func clearCommand() *cli.Command {
	return &cli.Command{
		Name:  "clear",
		Usage: "Delete every note; the theme preference is kept",
		Flags: []cli.Flag{yesFlag()},
		Action: withService(func(ctx context.Context, cmd *cli.Command, svc *noteservice.Service) error {
			if err := svc.ClearAll(ctx, confirmerFor(cmd)); err != nil {
				return err
			}
			fmt.Fprintln(cmd.Root().Writer, "all notes deleted")
			return nil
		}),
	}
}
