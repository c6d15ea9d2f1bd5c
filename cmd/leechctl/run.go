package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/leechtools/leechctl/internal/cli"
	"github.com/leechtools/leechctl/internal/engine"

	"github.com/spf13/cobra"
)

func runCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Apply leech rules across the collection",
		Long: `Find every leech card in the collection, preview what the configured
rules would do to each one, and apply the changes after confirmation.

Cards in filtered decks can be targeted with --deck; --note-type narrows
to one note type. Both filters match exact names (a deck filter includes
its subdecks).`,
		RunE: runRun,
	}

	// Flags
	cmd.Flags().String("deck", "", "only process leeches in this deck (and its subdecks)")
	cmd.Flags().String("note-type", "", "only process leeches with this note type")
	cmd.Flags().Bool("dry-run", false, "preview only, never modify the collection")
	cmd.Flags().BoolP("yes", "y", false, "apply without asking for confirmation")

	return cmd
}

func runRun(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	deck, _ := cmd.Flags().GetString("deck")
	noteType, _ := cmd.Flags().GetString("note-type")
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	yes, _ := cmd.Flags().GetBool("yes")

	_, cfg, err := loadSettings(ctx)
	if err != nil {
		return err
	}
	if len(cfg.Rules) == 0 {
		fmt.Println(cli.FormatWarning("No rules configured. Add one with 'leechctl rules add'."))
		return nil
	}

	col, err := openCollection()
	if err != nil {
		return err
	}
	defer func() { _ = col.Close() }()

	eng := engine.New(col, cfg)

	ids, err := eng.FindLeechCards(ctx, deck, noteType)
	if err != nil {
		return fmt.Errorf("failed to find leech cards: %w", err)
	}
	if len(ids) == 0 {
		fmt.Println(cli.FormatSuccess("No leech cards found."))
		return nil
	}

	slog.Info("Found leech cards", "count", len(ids), "deck", deck, "note_type", noteType)

	// Simulate first so the user sees exactly what would happen.
	preview, err := eng.ProcessCards(ctx, ids, true, nil)
	if err != nil {
		return fmt.Errorf("preview failed: %w", err)
	}

	fmt.Println(cli.FormatTitle(fmt.Sprintf("Preview for %d leech cards", len(ids))))
	fmt.Print(cli.FormatBulletSummary(preview))

	if !preview.Changed() {
		fmt.Println(cli.SubtleStyle.Render("No rule matches any card; nothing to do."))
		return nil
	}
	if dryRun {
		return nil
	}

	if !yes {
		confirmed, err := cli.NewConfirmer(os.Stdin, os.Stdout).Confirm(ctx, "Apply these changes?")
		if err != nil {
			return err
		}
		if !confirmed {
			fmt.Println(cli.SubtleStyle.Render("Aborted."))
			return nil
		}
	}

	bar := cli.NewProgressBar(len(ids), "Processing leech cards...", os.Stdout)
	summary, err := eng.ProcessCards(ctx, ids, false, func(done int) {
		_ = bar.Set(done)
	})
	if err != nil {
		return fmt.Errorf("run failed: %w", err)
	}
	_ = bar.Finish()

	fmt.Println(cli.FormatSuccess(cli.FormatSummary("Done", summary)))
	return nil
}
