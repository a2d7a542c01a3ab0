package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/lazypower/mindline/internal/config"
	"github.com/lazypower/mindline/internal/journal"
)

var importCmd = &cobra.Command{
	Use:   "import [file]",
	Short: "Import a JSONL life-history journal",
	Long: "Read a journal of entity, relationship, anchor, and event records, one\n" +
		"JSON object per line, into the database. Malformed lines are skipped\n" +
		"and counted; records the store rejects abort with the line number.",
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

var exportCmd = &cobra.Command{
	Use:   "export [file]",
	Short: "Export the database as a JSONL journal",
	Long: "Write every entity, relationship, anchor, and event as one JSON record\n" +
		"per line, ordered so the output imports cleanly. With no argument,\n" +
		"writes to stdout.",
	Args: cobra.MaximumNArgs(1),
	RunE: runExport,
}

func runImport(cmd *cobra.Command, args []string) error {
	f, err := os.Open(args[0])
	if err != nil {
		return err
	}
	defer f.Close()

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	db, err := openDB(cfg)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer db.Close()

	stats, err := journal.Import(db, f)
	if err != nil {
		return err
	}

	fmt.Printf("imported %d entities, %d relationships, %d anchors, %d events",
		stats.Entities, stats.Relationships, stats.Anchors, stats.Events)
	if stats.Skipped > 0 {
		fmt.Printf(" (%d lines skipped)", stats.Skipped)
	}
	fmt.Println()
	return nil
}

func runExport(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	db, err := openDB(cfg)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer db.Close()

	var w io.Writer = os.Stdout
	if len(args) > 0 {
		f, err := os.Create(args[0])
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}

	if err := journal.Export(db, w); err != nil {
		return err
	}
	if len(args) > 0 {
		fmt.Fprintf(os.Stderr, "exported to %s\n", args[0])
	}
	return nil
}
