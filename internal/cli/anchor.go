package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/lazypower/mindline/internal/config"
	"github.com/lazypower/mindline/internal/state"
)

var (
	anchorAt  string
	anchorSet []string
)

var anchorCmd = &cobra.Command{
	Use:   "anchor [entity]",
	Short: "Pin an entity's anchor snapshot",
	Long: "Pin the single snapshot every state query radiates from. Dimensions not\n" +
		"named by --set start at their registry defaults. Anchors pin once; there\n" +
		"is no re-pin.",
	Args: cobra.ExactArgs(1),
	RunE: runAnchor,
}

func init() {
	anchorCmd.Flags().StringVar(&anchorAt, "at", "", "Anchor timestamp (RFC3339; default now)")
	anchorCmd.Flags().StringArrayVar(&anchorSet, "set", nil, "Dimension base value, dim=value (repeatable)")
}

func runAnchor(cmd *cobra.Command, args []string) error {
	at := time.Now().UTC()
	if anchorAt != "" {
		parsed, err := parseTime(anchorAt)
		if err != nil {
			return fmt.Errorf("invalid --at: %w", err)
		}
		at = parsed
	}
	overrides, err := parseAssignments(anchorSet)
	if err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	eng, err := buildEngine(cfg)
	if err != nil {
		return err
	}
	db, err := openDB(cfg)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer db.Close()

	e, err := resolveEntity(db, args[0])
	if err != nil {
		return err
	}
	active, err := eng.Params().ResolveSet(e.Dimensions)
	if err != nil {
		return err
	}

	snap := state.NewSnapshot(at, eng.Params().Registry, active)
	for id, base := range overrides {
		v := snap.Values[id]
		v.Base = base
		snap.Values[id] = v
	}
	if err := eng.ValidateAnchor(active, snap); err != nil {
		return err
	}
	if err := db.SetAnchor(e.ID, snap); err != nil {
		return err
	}

	fmt.Printf("anchored %s at %s (%d dimensions)\n", e.Name, at.Format(time.RFC3339), len(snap.Values))
	return nil
}
