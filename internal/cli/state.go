package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/lazypower/mindline/internal/client"
	"github.com/lazypower/mindline/internal/config"
	"github.com/lazypower/mindline/internal/engine"
)

var (
	stateAt       string
	stateURL      string
	stateEmotions bool
	stateRisk     bool
	stateMoral    float64
)

var stateCmd = &cobra.Command{
	Use:   "state [entity]",
	Short: "Compute an entity's state at an instant",
	Long: "Compute the full psychological state at a timestamp, past or future.\n" +
		"Opens the database directly by default; --url asks a running daemon\n" +
		"instead (pass the entity id, the daemon does not resolve names).",
	Args: cobra.ExactArgs(1),
	RunE: runState,
}

func init() {
	stateCmd.Flags().StringVar(&stateAt, "at", "", "Query timestamp (RFC3339; default now)")
	stateCmd.Flags().StringVar(&stateURL, "url", "", "Daemon base URL instead of direct database access")
	stateCmd.Flags().BoolVar(&stateEmotions, "emotions", false, "Derive emotion octants from the state")
	stateCmd.Flags().BoolVar(&stateRisk, "risk", false, "Derive risk factors and alerts from the state")
	stateCmd.Flags().Float64Var(&stateMoral, "moral-violation", 0, "Moral violation signal for disgust, in [0,1]")
}

func runState(cmd *cobra.Command, args []string) error {
	var at time.Time
	if stateAt != "" {
		parsed, err := parseTime(stateAt)
		if err != nil {
			return fmt.Errorf("invalid --at: %w", err)
		}
		at = parsed
	}

	var result engine.Result
	label := args[0]

	if stateURL != "" {
		// Zero at means the daemon picks its own now.
		r, err := client.New(stateURL).State(args[0], at)
		if err != nil {
			return err
		}
		result = r
	} else {
		if at.IsZero() {
			at = time.Now().UTC()
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
		label = e.Name

		anchor, err := db.GetAnchor(e.ID)
		if err != nil {
			return err
		}
		if anchor == nil {
			return fmt.Errorf("%s has no anchor; pin one with: mindline anchor %s", e.Name, e.Name)
		}
		events, err := db.ListEvents(e.ID)
		if err != nil {
			return err
		}
		active, err := eng.Params().ResolveSet(e.Dimensions)
		if err != nil {
			return err
		}

		profile := engine.Profile{Species: e.Species, Birth: e.Birth, Active: active}
		result, err = eng.StateAt(profile, anchor.Snapshot, events, at)
		if err != nil {
			return err
		}
	}

	printState(label, result)
	if stateEmotions {
		printEmotions(result, stateMoral)
	}
	if stateRisk {
		printRisk(result)
	}
	return nil
}

func printState(label string, r engine.Result) {
	fmt.Printf("%s at %s (%s)\n", label, r.At.Format(time.RFC3339), r.Quality)
	for _, reason := range r.Reasons {
		fmt.Printf("  ~ %s\n", reason)
	}
	for _, id := range r.Snapshot.Dimensions() {
		v := r.Snapshot.Values[id]
		fmt.Printf("  %-26s %+.3f", id, r.Effective[id])
		if v.ChronicDelta != 0 {
			fmt.Printf("  (base %+.2f, delta %+.2f, chronic %+.2f)", v.Base, v.Delta, v.ChronicDelta)
		} else if v.Delta != 0 {
			fmt.Printf("  (base %+.2f, delta %+.2f)", v.Base, v.Delta)
		}
		fmt.Println()
	}
	for i, s := range r.Shifts {
		if i == 0 {
			fmt.Println("  shifts:")
		}
		fmt.Printf("    %s %+.3f (from %s", s.Trait, s.Contribution, s.At.Format("2006-01-02"))
		if s.Severe() {
			fmt.Printf(", settling toward %+.3f", s.Settled)
		}
		fmt.Println(")")
	}
}

func printEmotions(r engine.Result, moralViolation float64) {
	em := engine.SnapshotEmotions(r, moralViolation)
	dominant, intensity := em.Dominant()
	fmt.Printf("  emotions: %s %.2f\n", dominant, intensity)
	for _, c := range []struct {
		name  string
		value float64
	}{
		{"exuberant", em.Exuberant},
		{"dependent", em.Dependent},
		{"relaxed", em.Relaxed},
		{"docile", em.Docile},
		{"hostile", em.Hostile},
		{"disgust", em.Disgust},
		{"anxious", em.Anxious},
		{"bored", em.Bored},
		{"depressed", em.Depressed},
	} {
		if c.value > 0 && c.name != dominant {
			fmt.Printf("    %-12s %.2f\n", c.name, c.value)
		}
	}
}

func printRisk(r engine.Result) {
	factors := engine.DeriveRisk(r)
	fmt.Printf("  risk: strain %.2f  burden %.2f  desire %.2f  capability %.2f  risk %.2f\n",
		factors.BelongingnessStrain, factors.Burdensomeness, factors.Desire,
		factors.Capability, factors.Risk)
	for _, a := range engine.CheckAlerts(r, factors) {
		fmt.Printf("    [%s] %s\n", a.Severity, a.Message)
	}
}
