package cli

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/lazypower/mindline/internal/config"
	"github.com/lazypower/mindline/internal/state"
)

var (
	eventAt      string
	eventLabel   string
	eventDeltas  []string
	eventChronic []string
	eventShifts  []string
)

var eventCmd = &cobra.Command{
	Use:   "event",
	Short: "Record events",
}

var eventAddCmd = &cobra.Command{
	Use:   "add [entity]",
	Short: "Record an event on an entity's timeline",
	Long: "Record a timestamped event effect: transient deltas that decay, chronic\n" +
		"deltas that feed the slow channel, and formative shifts that permanently\n" +
		"move a trait's base. Past timestamps are fine; the timeline re-sorts.",
	Args: cobra.ExactArgs(1),
	RunE: runEventAdd,
}

func init() {
	eventCmd.AddCommand(eventAddCmd)

	eventAddCmd.Flags().StringVar(&eventAt, "at", "", "Event timestamp (RFC3339; default now)")
	eventAddCmd.Flags().StringVar(&eventLabel, "label", "", "Human-readable label")
	eventAddCmd.Flags().StringArrayVar(&eventDeltas, "delta", nil, "Transient delta, dim=value (repeatable)")
	eventAddCmd.Flags().StringArrayVar(&eventChronic, "chronic", nil, "Chronic delta, dim=value (repeatable)")
	eventAddCmd.Flags().StringArrayVar(&eventShifts, "shift", nil, "Formative shift, trait=magnitude (repeatable)")
}

func runEventAdd(cmd *cobra.Command, args []string) error {
	at := time.Now().UTC()
	if eventAt != "" {
		parsed, err := parseTime(eventAt)
		if err != nil {
			return fmt.Errorf("invalid --at: %w", err)
		}
		at = parsed
	}

	deltas, err := parseAssignments(eventDeltas)
	if err != nil {
		return err
	}
	chronic, err := parseAssignments(eventChronic)
	if err != nil {
		return err
	}
	shifts, err := parseAssignments(eventShifts)
	if err != nil {
		return err
	}

	eff := state.EventEffect{
		At:            at,
		Label:         eventLabel,
		Deltas:        deltas,
		ChronicDeltas: chronic,
	}
	for trait, magnitude := range shifts {
		eff.Shifts = append(eff.Shifts, state.ShiftRequest{Trait: trait, Magnitude: magnitude})
	}
	if eff.Empty() {
		return fmt.Errorf("event changes nothing; pass --delta, --chronic, or --shift")
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
	if err := eng.ValidateEffect(active, eff); err != nil {
		return err
	}
	if err := db.AddEvent(e.ID, &eff); err != nil {
		return err
	}

	fmt.Printf("recorded %s on %s at %s\n", eff.ID, e.Name, at.Format(time.RFC3339))
	return nil
}

// parseTime accepts RFC3339 or a bare date.
func parseTime(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("want RFC3339 or YYYY-MM-DD, got %q", s)
	}
	return t.UTC(), nil
}

// parseAssignments parses repeated dim=value flags.
func parseAssignments(pairs []string) (map[state.DimensionID]float64, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	out := make(map[state.DimensionID]float64, len(pairs))
	for _, p := range pairs {
		k, v, ok := strings.Cut(p, "=")
		if !ok {
			return nil, fmt.Errorf("want dim=value, got %q", p)
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return nil, fmt.Errorf("bad value in %q: %w", p, err)
		}
		out[state.DimensionID(strings.TrimSpace(k))] = f
	}
	return out, nil
}
