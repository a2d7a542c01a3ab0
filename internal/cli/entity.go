package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/lazypower/mindline/internal/config"
	"github.com/lazypower/mindline/internal/params"
	"github.com/lazypower/mindline/internal/store"
)

var entityCmd = &cobra.Command{
	Use:   "entity",
	Short: "Manage entities",
}

// --- entity create ---

var (
	createSpecies  string
	createBirth    string
	createDims     []string
	createLifespan float64
	createMaturity float64
	createSocial   float64
)

var entityCreateCmd = &cobra.Command{
	Use:   "create [name]",
	Short: "Create an entity",
	Long: "Create an entity with a species and birth time. An unknown species name\n" +
		"becomes a custom species when --lifespan and --maturity are given.",
	Args: cobra.ExactArgs(1),
	RunE: runEntityCreate,
}

var entityListCmd = &cobra.Command{
	Use:   "list",
	Short: "List entities",
	RunE:  runEntityList,
}

var entityShowCmd = &cobra.Command{
	Use:   "show [entity]",
	Short: "Show one entity by id or name",
	Args:  cobra.ExactArgs(1),
	RunE:  runEntityShow,
}

func init() {
	entityCmd.AddCommand(entityCreateCmd)
	entityCmd.AddCommand(entityListCmd)
	entityCmd.AddCommand(entityShowCmd)

	entityCreateCmd.Flags().StringVar(&createSpecies, "species", "human", "Species name from the parameter pack")
	entityCreateCmd.Flags().StringVar(&createBirth, "birth", "", "Birth timestamp (RFC3339 or YYYY-MM-DD)")
	entityCreateCmd.Flags().StringSliceVar(&createDims, "dims", nil, "Active dimension set: group names or dimension ids")
	entityCreateCmd.Flags().Float64Var(&createLifespan, "lifespan", 0, "Custom species lifespan in years")
	entityCreateCmd.Flags().Float64Var(&createMaturity, "maturity", 0, "Custom species maturity in years")
	entityCreateCmd.Flags().Float64Var(&createSocial, "social", 0.5, "Custom species social complexity in [0,1]")
}

func runEntityCreate(cmd *cobra.Command, args []string) error {
	if createBirth == "" {
		return fmt.Errorf("--birth is required")
	}
	birth, err := parseTime(createBirth)
	if err != nil {
		return fmt.Errorf("invalid --birth: %w", err)
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	pp, err := params.Load(cfg.Params.Path)
	if err != nil {
		return fmt.Errorf("load params: %w", err)
	}

	species, ok := pp.SpeciesByName(createSpecies)
	if !ok {
		if createLifespan <= 0 || createMaturity <= 0 {
			return fmt.Errorf("unknown species %q (pass --lifespan and --maturity to define a custom one)", createSpecies)
		}
		species = params.Custom(createSpecies, createLifespan, createMaturity, createSocial)
	}
	if _, err := pp.ResolveSet(createDims); err != nil {
		return err
	}

	db, err := openDB(cfg)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer db.Close()

	e := &store.Entity{
		Name:       args[0],
		Species:    species,
		Birth:      birth,
		Dimensions: createDims,
	}
	if err := db.CreateEntity(e); err != nil {
		return err
	}

	stage := species.Stage(params.AgeYears(birth, time.Now()))
	fmt.Printf("created %s (%s)\n", e.Name, e.ID)
	fmt.Printf("  species: %s  stage: %s\n", species.Name, stage)
	return nil
}

func runEntityList(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	db, err := openDB(cfg)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer db.Close()

	entities, err := db.ListEntities()
	if err != nil {
		return err
	}
	if len(entities) == 0 {
		fmt.Println("No entities yet. Create one with: mindline entity create")
		return nil
	}

	now := time.Now()
	for _, e := range entities {
		stage := e.Species.Stage(params.AgeYears(e.Birth, now))
		fmt.Printf("%-20s %-10s %-12s %s\n", e.Name, e.Species.Name, stage, e.ID)
	}
	return nil
}

func runEntityShow(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
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

	age := params.AgeYears(e.Birth, time.Now())
	fmt.Printf("%s (%s)\n", e.Name, e.ID)
	fmt.Printf("  species: %s (%s), time scale %.2fx\n", e.Species.Name, e.Species.Kind, e.Species.TimeScale())
	fmt.Printf("  born: %s  age: %.1fy  stage: %s\n", e.Birth.Format("2006-01-02"), age, e.Species.Stage(age))
	if len(e.Dimensions) > 0 {
		fmt.Printf("  dimensions: %s\n", strings.Join(e.Dimensions, ", "))
	}

	anchor, err := db.GetAnchor(e.ID)
	if err != nil {
		return err
	}
	if anchor == nil {
		fmt.Println("  anchor: none (state queries need one)")
	} else {
		fmt.Printf("  anchor: %s (%d dimensions)\n",
			anchor.Snapshot.At.Format(time.RFC3339), len(anchor.Snapshot.Values))
	}

	count, err := db.CountEvents(e.ID)
	if err != nil {
		return err
	}
	fmt.Printf("  events: %d\n", count)

	rels, err := db.ListRelationshipsFor(e.ID)
	if err != nil {
		return err
	}
	for _, r := range rels {
		other := r.EntityLo
		if other == e.ID {
			other = r.EntityHi
		}
		fmt.Printf("  relationship: %s (with %s)\n", r.ID, other)
	}
	return nil
}
