package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lazypower/mindline/internal/config"
	"github.com/lazypower/mindline/internal/params"
)

var speciesCmd = &cobra.Command{
	Use:   "species",
	Short: "List the parameter pack's species",
	RunE:  runSpecies,
}

func runSpecies(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	pp, err := params.Load(cfg.Params.Path)
	if err != nil {
		return fmt.Errorf("load params: %w", err)
	}

	fmt.Printf("%-12s %-8s %9s %9s %7s %6s\n", "NAME", "KIND", "LIFESPAN", "MATURITY", "SOCIAL", "SCALE")
	for _, name := range pp.SpeciesNames() {
		s := pp.Species[name]
		fmt.Printf("%-12s %-8s %8.1fy %8.1fy %7.2f %5.1fx\n",
			s.Name, s.Kind, s.LifespanYears, s.MaturityYears, s.SocialComplexity, s.TimeScale())
	}
	return nil
}
