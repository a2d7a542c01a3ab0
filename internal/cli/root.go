package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lazypower/mindline/internal/config"
	"github.com/lazypower/mindline/internal/engine"
	"github.com/lazypower/mindline/internal/params"
	"github.com/lazypower/mindline/internal/store"
)

var rootCmd = &cobra.Command{
	Use:   "mindline",
	Short: "Temporal psychological state for simulated entities",
	Long: "Mindline tracks entities whose psychological state is computed rather than stored:\n" +
		"pin one anchor snapshot, record timestamped events, then query the state at any\n" +
		"instant, past or future. Single Go binary, one SQLite file.",
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(entityCmd)
	rootCmd.AddCommand(anchorCmd)
	rootCmd.AddCommand(eventCmd)
	rootCmd.AddCommand(stateCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(speciesCmd)
}

// openDB opens the database the config points at, falling back to the
// default path under the user's home directory.
func openDB(cfg config.Config) (*store.DB, error) {
	path := cfg.Database.Path
	if path == "" {
		var err error
		path, err = store.DefaultDBPath()
		if err != nil {
			return nil, err
		}
	}
	return store.Open(path)
}

// buildEngine loads the configured parameter pack and boundary policy.
func buildEngine(cfg config.Config) (*engine.Engine, error) {
	pp, err := params.Load(cfg.Params.Path)
	if err != nil {
		return nil, fmt.Errorf("load params: %w", err)
	}
	boundary, ok := engine.ParseBoundary(cfg.Params.Boundary)
	if !ok {
		return nil, fmt.Errorf("invalid boundary policy %q", cfg.Params.Boundary)
	}
	eng := engine.New(pp)
	eng.SetBoundary(boundary)
	return eng, nil
}

// resolveEntity accepts an entity id or a name.
func resolveEntity(db *store.DB, key string) (*store.Entity, error) {
	e, err := db.GetEntity(key)
	if err != nil {
		return nil, err
	}
	if e == nil {
		e, err = db.GetEntityByName(key)
		if err != nil {
			return nil, err
		}
	}
	if e == nil {
		return nil, fmt.Errorf("entity %q not found", key)
	}
	return e, nil
}
