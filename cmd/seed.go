package cmd

import (
	seed "biblio-app/seeder"

	"github.com/spf13/cobra"
)

func newSeedCmd(rt *runtime) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load genres and the shelving hierarchy from a YAML seed",
		RunE: func(cmd *cobra.Command, args []string) error {
			if file == "" {
				file = rt.cfg.SeedFile
			}
			data, err := seed.Load(file)
			if err != nil {
				return err
			}
			db, err := rt.openMigrated()
			if err != nil {
				return err
			}
			return seed.Apply(cmd.Context(), db, data, rt.log)
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "seed YAML file (default: built-in seed)")
	return cmd
}
