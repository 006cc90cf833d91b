package cmd

import (
	"github.com/spf13/cobra"
)

func newMigrateCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the database if needed and migrate the schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := rt.openMigrated(); err != nil {
				return err
			}
			rt.log.Info("migration complete")
			return nil
		},
	}
}
