package cmd

import (
	"os"

	"biblio-app/config"
	"biblio-app/database"
	"biblio-app/idgen"
	"biblio-app/migration"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

type runtime struct {
	cfg *config.Config
	log *logrus.Logger
}

func newRootCmd() *cobra.Command {
	rt := &runtime{}
	var envFiles []string

	cmd := &cobra.Command{
		Use:           "biblio-app",
		Short:         "Library catalog shelving and collocation service",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(envFiles...)
			if err != nil {
				return err
			}
			rt.cfg = cfg
			rt.log = config.NewLogger(cfg)
			return errors.Wrap(idgen.Init(cfg.SnowflakeNode), "init snowflake node")
		},
	}
	cmd.PersistentFlags().StringSliceVar(&envFiles, "env-file", nil, "env files to load (default .env, .env.local)")

	cmd.AddCommand(newServeCmd(rt), newMigrateCmd(rt), newSeedCmd(rt), newTokenCmd(rt))
	return cmd
}

// openMigrated creates the database when missing, connects and migrates.
func (rt *runtime) openMigrated() (*gorm.DB, error) {
	if err := database.EnsureDatabaseExists(rt.cfg, rt.log); err != nil {
		return nil, err
	}
	db, err := database.Open(rt.cfg, rt.log)
	if err != nil {
		return nil, err
	}
	if err := migration.Migrate(db); err != nil {
		return nil, errors.Wrap(err, "auto migrate")
	}
	return db, nil
}

func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		logrus.WithError(err).Error("command failed")
		os.Exit(1)
	}
}
