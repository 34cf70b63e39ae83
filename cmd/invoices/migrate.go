package main

import (
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Bring the database schema up to date and exit",
	Long: `Apply the schema. With MIGRATIONS=1 on PostgreSQL the embedded SQL
migrations are run through golang-migrate; otherwise gorm AutoMigrate is used.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		rt, err := bootstrap(true)
		if err != nil {
			return err
		}
		defer rt.close()
		rt.log.Info().Str("driver", rt.cfg.Database.Driver).Bool("sql_migrations", rt.cfg.App.Migrations).Msg("migrations completed")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
