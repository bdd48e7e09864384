package cmd

import (
	"context"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	ingestRepository "github.com/AzielCF/az-crm/ingest/repository"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run schema migrations for the main and tenant databases",
	Run:   runMigrations,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

// runMigrations migra el esquema de cada base de tenant registrada. El
// esquema principal ya se migró en initApp.
func runMigrations(_ *cobra.Command, _ []string) {
	ctx := context.Background()

	companies, err := companiesRepo.List(ctx)
	if err != nil {
		logrus.Fatalf("[MIGRATION] Failed to list companies: %v", err)
	}

	migrated := 0
	for _, company := range companies {
		log := logrus.WithFields(logrus.Fields{
			"company":  company.ID,
			"database": company.DatabaseName,
		})

		db, err := tenantPool.Get(ctx, company.DatabaseName)
		if err != nil {
			log.WithError(err).Error("[MIGRATION] Failed to connect to tenant database")
			continue
		}

		store := ingestRepository.NewTenantGormStore(db)
		if err := store.InitSchema(ctx); err != nil {
			log.WithError(err).Error("[MIGRATION] Failed to migrate tenant schema")
			continue
		}

		log.Info("[MIGRATION] Tenant schema up to date")
		migrated++
	}

	logrus.Infof("[MIGRATION] Migrated %d of %d tenant databases", migrated, len(companies))
	StopApp()
}
