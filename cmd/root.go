package cmd

import (
	"context"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/AzielCF/az-crm/botrouter"
	companyDomain "github.com/AzielCF/az-crm/companies/domain"
	companyRepository "github.com/AzielCF/az-crm/companies/repository"
	coreconfig "github.com/AzielCF/az-crm/core/config"
	coreDB "github.com/AzielCF/az-crm/core/database"
	"github.com/AzielCF/az-crm/ingest/application"
	ingestDomain "github.com/AzielCF/az-crm/ingest/domain"
	ingestRepository "github.com/AzielCF/az-crm/ingest/repository"
	"github.com/AzielCF/az-crm/messaging"
	"github.com/AzielCF/az-crm/pkg/dedupcache"
	"github.com/AzielCF/az-crm/pkg/utils"
)

var (
	mainDB *gorm.DB

	companiesRepo *companyRepository.CompanyGormRepository
	tenantPool    *coreDB.Pool
	dedupCache    dedupcache.Cache
	botRouter     *botrouter.Coordinator
	pipeline      *application.Pipeline
)

var rootCmd = &cobra.Command{
	Use:   "az-crm",
	Short: "Multi-tenant webhook ingestion service for messaging CRM",
	Long: `az-crm recibe webhooks del proveedor de mensajería, los normaliza en la
base de cada compañía y rutea los mensajes entrantes hacia bots con
respaldo humano.`,
}

func init() {
	utils.LoadConfig(".")

	time.Local = time.UTC

	rootCmd.CompletionOptions.DisableDefaultCmd = true
	cobra.OnInitialize(initApp)
}

func initApp() {
	cfg, err := coreconfig.LoadConfig()
	if err != nil {
		logrus.Fatalf("[APP] Failed to load configuration: %v", err)
	}

	if cfg.App.Debug {
		logrus.SetLevel(logrus.DebugLevel)
	}

	mainDB, err = coreDB.NewMainDatabase(cfg)
	if err != nil {
		logrus.Fatalf("[APP] Failed to connect to main database: %v", err)
	}

	companiesRepo = companyRepository.NewCompanyGormRepository(mainDB)
	if err := companiesRepo.InitSchema(context.Background()); err != nil {
		logrus.Fatalf("[APP] Failed to migrate companies schema: %v", err)
	}

	tenantPool = coreDB.NewPool(cfg.Database)

	dedupCache = newDedupCache(cfg)

	provider := messaging.NewClient(cfg.Provider.BaseURL, cfg.Provider.Timeout)
	botRouter = botrouter.NewCoordinator(botrouter.NewHookClient(cfg.Bot.HookTimeout), provider)

	pipeline = application.NewPipeline(
		companiesRepo,
		tenantPool,
		func(db *gorm.DB) ingestDomain.TenantStore { return ingestRepository.NewTenantGormStore(db) },
		dedupCache,
		botRouter,
		cfg,
	)
}

// newDedupCache prefiere Valkey cuando está habilitado y cae a memoria local
// si no se puede conectar; el cache es solo una optimización.
func newDedupCache(cfg *coreconfig.Config) dedupcache.Cache {
	if !cfg.Valkey.Enabled {
		return dedupcache.NewMemoryCache()
	}

	cache, err := dedupcache.NewValkeyCache(dedupcache.ValkeyConfig{
		Address:   cfg.Valkey.Address,
		Password:  cfg.Valkey.Password,
		DB:        cfg.Valkey.DB,
		KeyPrefix: cfg.Valkey.KeyPrefix,
	})
	if err != nil {
		logrus.WithError(err).Warn("[APP] Valkey unavailable, falling back to in-memory dedup cache")
		return dedupcache.NewMemoryCache()
	}
	return cache
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// StopApp performs a clean shutdown of all database connections and services.
func StopApp() {
	logrus.Info("[APP] Stopping application...")

	if tenantPool != nil {
		tenantPool.CloseAll()
	}
	if dedupCache != nil {
		dedupCache.Close()
	}
	if mainDB != nil {
		if sqlDB, err := mainDB.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}

	logrus.Info("[APP] Application stopped cleanly.")
}

// CompaniesRepository expone el registro de compañías a los subcomandos.
func CompaniesRepository() companyDomain.CompanyRepository {
	return companiesRepo
}
