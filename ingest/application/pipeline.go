// Package application orquesta la ingesta de webhooks: resuelve el tenant,
// acota el lote y reconcilia cada evento contra la base del tenant.
package application

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/AzielCF/az-crm/botrouter"
	companyDomain "github.com/AzielCF/az-crm/companies/domain"
	"github.com/AzielCF/az-crm/core/config"
	"github.com/AzielCF/az-crm/core/database"
	"github.com/AzielCF/az-crm/ingest/domain"
	"github.com/AzielCF/az-crm/pkg/dedupcache"
	pkgError "github.com/AzielCF/az-crm/pkg/error"
)

// OutcomeStatus classifies what happened to one event within a batch.
type OutcomeStatus string

const (
	OutcomeCreated   OutcomeStatus = "created"
	OutcomeSkipped   OutcomeStatus = "skipped"
	OutcomeDuplicate OutcomeStatus = "duplicate"
	OutcomeFailed    OutcomeStatus = "failed"
)

// ItemOutcome is the per-event result of a batch. Failures are recorded here
// instead of aborting the batch.
type ItemOutcome struct {
	Kind   string        `json:"kind"` // "contact" or "message"
	ID     string        `json:"id"`   // external id as received
	Status OutcomeStatus `json:"status"`
	Detail string        `json:"detail,omitempty"`
}

// StoreFactory binds a tenant store to a pooled connection.
type StoreFactory func(db *gorm.DB) domain.TenantStore

// Pipeline reconciles webhook batches into per-tenant databases.
type Pipeline struct {
	companies companyDomain.CompanyRepository
	pool      *database.Pool
	stores    StoreFactory
	cache     dedupcache.Cache
	bots      *botrouter.Coordinator
	cfg       *config.Config

	// migrated registra las bases ya migradas en este proceso.
	migrated sync.Map
}

func NewPipeline(
	companies companyDomain.CompanyRepository,
	pool *database.Pool,
	stores StoreFactory,
	cache dedupcache.Cache,
	bots *botrouter.Coordinator,
	cfg *config.Config,
) *Pipeline {
	return &Pipeline{
		companies: companies,
		pool:      pool,
		stores:    stores,
		cache:     cache,
		bots:      bots,
		cfg:       cfg,
	}
}

// Handle procesa un lote de webhook para la compañía indicada. Cada evento se
// procesa de forma independiente y en orden; un fallo por evento queda en los
// outcomes y nunca aborta el lote.
func (p *Pipeline) Handle(ctx context.Context, companyID uuid.UUID, req *domain.WebhookRequest) ([]ItemOutcome, error) {
	log := logrus.WithField("company", companyID)

	company, err := p.companies.GetByID(ctx, companyID)
	if err != nil {
		if errors.Is(err, companyDomain.ErrCompanyNotFound) {
			return nil, pkgError.NotFoundError("company not found")
		}
		return nil, pkgError.StorageError("failed to resolve company: " + err.Error())
	}

	// Compañía inactiva: se acepta y descarta en silencio para que el
	// proveedor no reintente.
	if !company.Active {
		log.Warn("[WEBHOOK] batch received for inactive company, dropping")
		return nil, nil
	}

	if req.Test != nil && *req.Test {
		log.Info("[WEBHOOK] connectivity test received")
		return nil, nil
	}

	maxEvents := p.cfg.Webhook.MaxEventsPerBatch
	if len(req.Contacts) > maxEvents || len(req.Messages) > maxEvents {
		return nil, pkgError.ValidationError(fmt.Sprintf("batch exceeds the %d events per type limit", maxEvents))
	}

	db, err := p.pool.Get(ctx, company.DatabaseName)
	if err != nil {
		return nil, err
	}
	store := p.stores(db)

	if _, done := p.migrated.Load(company.DatabaseName); !done {
		if err := store.InitSchema(ctx); err != nil {
			return nil, pkgError.StorageError("failed to prepare tenant schema: " + err.Error())
		}
		p.migrated.Store(company.DatabaseName, true)
	}

	outcomes := make([]ItemOutcome, 0, len(req.Contacts)+len(req.Messages))

	for i, contact := range req.Contacts {
		outcome := p.processContact(ctx, store, &contact)
		if outcome.Status == OutcomeFailed {
			log.WithFields(logrus.Fields{
				"index":   i,
				"contact": contact.ContactID,
			}).Errorf("[WEBHOOK] contact event failed: %s", outcome.Detail)
		}
		outcomes = append(outcomes, outcome)
	}

	for i, message := range req.Messages {
		outcome := p.processMessage(ctx, store, company, &message)
		if outcome.Status == OutcomeFailed {
			log.WithFields(logrus.Fields{
				"index":   i,
				"message": message.MessageID,
			}).Errorf("[WEBHOOK] message event failed: %s", outcome.Detail)
		}
		outcomes = append(outcomes, outcome)
	}

	log.WithFields(logrus.Fields{
		"contacts": len(req.Contacts),
		"messages": len(req.Messages),
	}).Info("[WEBHOOK] batch processed")

	return outcomes, nil
}
