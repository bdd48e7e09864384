package application

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/AzielCF/az-crm/botrouter"
	companyDomain "github.com/AzielCF/az-crm/companies/domain"
	companyRepository "github.com/AzielCF/az-crm/companies/repository"
	"github.com/AzielCF/az-crm/core/config"
	"github.com/AzielCF/az-crm/core/database"
	"github.com/AzielCF/az-crm/ingest/domain"
	"github.com/AzielCF/az-crm/ingest/repository"
	"github.com/AzielCF/az-crm/messaging"
	"github.com/AzielCF/az-crm/pkg/dedupcache"
	pkgError "github.com/AzielCF/az-crm/pkg/error"
	"github.com/AzielCF/az-crm/pkg/ident"
)

type fakeSender struct {
	calls []*messaging.SendMessageRequest
	keys  []string
}

func (f *fakeSender) SendMessage(_ context.Context, apiKey string, req *messaging.SendMessageRequest) (*messaging.SendMessageResponse, error) {
	f.keys = append(f.keys, apiKey)
	f.calls = append(f.calls, req)
	return &messaging.SendMessageResponse{MessageID: uuid.NewString(), Status: "sent"}, nil
}

var pipeSeq int

type pipelineFixture struct {
	pipeline *Pipeline
	company  *companyDomain.Company
	pool     *database.Pool
}

func newPipelineFixture(t *testing.T, bots *botrouter.Coordinator) *pipelineFixture {
	t.Helper()
	pipeSeq++

	mainDB, err := database.Open("sqlite", fmt.Sprintf("file:pipe_main_%d?mode=memory&cache=shared", pipeSeq))
	require.NoError(t, err)

	companies := companyRepository.NewCompanyGormRepository(mainDB)
	require.NoError(t, companies.InitSchema(context.Background()))

	company := &companyDomain.Company{
		ID:           uuid.New(),
		Name:         "Acme",
		DatabaseName: fmt.Sprintf("pipe_tenant_%d", pipeSeq),
		APIKey:       "tenant-key",
		Active:       true,
	}
	require.NoError(t, companies.Create(context.Background(), company))

	pool := database.NewPool(config.DatabaseConfig{
		Driver:            "sqlite",
		TenantURLTemplate: "file:{db_name}?mode=memory&cache=shared",
	})
	t.Cleanup(pool.CloseAll)

	cfg := &config.Config{
		Webhook: config.WebhookConfig{MaxEventsPerBatch: 100, MaxBodyBytes: 1024 * 1024},
		Valkey:  config.ValkeyConfig{DedupTTL: time.Hour},
	}

	pipeline := NewPipeline(
		companies,
		pool,
		func(db *gorm.DB) domain.TenantStore { return repository.NewTenantGormStore(db) },
		dedupcache.NewMemoryCache(),
		bots,
		cfg,
	)

	return &pipelineFixture{pipeline: pipeline, company: company, pool: pool}
}

func (fx *pipelineFixture) tenantStore(t *testing.T) *repository.TenantGormStore {
	t.Helper()
	db, err := fx.pool.Get(context.Background(), fx.company.DatabaseName)
	require.NoError(t, err)
	return repository.NewTenantGormStore(db)
}

func boolPtr(v bool) *bool { return &v }

func TestHandleCreatesFullGraphFromSingleMessage(t *testing.T) {
	fx := newPipelineFixture(t, nil)
	ctx := context.Background()

	channelID := uuid.NewString()
	outcomes, err := fx.pipeline.Handle(ctx, fx.company.ID, &domain.WebhookRequest{
		Messages: []domain.WebhookMessage{{
			MessageID: "m1",
			ChannelID: channelID,
			ChatType:  "whatsapp",
			ChatID:    "55512345",
			Type:      "text",
			Text:      "hi",
			IsEcho:    boolPtr(false),
		}},
	})
	require.NoError(t, err)
	require.Len(t, outcomes, 1)
	assert.Equal(t, OutcomeCreated, outcomes[0].Status)

	store := fx.tenantStore(t)

	channel, err := store.GetChannel(ctx, ident.Normalize(channelID))
	require.NoError(t, err)
	assert.Equal(t, "whatsapp", channel.Type)

	chatID := ident.Normalize("55512345").String()
	chat, err := store.GetChat(ctx, chatID)
	require.NoError(t, err)
	require.NotNil(t, chat.ClientID)

	client, err := store.GetClient(ctx, *chat.ClientID)
	require.NoError(t, err)
	assert.Equal(t, "whatsapp 55512345", client.FullName, "sin nombre ni teléfono, el placeholder usa transporte y chat")
	assert.Equal(t, "55512345", client.ChatKey)

	message, err := store.GetMessage(ctx, ident.Normalize("m1"))
	require.NoError(t, err)
	assert.Equal(t, domain.DirectionInbound, message.Direction)
	assert.Equal(t, []domain.ContentPart{{Type: "text", Content: "hi"}}, message.Content)
}

func TestHandleIsIdempotentOnReplay(t *testing.T) {
	fx := newPipelineFixture(t, nil)
	ctx := context.Background()

	batch := &domain.WebhookRequest{
		Messages: []domain.WebhookMessage{{
			MessageID: "m1",
			ChannelID: uuid.NewString(),
			ChatType:  "whatsapp",
			ChatID:    "55512345",
			Type:      "text",
			Text:      "hi",
			IsEcho:    boolPtr(false),
		}},
	}

	outcomes, err := fx.pipeline.Handle(ctx, fx.company.ID, batch)
	require.NoError(t, err)
	assert.Equal(t, OutcomeCreated, outcomes[0].Status)

	outcomes, err = fx.pipeline.Handle(ctx, fx.company.ID, batch)
	require.NoError(t, err)
	assert.Equal(t, OutcomeDuplicate, outcomes[0].Status)

	store := fx.tenantStore(t)
	count, err := store.CountMessages(ctx, "")
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
}

func TestHandleDeduplicatesByContent(t *testing.T) {
	fx := newPipelineFixture(t, nil)
	ctx := context.Background()
	channelID := uuid.NewString()

	first := domain.WebhookMessage{
		MessageID: "m1", ChannelID: channelID, ChatType: "whatsapp",
		ChatID: "55512345", Type: "text", Text: "hi", IsEcho: boolPtr(false),
	}
	retry := first
	retry.MessageID = "m1-retried" // el proveedor cambió el id en el reintento

	outcomes, err := fx.pipeline.Handle(ctx, fx.company.ID, &domain.WebhookRequest{
		Messages: []domain.WebhookMessage{first, retry},
	})
	require.NoError(t, err)
	require.Len(t, outcomes, 2)
	assert.Equal(t, OutcomeCreated, outcomes[0].Status)
	assert.Equal(t, OutcomeDuplicate, outcomes[1].Status)

	store := fx.tenantStore(t)
	count, err := store.CountMessages(ctx, "")
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
}

func TestHandleRejectsOversizedBatch(t *testing.T) {
	fx := newPipelineFixture(t, nil)

	oversized := make([]domain.WebhookMessage, 101)
	for i := range oversized {
		oversized[i] = domain.WebhookMessage{
			MessageID: fmt.Sprintf("m%d", i),
			ChannelID: uuid.NewString(),
			ChatID:    "1",
		}
	}

	_, err := fx.pipeline.Handle(context.Background(), fx.company.ID, &domain.WebhookRequest{Messages: oversized})
	require.Error(t, err)

	var verr pkgError.ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestHandleUnknownCompany(t *testing.T) {
	fx := newPipelineFixture(t, nil)

	_, err := fx.pipeline.Handle(context.Background(), uuid.New(), &domain.WebhookRequest{})
	require.Error(t, err)

	var nerr pkgError.NotFoundError
	assert.ErrorAs(t, err, &nerr)
}

func TestHandleDropsBatchesForInactiveCompanySilently(t *testing.T) {
	fx := newPipelineFixture(t, nil)
	ctx := context.Background()

	inactive := &companyDomain.Company{
		ID:           uuid.New(),
		Name:         "Dormida",
		DatabaseName: fmt.Sprintf("pipe_inactive_%d", pipeSeq),
		Active:       false,
	}
	require.NoError(t, fx.pipeline.companies.Create(ctx, inactive))

	outcomes, err := fx.pipeline.Handle(ctx, inactive.ID, &domain.WebhookRequest{
		Messages: []domain.WebhookMessage{{MessageID: "m1", ChannelID: uuid.NewString(), ChatID: "1"}},
	})
	require.NoError(t, err, "el proveedor no debe recibir un error que lo haga reintentar")
	assert.Empty(t, outcomes)
	assert.Zero(t, fx.pool.Count(), "una compañía inactiva no abre conexión de tenant")
}

func TestHandleTestBatchHasNoSideEffects(t *testing.T) {
	fx := newPipelineFixture(t, nil)

	outcomes, err := fx.pipeline.Handle(context.Background(), fx.company.ID, &domain.WebhookRequest{
		Test: boolPtr(true),
		Messages: []domain.WebhookMessage{{
			MessageID: "m1", ChannelID: uuid.NewString(), ChatID: "1", Text: "ignored",
		}},
	})
	require.NoError(t, err)
	assert.Empty(t, outcomes)
	assert.Zero(t, fx.pool.Count())
}

func TestHandleIsolatesPerItemFailures(t *testing.T) {
	fx := newPipelineFixture(t, nil)

	outcomes, err := fx.pipeline.Handle(context.Background(), fx.company.ID, &domain.WebhookRequest{
		Messages: []domain.WebhookMessage{
			{MessageID: "bad id with spaces", ChannelID: uuid.NewString(), ChatID: "1"},
			{MessageID: "m2", ChannelID: uuid.NewString(), ChatType: "whatsapp", ChatID: "2", Text: "ok", IsEcho: boolPtr(false)},
		},
	})
	require.NoError(t, err)
	require.Len(t, outcomes, 2)
	assert.Equal(t, OutcomeFailed, outcomes[0].Status)
	assert.Equal(t, OutcomeCreated, outcomes[1].Status)
}

func TestHandleContactEvents(t *testing.T) {
	fx := newPipelineFixture(t, nil)
	ctx := context.Background()

	outcomes, err := fx.pipeline.Handle(ctx, fx.company.ID, &domain.WebhookRequest{
		Contacts: []domain.WebhookContactEvent{{
			ContactID: "contact-1",
			Name:      "Maria Lopez",
			Phone:     "+52 (155) 123-45",
			Email:     "maria@example.com",
			ChatID:    "55512345",
		}},
	})
	require.NoError(t, err)
	require.Len(t, outcomes, 1)
	assert.Equal(t, OutcomeCreated, outcomes[0].Status)

	store := fx.tenantStore(t)
	client, err := store.FindClientByEmail(ctx, "maria@example.com")
	require.NoError(t, err)
	assert.Equal(t, "Maria Lopez", client.FullName)
	assert.Equal(t, "+5215512345", client.Phone, "el teléfono se sanea a dígitos y '+'")
	assert.Equal(t, ident.Normalize("contact-1"), client.ID)

	// Mismo email: primer registro gana, el evento se descarta.
	outcomes, err = fx.pipeline.Handle(ctx, fx.company.ID, &domain.WebhookRequest{
		Contacts: []domain.WebhookContactEvent{{
			ContactID: "contact-2",
			Name:      "Otra Maria",
			Email:     "maria@example.com",
		}},
	})
	require.NoError(t, err)
	assert.Equal(t, OutcomeSkipped, outcomes[0].Status)

	// Mismo chat, sin email: también se descarta.
	outcomes, err = fx.pipeline.Handle(ctx, fx.company.ID, &domain.WebhookRequest{
		Contacts: []domain.WebhookContactEvent{{
			ContactID: "contact-3",
			ChatID:    "55512345",
		}},
	})
	require.NoError(t, err)
	assert.Equal(t, OutcomeSkipped, outcomes[0].Status)
}

func TestHandleContactWithoutEmailGetsPlaceholder(t *testing.T) {
	fx := newPipelineFixture(t, nil)
	ctx := context.Background()

	outcomes, err := fx.pipeline.Handle(ctx, fx.company.ID, &domain.WebhookRequest{
		Contacts: []domain.WebhookContactEvent{{
			ContactID: "contact-9",
			Phone:     "5551234567",
		}},
	})
	require.NoError(t, err)
	assert.Equal(t, OutcomeCreated, outcomes[0].Status)

	store := fx.tenantStore(t)
	client, err := store.GetClient(ctx, ident.Normalize("contact-9"))
	require.NoError(t, err)
	assert.Equal(t, "5551234567", client.FullName, "sin nombre, el teléfono saneado hace de nombre")
	assert.Contains(t, client.Email, "@crm.local")
}

func TestHandleRoutesInboundMessagesThroughBot(t *testing.T) {
	hookServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(botrouter.HookResponse{Status: "success", Message: "hola, soy el bot"})
	}))
	defer hookServer.Close()

	sender := &fakeSender{}
	bots := botrouter.NewCoordinator(botrouter.NewHookClient(5*time.Second), sender)
	fx := newPipelineFixture(t, bots)
	ctx := context.Background()

	// Provisiona el bot del tenant antes del primer mensaje.
	db, err := fx.pool.Get(ctx, fx.company.DatabaseName)
	require.NoError(t, err)
	store := repository.NewTenantGormStore(db)
	require.NoError(t, store.InitSchema(ctx))
	require.NoError(t, store.CreateUser(ctx, &domain.User{
		Name: "Bot", Email: "bot@crm.local", Role: domain.RoleBot,
		HookURL: hookServer.URL, Active: true,
	}))

	outcomes, err := fx.pipeline.Handle(ctx, fx.company.ID, &domain.WebhookRequest{
		Messages: []domain.WebhookMessage{{
			MessageID: "m1",
			ChannelID: uuid.NewString(),
			ChatType:  "whatsapp",
			ChatID:    "55512345",
			Text:      "hola",
			IsEcho:    boolPtr(false),
		}},
	})
	require.NoError(t, err)
	assert.Equal(t, OutcomeCreated, outcomes[0].Status)

	require.Len(t, sender.calls, 1)
	assert.Equal(t, "tenant-key", sender.keys[0])
	assert.Equal(t, "hola, soy el bot", sender.calls[0].Text)
	assert.Equal(t, ident.Normalize("55512345").String(), sender.calls[0].ChatID)
}

func TestHandleDirectionFallbacks(t *testing.T) {
	fx := newPipelineFixture(t, nil)
	ctx := context.Background()
	channelID := uuid.NewString()

	cases := []struct {
		name      string
		messageID string
		isEcho    *bool
		status    string
		want      domain.Direction
	}{
		{"echo true is outbound", "d1", boolPtr(true), "", domain.DirectionOutbound},
		{"echo false is inbound", "d2", boolPtr(false), "delivered", domain.DirectionInbound},
		{"status inbound", "d3", nil, "inbound", domain.DirectionInbound},
		{"other status is outbound", "d4", nil, "sent", domain.DirectionOutbound},
		{"nothing is unknown but stored", "d5", nil, "", domain.DirectionUnknown},
	}

	for i, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			outcomes, err := fx.pipeline.Handle(ctx, fx.company.ID, &domain.WebhookRequest{
				Messages: []domain.WebhookMessage{{
					MessageID: tc.messageID,
					ChannelID: channelID,
					ChatType:  "whatsapp",
					ChatID:    fmt.Sprintf("chat-%d", i),
					Text:      fmt.Sprintf("texto %d", i),
					IsEcho:    tc.isEcho,
					Status:    tc.status,
				}},
			})
			require.NoError(t, err)
			require.Equal(t, OutcomeCreated, outcomes[0].Status)

			store := fx.tenantStore(t)
			message, err := store.GetMessage(ctx, ident.Normalize(tc.messageID))
			require.NoError(t, err)
			assert.Equal(t, tc.want, message.Direction)
		})
	}
}
