package repository

import (
	"context"
	"fmt"
	"testing"

	"github.com/AzielCF/az-crm/core/database"
	"github.com/AzielCF/az-crm/ingest/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var storeSeq int

func testStore(t *testing.T) *TenantGormStore {
	t.Helper()
	storeSeq++
	dsn := fmt.Sprintf("file:tenant_store_%d?mode=memory&cache=shared", storeSeq)
	db, err := database.Open("sqlite", dsn)
	require.NoError(t, err)

	store := NewTenantGormStore(db)
	require.NoError(t, store.InitSchema(context.Background()))
	return store
}

func TestEnsureChannelCorrectsTransport(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()
	channelID := uuid.New()

	require.NoError(t, store.EnsureChannel(ctx, channelID, "whatsapp"))
	require.NoError(t, store.EnsureChannel(ctx, channelID, "telegram"))

	channel, err := store.GetChannel(ctx, channelID)
	require.NoError(t, err)
	assert.Equal(t, "telegram", channel.Type)
}

func TestUpsertChatRefreshesNameAndClient(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()
	channelID := uuid.New()
	chatID := uuid.NewString()

	require.NoError(t, store.UpsertChat(ctx, chatID, channelID, "", nil))

	chat, err := store.GetChat(ctx, chatID)
	require.NoError(t, err)
	assert.Equal(t, chatID, chat.Name, "sin nombre, el id sirve de nombre")
	assert.Nil(t, chat.ClientID)

	clientID := uuid.New()
	require.NoError(t, store.UpsertChat(ctx, chatID, channelID, "Maria", &clientID))

	chat, err = store.GetChat(ctx, chatID)
	require.NoError(t, err)
	assert.Equal(t, "Maria", chat.Name)
	require.NotNil(t, chat.ClientID)
	assert.Equal(t, clientID, *chat.ClientID)
}

func TestCreateClientWithResponsibility(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	bot := &domain.User{Name: "Bot", Email: "bot@crm.local", Role: domain.RoleBot, Active: true}
	require.NoError(t, store.CreateUser(ctx, bot))

	client := &domain.Client{
		FullName:          "Maria Lopez",
		Email:             "maria@example.com",
		Phone:             "+5215512345",
		ChatKey:           "55512345",
		ResponsibleUserID: bot.ID,
	}
	require.NoError(t, store.CreateClient(ctx, client))

	responsible, err := store.GetResponsibleUser(ctx, client.ID)
	require.NoError(t, err)
	assert.Equal(t, bot.ID, responsible.ID)

	found, err := store.FindClientByChatKey(ctx, "55512345")
	require.NoError(t, err)
	assert.Equal(t, client.ID, found.ID)

	_, err = store.FindClientByEmail(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, domain.ErrClientNotFound)
}

func TestMessageDedupChecks(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()
	chatID := uuid.NewString()
	require.NoError(t, store.UpsertChat(ctx, chatID, uuid.New(), "dedup", nil))

	content := []domain.ContentPart{{Type: "text", Content: "hola"}}
	msg := &domain.Message{
		ID:        uuid.New(),
		ChatID:    chatID,
		Content:   content,
		Direction: domain.DirectionInbound,
	}
	require.NoError(t, store.CreateMessage(ctx, msg))

	exists, err := store.MessageExists(ctx, msg.ID)
	require.NoError(t, err)
	assert.True(t, exists)

	dup, err := store.ChatHasContent(ctx, chatID, domain.CanonicalContent(content))
	require.NoError(t, err)
	assert.True(t, dup)

	other, err := store.ChatHasContent(ctx, uuid.NewString(), domain.CanonicalContent(content))
	require.NoError(t, err)
	assert.False(t, other, "la igualdad de contenido es por chat")

	stored, err := store.GetMessage(ctx, msg.ID)
	require.NoError(t, err)
	assert.Equal(t, "hola", stored.Text())
}

func TestAssignResponsibleKeepsSingleAssignee(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	first := &domain.User{Name: "Ana", Email: "ana@crm.local", Role: domain.RoleManager, Active: true}
	second := &domain.User{Name: "Luis", Email: "luis@crm.local", Role: domain.RoleManager, Active: true}
	require.NoError(t, store.CreateUser(ctx, first))
	require.NoError(t, store.CreateUser(ctx, second))

	client := &domain.Client{FullName: "Cliente", Email: "c@example.com"}
	require.NoError(t, store.CreateClient(ctx, client))

	_, err := store.GetResponsibleUser(ctx, client.ID)
	assert.ErrorIs(t, err, domain.ErrNoResponsible)

	chatID := uuid.NewString()
	require.NoError(t, store.AssignResponsible(ctx, client.ID, first.ID, chatID))
	require.NoError(t, store.AssignResponsible(ctx, client.ID, second.ID, chatID))

	responsible, err := store.GetResponsibleUser(ctx, client.ID)
	require.NoError(t, err)
	assert.Equal(t, second.ID, responsible.ID)

	refreshed, err := store.GetClient(ctx, client.ID)
	require.NoError(t, err)
	assert.Equal(t, second.ID, refreshed.ResponsibleUserID)
}

func TestListFallbackStaffExcludesBotsAndQC(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	users := []*domain.User{
		{Name: "Bot", Email: "bot@crm.local", Role: domain.RoleBot, Active: true},
		{Name: "QC", Email: "qc@crm.local", Role: domain.RoleQualityControl, Active: true},
		{Name: "Ana", Email: "ana@crm.local", Role: domain.RoleManager, Active: true},
		{Name: "Off", Email: "off@crm.local", Role: domain.RoleManager, Active: false},
		{Name: "Root", Email: "root@crm.local", Role: domain.RoleAdmin, Active: true},
	}
	for _, u := range users {
		require.NoError(t, store.CreateUser(ctx, u))
	}

	staff, err := store.ListFallbackStaff(ctx)
	require.NoError(t, err)
	require.Len(t, staff, 2)
	for _, u := range staff {
		assert.NotEqual(t, domain.RoleBot, u.Role)
		assert.NotEqual(t, domain.RoleQualityControl, u.Role)
		assert.True(t, u.Active)
	}

	bot, err := store.FindBotUser(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Bot", bot.Name)
}
