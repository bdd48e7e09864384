package application

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/AzielCF/az-crm/botrouter"
	companyDomain "github.com/AzielCF/az-crm/companies/domain"
	"github.com/AzielCF/az-crm/ingest/domain"
	"github.com/AzielCF/az-crm/pkg/ident"
	"github.com/AzielCF/az-crm/validations"
)

// processMessage reconcilia un evento de mensaje siguiendo una cadena de
// chequeos con corto circuito: ids seguros, dedup por id, dedup por
// contenido, y recién entonces la creación de canal, cliente, chat y mensaje.
func (p *Pipeline) processMessage(ctx context.Context, store domain.TenantStore, company *companyDomain.Company, msg *domain.WebhookMessage) ItemOutcome {
	outcome := ItemOutcome{Kind: "message", ID: msg.MessageID}

	for _, id := range []string{msg.MessageID, msg.ChannelID, msg.ChatID} {
		if !validations.IsSafeExternalID(id) {
			outcome.Status = OutcomeFailed
			outcome.Detail = "unsafe message, channel or chat id"
			return outcome
		}
	}

	messageUUID := ident.Normalize(msg.MessageID)
	cacheKey := company.ID.String() + ":" + messageUUID.String()

	if p.cache != nil && p.cache.Seen(ctx, cacheKey) {
		outcome.Status = OutcomeDuplicate
		outcome.Detail = "message id recently processed"
		return outcome
	}

	exists, err := store.MessageExists(ctx, messageUUID)
	if err != nil {
		outcome.Status = OutcomeFailed
		outcome.Detail = "dedup lookup failed: " + err.Error()
		return outcome
	}
	if exists {
		p.markSeen(ctx, cacheKey)
		outcome.Status = OutcomeDuplicate
		outcome.Detail = "message id already stored"
		return outcome
	}

	// Dedup por contenido: el proveedor puede reintentar con otro id.
	chatUUID := ident.Normalize(msg.ChatID)
	chatID := chatUUID.String()
	content := domain.BuildContent(msg)

	duplicate, err := store.ChatHasContent(ctx, chatID, domain.CanonicalContent(content))
	if err != nil {
		outcome.Status = OutcomeFailed
		outcome.Detail = "content dedup lookup failed: " + err.Error()
		return outcome
	}
	if duplicate {
		p.markSeen(ctx, cacheKey)
		outcome.Status = OutcomeDuplicate
		outcome.Detail = "identical content already stored in chat"
		return outcome
	}

	channelUUID := ident.Normalize(msg.ChannelID)
	if err := store.EnsureChannel(ctx, channelUUID, msg.ChatType); err != nil {
		outcome.Status = OutcomeFailed
		outcome.Detail = "channel upsert failed: " + err.Error()
		return outcome
	}

	client, err := p.ensureClientFromMessage(ctx, store, msg)
	if err != nil {
		outcome.Status = OutcomeFailed
		outcome.Detail = "client reconciliation failed: " + err.Error()
		return outcome
	}

	nameHint := clientNameHint(msg)
	var clientRef *uuid.UUID
	if client != nil {
		clientRef = &client.ID
		if nameHint == "" {
			nameHint = client.FullName
		}
	}
	if err := store.UpsertChat(ctx, chatID, channelUUID, nameHint, clientRef); err != nil {
		outcome.Status = OutcomeFailed
		outcome.Detail = "chat upsert failed: " + err.Error()
		return outcome
	}

	direction, directionStatus := domain.DetermineDirection(msg.IsEcho, msg.Status)

	message := &domain.Message{
		ID:              messageUUID,
		ChatID:          chatID,
		Content:         content,
		Direction:       direction,
		DirectionStatus: directionStatus,
		IsEcho:          msg.IsEcho,
		CreatedAt:       parseEventTime(msg.DateTime),
	}
	if msg.AuthorID != "" && validations.IsSafeExternalID(msg.AuthorID) {
		author := ident.Normalize(msg.AuthorID)
		message.AuthorUserID = &author
	}

	if err := store.CreateMessage(ctx, message); err != nil {
		outcome.Status = OutcomeFailed
		outcome.Detail = "message insert failed: " + err.Error()
		return outcome
	}
	p.markSeen(ctx, cacheKey)

	if direction == domain.DirectionInbound && p.bots != nil && client != nil {
		chat := &domain.Chat{ID: chatID, ChannelID: channelUUID, Name: nameHint, ClientID: clientRef}
		p.bots.RouteInbound(ctx, store, botrouter.Tenant{
			CompanyID: company.ID,
			APIKey:    company.APIKey,
		}, chat, client, message)
	}

	outcome.Status = OutcomeCreated
	return outcome
}

// ensureClientFromMessage garantiza que el chat del mensaje tenga un cliente:
// reutiliza el ya vinculado al chat, luego busca por la clave de chat
// externa, y como último recurso crea uno nuevo con las pistas del mensaje.
func (p *Pipeline) ensureClientFromMessage(ctx context.Context, store domain.TenantStore, msg *domain.WebhookMessage) (*domain.Client, error) {
	chatID := ident.Normalize(msg.ChatID).String()

	chat, err := store.GetChat(ctx, chatID)
	if err != nil && !errors.Is(err, domain.ErrChatNotFound) {
		return nil, err
	}
	if chat != nil && chat.ClientID != nil {
		client, err := store.GetClient(ctx, *chat.ClientID)
		if err == nil {
			return client, nil
		}
		if !errors.Is(err, domain.ErrClientNotFound) {
			return nil, err
		}
	}

	chatKey := strings.TrimSpace(msg.ChatID)
	if existing, err := store.FindClientByChatKey(ctx, chatKey); err == nil {
		return existing, nil
	} else if !errors.Is(err, domain.ErrClientNotFound) {
		return nil, err
	}

	phone := validations.SanitizePhone(phoneHint(msg))
	client := &domain.Client{
		ID:       uuid.New(),
		FullName: synthesizeName(clientNameHint(msg), phone, msg.ChatType, msg.ChatID),
		Email:    placeholderEmail(ident.Normalize(msg.ChatID)),
		Phone:    phone,
		ChatKey:  chatKey,
	}

	if bot, err := store.FindBotUser(ctx); err == nil {
		client.ResponsibleUserID = bot.ID
	} else if !errors.Is(err, domain.ErrUserNotFound) {
		return nil, err
	}

	if err := store.CreateClient(ctx, client); err != nil {
		return nil, err
	}
	return client, nil
}

func (p *Pipeline) markSeen(ctx context.Context, key string) {
	if p.cache != nil {
		p.cache.Mark(ctx, key, p.cfg.Valkey.DedupTTL)
	}
}

func clientNameHint(msg *domain.WebhookMessage) string {
	if name := strings.TrimSpace(msg.ClientName); name != "" {
		return name
	}
	if msg.Contact != nil {
		return strings.TrimSpace(msg.Contact.Name)
	}
	return ""
}

func phoneHint(msg *domain.WebhookMessage) string {
	if phone := strings.TrimSpace(msg.ClientPhone); phone != "" {
		return phone
	}
	if msg.Contact != nil {
		return strings.TrimSpace(msg.Contact.Phone)
	}
	return ""
}

// parseEventTime interpreta el dateTime RFC3339 del proveedor; si falta o es
// inválido, el mensaje queda con la hora de recepción.
func parseEventTime(raw string) time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}
	}
	ts, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}
	}
	return ts.UTC()
}
