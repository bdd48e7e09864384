package application

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/AzielCF/az-crm/ingest/domain"
	"github.com/AzielCF/az-crm/pkg/ident"
	"github.com/AzielCF/az-crm/validations"
)

// processContact reconcilia un evento de contacto. El primer registro gana:
// si ya existe un cliente con el mismo email o el mismo chat, el evento se
// descarta sin actualizar nada.
func (p *Pipeline) processContact(ctx context.Context, store domain.TenantStore, event *domain.WebhookContactEvent) ItemOutcome {
	outcome := ItemOutcome{Kind: "contact", ID: event.ContactID}

	if !validations.IsSafeExternalID(event.ContactID) {
		outcome.Status = OutcomeFailed
		outcome.Detail = "unsafe contact id"
		return outcome
	}

	email := strings.TrimSpace(event.Email)
	if email != "" && !validations.IsValidEmail(email) {
		email = ""
	}

	if email != "" {
		existing, err := store.FindClientByEmail(ctx, email)
		if err != nil && !errors.Is(err, domain.ErrClientNotFound) {
			outcome.Status = OutcomeFailed
			outcome.Detail = "email lookup failed: " + err.Error()
			return outcome
		}
		if existing != nil {
			outcome.Status = OutcomeSkipped
			outcome.Detail = "client with same email already exists"
			return outcome
		}
	}

	chatKey := strings.TrimSpace(event.ChatID)
	if chatKey != "" {
		existing, err := store.FindClientByChatKey(ctx, chatKey)
		if err != nil && !errors.Is(err, domain.ErrClientNotFound) {
			outcome.Status = OutcomeFailed
			outcome.Detail = "chat lookup failed: " + err.Error()
			return outcome
		}
		if existing != nil {
			outcome.Status = OutcomeSkipped
			outcome.Detail = "client with same chat already exists"
			return outcome
		}
	}

	contactUUID := ident.Normalize(event.ContactID)
	phone := validations.SanitizePhone(event.Phone)
	if email == "" {
		email = placeholderEmail(contactUUID)
	}

	client := &domain.Client{
		ID:       contactUUID,
		FullName: synthesizeName(event.Name, phone, "", ""),
		Email:    email,
		Phone:    phone,
		ChatKey:  chatKey,
	}

	// Asignación inicial: el bot de la compañía, si existe.
	if bot, err := store.FindBotUser(ctx); err == nil {
		client.ResponsibleUserID = bot.ID
	} else if !errors.Is(err, domain.ErrUserNotFound) {
		outcome.Status = OutcomeFailed
		outcome.Detail = "bot lookup failed: " + err.Error()
		return outcome
	}

	if err := store.CreateClient(ctx, client); err != nil {
		outcome.Status = OutcomeFailed
		outcome.Detail = "client insert failed: " + err.Error()
		return outcome
	}

	outcome.Status = OutcomeCreated
	return outcome
}

// synthesizeName deriva un nombre visible: nombre del evento, teléfono
// saneado, transporte más id de chat, o el genérico.
func synthesizeName(name, phone, chatType, chatID string) string {
	if n := strings.TrimSpace(name); n != "" {
		return n
	}
	if phone != "" {
		return phone
	}
	if t, c := strings.TrimSpace(chatType), strings.TrimSpace(chatID); t != "" && c != "" {
		return t + " " + c
	}
	return "Unnamed contact"
}

// placeholderEmail genera un email único y determinista por contacto; el
// timestamp evita colisiones con el índice único cuando el mismo contacto
// reaparece con otro id externo.
func placeholderEmail(contactID uuid.UUID) string {
	return fmt.Sprintf("%s.%d@crm.local", contactID, time.Now().Unix())
}
