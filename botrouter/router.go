// Package botrouter decide qué hacer con un mensaje entrante cuando el
// responsable del cliente es un bot: entregarlo al hook del bot y retransmitir
// su respuesta, o reasignar el chat a un humano si el bot falla.
package botrouter

import (
	"context"
	"errors"
	"math/rand"

	"github.com/AzielCF/az-crm/ingest/domain"
	"github.com/AzielCF/az-crm/messaging"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// MessageSender is the outbound provider surface the router needs.
type MessageSender interface {
	SendMessage(ctx context.Context, apiKey string, req *messaging.SendMessageRequest) (*messaging.SendMessageResponse, error)
}

// Tenant carries the per-company data the router needs for one routing call.
type Tenant struct {
	CompanyID uuid.UUID
	APIKey    string
}

// Coordinator routes inbound messages through the responsible bot.
type Coordinator struct {
	hooks  *HookClient
	sender MessageSender
	rng    func(n int) int
}

func NewCoordinator(hooks *HookClient, sender MessageSender) *Coordinator {
	return &Coordinator{
		hooks:  hooks,
		sender: sender,
		rng:    rand.Intn,
	}
}

// RouteInbound entrega el mensaje al bot responsable del cliente, si lo hay.
// Nunca retorna error: un fallo de ruteo no debe tumbar la ingesta del
// webhook. Si el bot falla, el cliente se reasigna a un humano disponible.
func (c *Coordinator) RouteInbound(ctx context.Context, store domain.TenantStore, tenant Tenant, chat *domain.Chat, client *domain.Client, message *domain.Message) {
	log := logrus.WithFields(logrus.Fields{
		"company": tenant.CompanyID,
		"chat":    chat.ID,
		"client":  client.ID,
	})

	responsible, err := store.GetResponsibleUser(ctx, client.ID)
	if err != nil {
		if !errors.Is(err, domain.ErrNoResponsible) {
			log.WithError(err).Error("[BOT] failed to resolve responsible user")
		}
		return
	}
	if !responsible.IsBot() || !responsible.Active || responsible.HookURL == "" {
		return
	}

	hookResp, err := c.hooks.Send(ctx, responsible.HookURL, &HookRequest{
		Message: message.Text(),
		Client:  client.ID.String(),
		Company: tenant.CompanyID.String(),
	})
	if err != nil || !hookResp.Handled() {
		if err != nil {
			log.WithError(err).Warn("[BOT] hook delivery failed, reassigning to human")
		} else {
			log.WithField("status", hookResp.Status).Warn("[BOT] bot declined message, reassigning to human")
		}
		c.reassignToHuman(ctx, store, chat, client, log)
		return
	}

	if hookResp.Message == "" {
		return
	}
	c.relayReply(ctx, tenant, chat, responsible, hookResp.Message, log)
}

// reassignToHuman elige personal activo al azar, excluyendo bots y control de
// calidad, y le transfiere el cliente.
func (c *Coordinator) reassignToHuman(ctx context.Context, store domain.TenantStore, chat *domain.Chat, client *domain.Client, log *logrus.Entry) {
	staff, err := store.ListFallbackStaff(ctx)
	if err != nil {
		log.WithError(err).Error("[BOT] failed to list fallback staff")
		return
	}
	if len(staff) == 0 {
		log.Warn("[BOT] no managers available for fallback, bot keeps the chat")
		return
	}

	chosen := staff[c.rng(len(staff))]
	if err := store.AssignResponsible(ctx, client.ID, chosen.ID, chat.ID); err != nil {
		log.WithError(err).Error("[BOT] failed to reassign client")
		return
	}
	log.WithField("user", chosen.ID).Info("[BOT] client reassigned to human")
}

// relayReply envía la respuesta del bot al chat, bajo la identidad del bot.
func (c *Coordinator) relayReply(ctx context.Context, tenant Tenant, chat *domain.Chat, bot *domain.User, text string, log *logrus.Entry) {
	_, err := c.sender.SendMessage(ctx, tenant.APIKey, &messaging.SendMessageRequest{
		ChatID:    chat.ID,
		ChannelID: chat.ChannelID.String(),
		Text:      text,
		CrmUserID: bot.ID.String(),
	})
	if err != nil {
		log.WithError(err).Error("[BOT] failed to relay bot reply")
		return
	}
	log.Info("[BOT] bot reply relayed")
}
