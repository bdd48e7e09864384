package validations

import (
	"context"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	domainIngest "github.com/AzielCF/az-crm/ingest/domain"
	pkgError "github.com/AzielCF/az-crm/pkg/error"
)

// ValidateWebhookRequest valida la forma del lote antes de tocar la base del
// tenant. Los límites de volumen y la semántica por evento se aplican en el
// pipeline; acá solo se rechaza lo estructuralmente inválido.
func ValidateWebhookRequest(ctx context.Context, request domainIngest.WebhookRequest) error {
	err := validation.ValidateStructWithContext(ctx, &request,
		validation.Field(&request.Messages, validation.Each(validation.By(validateWebhookMessage))),
		validation.Field(&request.Contacts, validation.Each(validation.By(validateWebhookContact))),
	)

	if err != nil {
		return pkgError.ValidationError(err.Error())
	}

	return nil
}

func validateWebhookMessage(value interface{}) error {
	message, _ := value.(domainIngest.WebhookMessage)
	return validation.ValidateStruct(&message,
		validation.Field(&message.MessageID, validation.Required, validation.Length(1, 255)),
		validation.Field(&message.ChannelID, validation.Required, validation.Length(1, 255)),
		validation.Field(&message.ChatID, validation.Required, validation.Length(1, 255)),
	)
}

func validateWebhookContact(value interface{}) error {
	contact, _ := value.(domainIngest.WebhookContactEvent)
	return validation.ValidateStruct(&contact,
		validation.Field(&contact.ContactID, validation.Required, validation.Length(1, 255)),
	)
}
