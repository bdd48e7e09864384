package rest

import (
	"context"
	"errors"

	domainCompany "github.com/AzielCF/az-crm/companies/domain"
	"github.com/AzielCF/az-crm/ingest/application"
	domainIngest "github.com/AzielCF/az-crm/ingest/domain"
	pkgError "github.com/AzielCF/az-crm/pkg/error"
	"github.com/AzielCF/az-crm/pkg/utils"
	"github.com/AzielCF/az-crm/validations"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// IWebhookPipeline desacopla el handler del pipeline concreto.
type IWebhookPipeline interface {
	Handle(ctx context.Context, companyID uuid.UUID, req *domainIngest.WebhookRequest) ([]application.ItemOutcome, error)
}

type Webhook struct {
	Service   IWebhookPipeline
	Companies domainCompany.CompanyRepository
}

func InitRestWebhook(app fiber.Router, service IWebhookPipeline, companies domainCompany.CompanyRepository) Webhook {
	rest := Webhook{Service: service, Companies: companies}
	app.Get("/webhook/:company_id", rest.Validate)
	app.Post("/webhook/:company_id", rest.Ingest)
	return rest
}

// Validate permite al proveedor verificar el endpoint antes de suscribirse.
func (controller *Webhook) Validate(c *fiber.Ctx) error {
	companyID, err := uuid.Parse(c.Params("company_id"))
	if err != nil {
		return c.Status(400).JSON(utils.ResponseData{
			Status:  400,
			Code:    "VALIDATION_ERROR",
			Message: "company_id must be a UUID",
		})
	}

	_, err = controller.Companies.GetByID(c.UserContext(), companyID)
	if errors.Is(err, domainCompany.ErrCompanyNotFound) {
		err = pkgError.NotFoundError("company not found")
	}
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Webhook endpoint is valid",
	})
}

// Ingest recibe un lote de eventos del proveedor para una compañía.
func (controller *Webhook) Ingest(c *fiber.Ctx) error {
	companyID, err := uuid.Parse(c.Params("company_id"))
	if err != nil {
		return c.Status(400).JSON(utils.ResponseData{
			Status:  400,
			Code:    "VALIDATION_ERROR",
			Message: "company_id must be a UUID",
		})
	}

	var request domainIngest.WebhookRequest
	err = c.BodyParser(&request)
	utils.PanicIfNeeded(err)

	err = validations.ValidateWebhookRequest(c.UserContext(), request)
	utils.PanicIfNeeded(err)

	outcomes, err := controller.Service.Handle(c.UserContext(), companyID, &request)
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Webhook batch processed",
		Results: outcomes,
	})
}
