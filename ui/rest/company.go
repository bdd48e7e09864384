package rest

import (
	"errors"

	domainCompany "github.com/AzielCF/az-crm/companies/domain"
	pkgError "github.com/AzielCF/az-crm/pkg/error"
	"github.com/AzielCF/az-crm/pkg/utils"
	"github.com/AzielCF/az-crm/validations"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type Company struct {
	Service domainCompany.CompanyRepository
}

func InitRestCompany(app fiber.Router, service domainCompany.CompanyRepository) Company {
	rest := Company{Service: service}
	app.Post("/companies", rest.Create)
	app.Get("/companies", rest.List)
	app.Get("/companies/:id", rest.Get)
	return rest
}

// Create da de alta una compañía con su base lógica y API key del proveedor.
func (controller *Company) Create(c *fiber.Ctx) error {
	var request domainCompany.CreateCompanyRequest
	err := c.BodyParser(&request)
	utils.PanicIfNeeded(err)

	err = validations.ValidateCreateCompany(c.UserContext(), request)
	utils.PanicIfNeeded(err)

	company := request.ToCompany()
	err = controller.Service.Create(c.UserContext(), company)
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Company created",
		Results: company,
	})
}

func (controller *Company) List(c *fiber.Ctx) error {
	companies, err := controller.Service.List(c.UserContext())
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Success fetch companies",
		Results: companies,
	})
}

func (controller *Company) Get(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(400).JSON(utils.ResponseData{
			Status:  400,
			Code:    "VALIDATION_ERROR",
			Message: "id must be a UUID",
		})
	}

	company, err := controller.Service.GetByID(c.UserContext(), id)
	if errors.Is(err, domainCompany.ErrCompanyNotFound) {
		err = pkgError.NotFoundError("company not found")
	}
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Success fetch company",
		Results: company,
	})
}
