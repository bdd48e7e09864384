package validations

import (
	"context"
	"regexp"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	domainCompany "github.com/AzielCF/az-crm/companies/domain"
	pkgError "github.com/AzielCF/az-crm/pkg/error"
)

// databaseNameRe refleja la lista blanca del pool de conexiones.
var databaseNameRe = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

func ValidateCreateCompany(ctx context.Context, request domainCompany.CreateCompanyRequest) error {
	err := validation.ValidateStructWithContext(ctx, &request,
		validation.Field(&request.Name, validation.Required, validation.Length(1, 255)),
		validation.Field(&request.DatabaseName,
			validation.Required,
			validation.Length(1, 64),
			validation.Match(databaseNameRe).Error("must contain only letters, digits and underscores"),
		),
	)

	if err != nil {
		return pkgError.ValidationError(err.Error())
	}

	return nil
}
