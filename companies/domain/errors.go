package domain

import "errors"

var (
	// ErrCompanyNotFound se retorna cuando no se encuentra la compañía
	ErrCompanyNotFound = errors.New("company not found")
)
