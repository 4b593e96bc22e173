package dto

import "github.com/shopspring/decimal"

type CrearVendedorRequest struct {
	Nombre    string           `json:"nombre"    validate:"required,max=120"`
	Direccion *string          `json:"direccion"`
	Localidad *string          `json:"localidad"`
	Telefono  *string          `json:"telefono"`
	Email     *string          `json:"email"     validate:"omitempty,email"`
	Comision  *decimal.Decimal `json:"comision"`
}

type ActualizarVendedorRequest struct {
	Nombre    *string          `json:"nombre"    validate:"omitempty,max=120"`
	Direccion *string          `json:"direccion"`
	Localidad *string          `json:"localidad"`
	Telefono  *string          `json:"telefono"`
	Email     *string          `json:"email"     validate:"omitempty,email"`
	Comision  *decimal.Decimal `json:"comision"`
}

type VendedorResponse struct {
	ID        uint             `json:"id"`
	Nombre    string           `json:"nombre"`
	Direccion *string          `json:"direccion"`
	Localidad *string          `json:"localidad"`
	Telefono  *string          `json:"telefono"`
	Email     *string          `json:"email"`
	Comision  *decimal.Decimal `json:"comision"`
}
