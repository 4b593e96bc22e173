package dto

import "github.com/shopspring/decimal"

// ─── Request DTOs ────────────────────────────────────────────────────────────

type CrearClienteRequest struct {
	RazonSocial string          `json:"razon_social" validate:"required,max=150"`
	Boca        *int            `json:"boca"         validate:"omitempty,min=1"`
	Direccion   *string         `json:"direccion"`
	Localidad   *string         `json:"localidad"`
	Telefono    *string         `json:"telefono"`
	Email       *string         `json:"email"        validate:"omitempty,email"`
	PorcDto     decimal.Decimal `json:"porc_dto"     validate:"min=0,max=100"`
	VendedorID  *uint           `json:"vendedor_id"`
}

type ActualizarClienteRequest struct {
	RazonSocial *string          `json:"razon_social" validate:"omitempty,max=150"`
	Boca        *int             `json:"boca"         validate:"omitempty,min=1"`
	Direccion   *string          `json:"direccion"`
	Localidad   *string          `json:"localidad"`
	Telefono    *string          `json:"telefono"`
	Email       *string          `json:"email"        validate:"omitempty,email"`
	PorcDto     *decimal.Decimal `json:"porc_dto"`
	VendedorID  *uint            `json:"vendedor_id"`
}

type ClienteFilter struct {
	RazonSocial string `form:"razon_social"`
	Boca        int    `form:"boca"`
	VendedorID  uint   `form:"vendedor_id"`
	Page        int    `form:"page,default=1"   validate:"min=1"`
	Limit       int    `form:"limit,default=50" validate:"min=1,max=500"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type ClienteResponse struct {
	ID             uint            `json:"id"`
	RazonSocial    string          `json:"razon_social"`
	Boca           *int            `json:"boca"`
	Direccion      *string         `json:"direccion"`
	Localidad      *string         `json:"localidad"`
	Telefono       *string         `json:"telefono"`
	Email          *string         `json:"email"`
	PorcDto        decimal.Decimal `json:"porc_dto"`
	VendedorID     *uint           `json:"vendedor_id"`
	NombreVendedor *string         `json:"nombre_vendedor,omitempty"`
}

type ClienteListResponse struct {
	Data  []ClienteResponse `json:"data"`
	Total int64             `json:"total"`
	Page  int               `json:"page"`
	Limit int               `json:"limit"`
}
