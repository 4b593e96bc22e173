package dto

import "github.com/shopspring/decimal"

// ── Request DTOs ──────────────────────────────────────────────────────────────

type ItemEntregaRequest struct {
	ArticuloID    uint            `json:"articulo_id"   validate:"required"`
	Entregados    int             `json:"entregados"    validate:"min=1"`
	PrecioReal    decimal.Decimal `json:"precio_real"   validate:"gt=0"`
	Observaciones *string         `json:"observaciones"`
}

// GuardarRemitoRequest creates a remito or amends the open one for the same
// client and delivery date.
type GuardarRemitoRequest struct {
	ClienteID     uint                 `json:"cliente_id"    validate:"required"`
	FechaEntrega  Fecha                `json:"fecha_entrega" validate:"required"`
	PorcDto       decimal.Decimal      `json:"porc_dto"      validate:"min=0,max=100"`
	Observaciones *string              `json:"observaciones"`
	Items         []ItemEntregaRequest `json:"items"         validate:"required,min=1,dive"`
}

type ItemRetiroRequest struct {
	NroArticulo   string  `json:"nro_articulo" validate:"required"`
	Devueltos     int     `json:"devueltos"    validate:"min=0"`
	Observaciones *string `json:"observaciones"`
}

// RetiroRequest closes out a remito with the returned quantities.
type RetiroRequest struct {
	FechaRetiro   Fecha               `json:"fecha_retiro"  validate:"required"`
	Observaciones *string             `json:"observaciones"`
	Items         []ItemRetiroRequest `json:"items"         validate:"dive"`
}

// ─── Filter / Pagination ─────────────────────────────────────────────────────

type RemitoFilter struct {
	ClienteID uint   `form:"cliente_id"`
	Estado    string `form:"estado,default=all" validate:"omitempty,oneof=abierto cerrado all"`
	Desde     string `form:"desde"` // YYYY-MM-DD, fecha_entrega >=
	Hasta     string `form:"hasta"` // YYYY-MM-DD, fecha_entrega <=
	Page      int    `form:"page,default=1"   validate:"min=1"`
	Limit     int    `form:"limit,default=50" validate:"min=1,max=200"`
}

// ── Response DTOs ─────────────────────────────────────────────────────────────

type GuardarRemitoResponse struct {
	RemitoID            uint `json:"remito_id"`
	PreciosActualizados bool `json:"precios_actualizados"`
	Modificado          bool `json:"modificado"`
}

type RetiroResponse struct {
	RemitoID          uint     `json:"remito_id"`
	ItemsActualizados int      `json:"items_actualizados"`
	Omitidos          []string `json:"omitidos"`
}

type RemitoCabecera struct {
	ID            uint            `json:"id"`
	ClienteID     uint            `json:"cliente_id"`
	RazonSocial   string          `json:"razon_social"`
	Boca          *int            `json:"boca"`
	Direccion     *string         `json:"direccion"`
	Localidad     *string         `json:"localidad"`
	Telefono      *string         `json:"telefono"`
	Email         *string         `json:"email"`
	PorcDto       decimal.Decimal `json:"porc_dto"`
	FechaEntrega  Fecha           `json:"fecha_entrega"`
	FechaRetiro   *Fecha          `json:"fecha_retiro"`
	Observaciones *string         `json:"observaciones"`
	Estado        string          `json:"estado"` // abierto | cerrado
}

// RemitoItemResponse is the line shape consumed by the document renderer.
// Vendidos is nil while the remito is open.
type RemitoItemResponse struct {
	ArticuloID    uint            `json:"articulo_id"`
	NroArticulo   string          `json:"nro_articulo"`
	Descripcion   string          `json:"descripcion"`
	PrecioReal    decimal.Decimal `json:"precio_real"`
	Entregados    int             `json:"entregados"`
	Devueltos     int             `json:"devueltos"`
	Vendidos      *int            `json:"vendidos"`
	Observaciones *string         `json:"observaciones"`
}

type RemitoTotales struct {
	Entregados     int              `json:"entregados"`
	Devueltos      int              `json:"devueltos"`
	Vendidos       *int             `json:"vendidos"`
	ImporteVendido *decimal.Decimal `json:"importe_vendido"`
}

type RemitoCompletoResponse struct {
	Cabecera RemitoCabecera       `json:"cabecera"`
	Items    []RemitoItemResponse `json:"items"`
	Totales  RemitoTotales        `json:"totales"`
}

type RemitoListItem struct {
	ID              uint   `json:"id"`
	ClienteID       uint   `json:"cliente_id"`
	RazonSocial     string `json:"razon_social"`
	Boca            *int   `json:"boca"`
	FechaEntrega    Fecha  `json:"fecha_entrega"`
	FechaRetiro     *Fecha `json:"fecha_retiro"`
	Estado          string `json:"estado"`
	CantItems       int    `json:"cant_items"`
	TotalEntregados int    `json:"total_entregados"`
}

type RemitoListResponse struct {
	Data  []RemitoListItem `json:"data"`
	Total int64            `json:"total"`
	Page  int              `json:"page"`
	Limit int              `json:"limit"`
}
