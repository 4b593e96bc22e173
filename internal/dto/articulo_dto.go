package dto

import "github.com/shopspring/decimal"

// ─── Request DTOs ────────────────────────────────────────────────────────────

type CrearArticuloRequest struct {
	NroArticulo   string           `json:"nro_articulo"   validate:"required,max=11"`
	Descripcion   string           `json:"descripcion"    validate:"required,max=120"`
	Costo         *decimal.Decimal `json:"costo"`
	PrecioPublico *decimal.Decimal `json:"precio_publico"`
	PrecioReal    decimal.Decimal  `json:"precio_real"    validate:"gt=0"`
	RubroID       *uint            `json:"rubro_id"`
}

type ActualizarArticuloRequest struct {
	NroArticulo   *string          `json:"nro_articulo"   validate:"omitempty,max=11"`
	Descripcion   *string          `json:"descripcion"    validate:"omitempty,max=120"`
	Costo         *decimal.Decimal `json:"costo"`
	PrecioPublico *decimal.Decimal `json:"precio_publico"`
	PrecioReal    *decimal.Decimal `json:"precio_real"`
	RubroID       *uint            `json:"rubro_id"`
}

// ─── Filter / Pagination ─────────────────────────────────────────────────────

type ArticuloFilter struct {
	Nro         string `form:"nro"`
	Descripcion string `form:"descripcion"`
	RubroID     uint   `form:"rubro_id"`
	Page        int    `form:"page,default=1"  validate:"min=1"`
	Limit       int    `form:"limit,default=50" validate:"min=1,max=500"`
}

type EtiquetasQuery struct {
	Cantidad int    `form:"cantidad,default=60" validate:"min=1,max=4000"`
	Precio   string `form:"precio"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type ArticuloResponse struct {
	ID            uint             `json:"id"`
	NroArticulo   string           `json:"nro_articulo"`
	Descripcion   string           `json:"descripcion"`
	Costo         *decimal.Decimal `json:"costo"`
	PrecioPublico *decimal.Decimal `json:"precio_publico"`
	PrecioReal    decimal.Decimal  `json:"precio_real"`
	RubroID       *uint            `json:"rubro_id"`
	NombreRubro   *string          `json:"nombre_rubro,omitempty"`
	FechaMod      string           `json:"fecha_mod"`
}

type ArticuloListResponse struct {
	Data       []ArticuloResponse `json:"data"`
	Total      int64              `json:"total"`
	Page       int                `json:"page"`
	Limit      int                `json:"limit"`
	TotalPages int                `json:"total_pages"`
}

// ImportacionResponse summarises an Excel master import.
type ImportacionResponse struct {
	Insertados   int      `json:"insertados"`
	Actualizados int      `json:"actualizados"`
	Omitidos     []string `json:"omitidos"` // "fila N: motivo"
}

// ConsultaPrecioResponse is returned by the public price check endpoint.
type ConsultaPrecioResponse struct {
	NroArticulo   string           `json:"nro_articulo"`
	Descripcion   string           `json:"descripcion"`
	PrecioReal    decimal.Decimal  `json:"precio_real"`
	PrecioPublico *decimal.Decimal `json:"precio_publico"`
}
