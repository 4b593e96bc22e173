package dto

import "github.com/shopspring/decimal"

// HistorialPrecioItem is one row in the price-history list.
type HistorialPrecioItem struct {
	ID            uint            `json:"id"`
	ArticuloID    uint            `json:"articulo_id"`
	PrecioAntes   decimal.Decimal `json:"precio_antes"`
	PrecioDespues decimal.Decimal `json:"precio_despues"`
	Motivo        string          `json:"motivo"`
	RemitoID      *uint           `json:"remito_id,omitempty"`
	CreatedAt     string          `json:"created_at"`
}

// HistorialPrecioListResponse is returned by GET /v1/articulos/:id/historial-precios.
type HistorialPrecioListResponse struct {
	Data  []HistorialPrecioItem `json:"data"`
	Total int64                 `json:"total"`
	Page  int                   `json:"page"`
	Limit int                   `json:"limit"`
}
