package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Motivos de cambio de precio.
const (
	MotivoRemito           = "remito"
	MotivoManual           = "manual"
	MotivoImportacionExcel = "importacion_excel"
)

// HistorialPrecio registra cada cambio de precio_real de un articulo.
// Los registros son inmutables.
type HistorialPrecio struct {
	ID            uint            `gorm:"primaryKey"`
	ArticuloID    uint            `gorm:"not null;index"`
	PrecioAntes   decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	PrecioDespues decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Motivo        string          `gorm:"not null;default:'manual'"` // remito | manual | importacion_excel
	RemitoID      *uint
	CreatedAt     time.Time

	Articulo *Articulo `gorm:"foreignKey:ArticuloID;constraint:OnDelete:CASCADE"`
}

func (HistorialPrecio) TableName() string { return "historial_precios" }
