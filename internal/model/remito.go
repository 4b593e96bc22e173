package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Remito is a consignment delivery note. FechaRetiro == nil means the note is
// still open; at most one open note may exist per (ClienteID, FechaEntrega).
type Remito struct {
	ID            uint            `gorm:"primaryKey"`
	ClienteID     uint            `gorm:"not null;index"`
	PorcDto       decimal.Decimal `gorm:"type:decimal(5,2);not null;default:0"`
	FechaEntrega  time.Time       `gorm:"type:date;not null"`
	FechaRetiro   *time.Time      `gorm:"type:date"`
	Observaciones *string
	FechaAlta     time.Time `gorm:"not null"`
	FechaMod      time.Time `gorm:"not null"`

	Cliente *Cliente     `gorm:"foreignKey:ClienteID"`
	Items   []RemitoItem `gorm:"foreignKey:RemitoID"`
}

func (Remito) TableName() string { return "remitos" }

// Abierto reports whether the note has not been closed out yet.
func (r *Remito) Abierto() bool { return r.FechaRetiro == nil }

// RemitoItem is one delivered article. PrecioRealItem is the unit price at the
// moment the line was written, independent of later catalog changes.
type RemitoItem struct {
	ID             uint            `gorm:"primaryKey"`
	RemitoID       uint            `gorm:"not null;index"`
	ArticuloID     uint            `gorm:"not null;index"`
	Entregados     int             `gorm:"not null"`
	Devueltos      int             `gorm:"not null;default:0"`
	Observaciones  *string         `gorm:"column:observaciones_item"`
	PrecioRealItem decimal.Decimal `gorm:"type:decimal(12,2);not null"`

	Articulo *Articulo `gorm:"foreignKey:ArticuloID"`
}

func (RemitoItem) TableName() string { return "remito_items" }
