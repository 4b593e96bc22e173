package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Articulo is a catalog entry. PrecioReal is the consignment price; it drifts
// toward the last price invoiced on a remito line.
type Articulo struct {
	ID            uint             `gorm:"primaryKey"`
	NroArticulo   string           `gorm:"uniqueIndex;not null;size:11"`
	Descripcion   string           `gorm:"not null"`
	Costo         *decimal.Decimal `gorm:"type:decimal(12,2)"`
	PrecioPublico *decimal.Decimal `gorm:"type:decimal(12,2)"`
	PrecioReal    decimal.Decimal  `gorm:"type:decimal(12,2);not null"`
	RubroID       *uint            `gorm:"index"`
	FechaAlta     time.Time        `gorm:"autoCreateTime"`
	FechaMod      time.Time        `gorm:"autoUpdateTime"`

	Rubro *Rubro `gorm:"foreignKey:RubroID"`
}

func (Articulo) TableName() string { return "articulos" }
