package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Cliente is a retail outlet receiving goods on consignment.
// Boca is the outlet number; unique when present.
type Cliente struct {
	ID          uint   `gorm:"primaryKey"`
	RazonSocial string `gorm:"not null"`
	Boca        *int   `gorm:"uniqueIndex"`
	Direccion   *string
	Localidad   *string
	Telefono    *string
	Email       *string
	PorcDto     decimal.Decimal `gorm:"type:decimal(5,2);not null;default:0"`
	VendedorID  *uint           `gorm:"index"`
	FechaAlta   time.Time       `gorm:"autoCreateTime"`
	FechaMod    time.Time       `gorm:"autoUpdateTime"`

	Vendedor *Vendedor `gorm:"foreignKey:VendedorID"`
}

func (Cliente) TableName() string { return "clientes" }
