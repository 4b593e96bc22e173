package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type Vendedor struct {
	ID        uint   `gorm:"primaryKey"`
	Nombre    string `gorm:"not null"`
	Direccion *string
	Localidad *string
	Telefono  *string
	Email     *string
	Comision  *decimal.Decimal `gorm:"type:decimal(5,2)"`
	FechaAlta time.Time        `gorm:"autoCreateTime"`
	FechaMod  time.Time        `gorm:"autoUpdateTime"`
}

// TableName avoids GORM's "vendedors".
func (Vendedor) TableName() string { return "vendedores" }
