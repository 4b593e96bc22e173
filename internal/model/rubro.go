package model

import "time"

// Rubro classifies articulos (GORRAS, ANTEOJOS, ...).
type Rubro struct {
	ID          uint      `gorm:"primaryKey"`
	NombreRubro string    `gorm:"uniqueIndex;not null"`
	FechaAlta   time.Time `gorm:"autoCreateTime"`
	FechaMod    time.Time `gorm:"autoUpdateTime"`
}

// TableName overrides GORM's default singular → plural logic for Spanish names.
func (Rubro) TableName() string { return "rubros" }
