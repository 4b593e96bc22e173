package repository

import (
	"context"

	"consigna/internal/model"

	"gorm.io/gorm"
)

// RubroRepository defines CRUD operations for Rubro.
type RubroRepository interface {
	Crear(ctx context.Context, r *model.Rubro) error
	Listar(ctx context.Context) ([]model.Rubro, error)
	ObtenerPorID(ctx context.Context, id uint) (*model.Rubro, error)
	ObtenerPorNombre(ctx context.Context, nombre string) (*model.Rubro, error)
	Actualizar(ctx context.Context, r *model.Rubro) error
	Eliminar(ctx context.Context, id uint) error
	EnUso(ctx context.Context, id uint) (bool, error)
}

type rubroRepository struct{ db *gorm.DB }

func NewRubroRepository(db *gorm.DB) RubroRepository {
	return &rubroRepository{db: db}
}

func (r *rubroRepository) Crear(ctx context.Context, rb *model.Rubro) error {
	return r.db.WithContext(ctx).Create(rb).Error
}

func (r *rubroRepository) Listar(ctx context.Context) ([]model.Rubro, error) {
	var list []model.Rubro
	err := r.db.WithContext(ctx).Order("nombre_rubro asc").Find(&list).Error
	return list, err
}

func (r *rubroRepository) ObtenerPorID(ctx context.Context, id uint) (*model.Rubro, error) {
	var rb model.Rubro
	if err := r.db.WithContext(ctx).First(&rb, id).Error; err != nil {
		return nil, err
	}
	return &rb, nil
}

func (r *rubroRepository) ObtenerPorNombre(ctx context.Context, nombre string) (*model.Rubro, error) {
	var rb model.Rubro
	if err := r.db.WithContext(ctx).Where("lower(nombre_rubro) = lower(?)", nombre).First(&rb).Error; err != nil {
		return nil, err
	}
	return &rb, nil
}

func (r *rubroRepository) Actualizar(ctx context.Context, rb *model.Rubro) error {
	return r.db.WithContext(ctx).Save(rb).Error
}

func (r *rubroRepository) Eliminar(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&model.Rubro{}, id).Error
}

func (r *rubroRepository) EnUso(ctx context.Context, id uint) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Articulo{}).Where("rubro_id = ?", id).Count(&n).Error
	return n > 0, err
}
