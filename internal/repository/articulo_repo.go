package repository

import (
	"context"
	"strings"

	"consigna/internal/dto"
	"consigna/internal/model"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ArticuloRepository defines the data access contract for catalog articles.
type ArticuloRepository interface {
	Create(ctx context.Context, a *model.Articulo) error
	FindByID(ctx context.Context, id uint) (*model.Articulo, error)
	FindByNro(ctx context.Context, nro string) (*model.Articulo, error)
	List(ctx context.Context, filter dto.ArticuloFilter) ([]model.Articulo, int64, error)
	Update(ctx context.Context, a *model.Articulo) error
	Delete(ctx context.Context, id uint) error

	FindByIDTx(tx *gorm.DB, id uint) (*model.Articulo, error)
	FindByNroTx(tx *gorm.DB, nro string) (*model.Articulo, error)
	FindByNrosTx(tx *gorm.DB, nros []string) ([]model.Articulo, error)
	CreateTx(tx *gorm.DB, a *model.Articulo) error
	UpdateTx(tx *gorm.DB, a *model.Articulo) error
	// UpdatePrecioRealTx overwrites the catalog price inside a tx.
	UpdatePrecioRealTx(tx *gorm.DB, id uint, precio decimal.Decimal) error
	UpdateDatosTx(tx *gorm.DB, id uint, descripcion string, precio decimal.Decimal) error

	DB() *gorm.DB
}

type articuloRepo struct{ db *gorm.DB }

func NewArticuloRepository(db *gorm.DB) ArticuloRepository { return &articuloRepo{db: db} }

func (r *articuloRepo) Create(ctx context.Context, a *model.Articulo) error {
	return r.CreateTx(r.db.WithContext(ctx), a)
}

func (r *articuloRepo) CreateTx(tx *gorm.DB, a *model.Articulo) error {
	return tx.Omit("Rubro").Create(a).Error
}

func (r *articuloRepo) FindByID(ctx context.Context, id uint) (*model.Articulo, error) {
	return r.FindByIDTx(r.db.WithContext(ctx), id)
}

func (r *articuloRepo) FindByIDTx(tx *gorm.DB, id uint) (*model.Articulo, error) {
	var a model.Articulo
	if err := tx.Preload("Rubro").First(&a, id).Error; err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *articuloRepo) FindByNro(ctx context.Context, nro string) (*model.Articulo, error) {
	return r.FindByNroTx(r.db.WithContext(ctx), nro)
}

func (r *articuloRepo) FindByNroTx(tx *gorm.DB, nro string) (*model.Articulo, error) {
	var a model.Articulo
	if err := tx.Where("nro_articulo = ?", strings.ToUpper(strings.TrimSpace(nro))).First(&a).Error; err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *articuloRepo) List(ctx context.Context, filter dto.ArticuloFilter) ([]model.Articulo, int64, error) {
	var articulos []model.Articulo
	var total int64

	q := r.db.WithContext(ctx).Model(&model.Articulo{})
	if filter.Nro != "" {
		q = q.Where("nro_articulo LIKE ?", strings.ToUpper(filter.Nro)+"%")
	}
	if filter.Descripcion != "" {
		q = q.Where("LOWER(descripcion) LIKE ?", "%"+strings.ToLower(filter.Descripcion)+"%")
	}
	if filter.RubroID != 0 {
		q = q.Where("rubro_id = ?", filter.RubroID)
	}

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (filter.Page - 1) * filter.Limit
	err := q.Preload("Rubro").Order("nro_articulo ASC").Limit(filter.Limit).Offset(offset).Find(&articulos).Error
	return articulos, total, err
}

func (r *articuloRepo) FindByNrosTx(tx *gorm.DB, nros []string) ([]model.Articulo, error) {
	var list []model.Articulo
	if len(nros) == 0 {
		return list, nil
	}
	err := tx.Where("nro_articulo IN ?", nros).Find(&list).Error
	return list, err
}

func (r *articuloRepo) Update(ctx context.Context, a *model.Articulo) error {
	return r.UpdateTx(r.db.WithContext(ctx), a)
}

func (r *articuloRepo) UpdateTx(tx *gorm.DB, a *model.Articulo) error {
	return tx.Omit("Rubro").Save(a).Error
}

func (r *articuloRepo) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&model.Articulo{}, id).Error
}

func (r *articuloRepo) UpdatePrecioRealTx(tx *gorm.DB, id uint, precio decimal.Decimal) error {
	return tx.Model(&model.Articulo{}).Where("id = ?", id).Update("precio_real", precio).Error
}

func (r *articuloRepo) UpdateDatosTx(tx *gorm.DB, id uint, descripcion string, precio decimal.Decimal) error {
	return tx.Model(&model.Articulo{}).Where("id = ?", id).Updates(map[string]interface{}{
		"descripcion": descripcion,
		"precio_real": precio,
	}).Error
}

func (r *articuloRepo) DB() *gorm.DB { return r.db }
