package repository

import (
	"context"

	"consigna/internal/model"

	"gorm.io/gorm"
)

type VendedorRepository interface {
	Create(ctx context.Context, v *model.Vendedor) error
	FindByID(ctx context.Context, id uint) (*model.Vendedor, error)
	List(ctx context.Context) ([]model.Vendedor, error)
	Update(ctx context.Context, v *model.Vendedor) error
	Delete(ctx context.Context, id uint) error
	TieneClientes(ctx context.Context, id uint) (bool, error)
}

type vendedorRepo struct{ db *gorm.DB }

func NewVendedorRepository(db *gorm.DB) VendedorRepository { return &vendedorRepo{db: db} }

func (r *vendedorRepo) Create(ctx context.Context, v *model.Vendedor) error {
	return r.db.WithContext(ctx).Create(v).Error
}

func (r *vendedorRepo) FindByID(ctx context.Context, id uint) (*model.Vendedor, error) {
	var v model.Vendedor
	if err := r.db.WithContext(ctx).First(&v, id).Error; err != nil {
		return nil, err
	}
	return &v, nil
}

func (r *vendedorRepo) List(ctx context.Context) ([]model.Vendedor, error) {
	var list []model.Vendedor
	err := r.db.WithContext(ctx).Order("nombre ASC").Find(&list).Error
	return list, err
}

func (r *vendedorRepo) Update(ctx context.Context, v *model.Vendedor) error {
	return r.db.WithContext(ctx).Save(v).Error
}

func (r *vendedorRepo) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&model.Vendedor{}, id).Error
}

func (r *vendedorRepo) TieneClientes(ctx context.Context, id uint) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Cliente{}).Where("vendedor_id = ?", id).Count(&n).Error
	return n > 0, err
}
