package repository

import (
	"context"
	"strings"

	"consigna/internal/dto"
	"consigna/internal/model"

	"gorm.io/gorm"
)

type ClienteRepository interface {
	Create(ctx context.Context, c *model.Cliente) error
	FindByID(ctx context.Context, id uint) (*model.Cliente, error)
	FindByBoca(ctx context.Context, boca int) (*model.Cliente, error)
	List(ctx context.Context, filter dto.ClienteFilter) ([]model.Cliente, int64, error)
	Update(ctx context.Context, c *model.Cliente) error
	Delete(ctx context.Context, id uint) error
	FindByIDTx(tx *gorm.DB, id uint) (*model.Cliente, error)
}

type clienteRepo struct{ db *gorm.DB }

func NewClienteRepository(db *gorm.DB) ClienteRepository { return &clienteRepo{db: db} }

func (r *clienteRepo) Create(ctx context.Context, c *model.Cliente) error {
	return r.db.WithContext(ctx).Omit("Vendedor").Create(c).Error
}

func (r *clienteRepo) FindByID(ctx context.Context, id uint) (*model.Cliente, error) {
	return r.FindByIDTx(r.db.WithContext(ctx), id)
}

func (r *clienteRepo) FindByIDTx(tx *gorm.DB, id uint) (*model.Cliente, error) {
	var c model.Cliente
	if err := tx.Preload("Vendedor").First(&c, id).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *clienteRepo) FindByBoca(ctx context.Context, boca int) (*model.Cliente, error) {
	var c model.Cliente
	if err := r.db.WithContext(ctx).Where("boca = ?", boca).First(&c).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *clienteRepo) List(ctx context.Context, filter dto.ClienteFilter) ([]model.Cliente, int64, error) {
	var clientes []model.Cliente
	var total int64

	q := r.db.WithContext(ctx).Model(&model.Cliente{})
	if filter.RazonSocial != "" {
		q = q.Where("LOWER(razon_social) LIKE ?", "%"+strings.ToLower(filter.RazonSocial)+"%")
	}
	if filter.Boca != 0 {
		q = q.Where("boca = ?", filter.Boca)
	}
	if filter.VendedorID != 0 {
		q = q.Where("vendedor_id = ?", filter.VendedorID)
	}

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (filter.Page - 1) * filter.Limit
	err := q.Preload("Vendedor").Order("razon_social ASC").Limit(filter.Limit).Offset(offset).Find(&clientes).Error
	return clientes, total, err
}

func (r *clienteRepo) Update(ctx context.Context, c *model.Cliente) error {
	return r.db.WithContext(ctx).Omit("Vendedor").Save(c).Error
}

func (r *clienteRepo) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&model.Cliente{}, id).Error
}
