package repository

import (
	"context"
	"time"

	"consigna/internal/dto"
	"consigna/internal/model"

	"gorm.io/gorm"
)

// RemitoRepository is the persistence contract for remitos and their lines.
// Methods suffixed with Tx must be called with the transaction handle the
// service opened through DB().
type RemitoRepository interface {
	FindByID(ctx context.Context, id uint) (*model.Remito, error)
	List(ctx context.Context, filter dto.RemitoFilter) ([]model.Remito, int64, error)
	ExistsByCliente(ctx context.Context, clienteID uint) (bool, error)
	ExistsByArticulo(ctx context.Context, articuloID uint) (bool, error)

	FindAbiertoTx(tx *gorm.DB, clienteID uint, fecha time.Time) (*model.Remito, error)
	FindByIDTx(tx *gorm.DB, id uint) (*model.Remito, error)
	CreateTx(tx *gorm.DB, r *model.Remito) error
	UpdateCabeceraTx(tx *gorm.DB, r *model.Remito) error
	DeleteItemsTx(tx *gorm.DB, remitoID uint) error
	CreateItemsTx(tx *gorm.DB, items []model.RemitoItem) error
	UpdateItemTx(tx *gorm.DB, item *model.RemitoItem) error
	DeleteTx(tx *gorm.DB, id uint) (int64, error)

	// DB exposes the underlying *gorm.DB so services can open transactions.
	DB() *gorm.DB
}

type remitoRepo struct{ db *gorm.DB }

func NewRemitoRepository(db *gorm.DB) RemitoRepository { return &remitoRepo{db: db} }

func (r *remitoRepo) FindByID(ctx context.Context, id uint) (*model.Remito, error) {
	return r.FindByIDTx(r.db.WithContext(ctx), id)
}

func (r *remitoRepo) FindByIDTx(tx *gorm.DB, id uint) (*model.Remito, error) {
	var rem model.Remito
	err := tx.
		Preload("Cliente").
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("remito_items.id ASC") }).
		Preload("Items.Articulo").
		First(&rem, id).Error
	if err != nil {
		return nil, err
	}
	return &rem, nil
}

func (r *remitoRepo) List(ctx context.Context, filter dto.RemitoFilter) ([]model.Remito, int64, error) {
	var remitos []model.Remito
	var total int64

	q := r.db.WithContext(ctx).Model(&model.Remito{})

	switch filter.Estado {
	case "abierto":
		q = q.Where("fecha_retiro IS NULL")
	case "cerrado":
		q = q.Where("fecha_retiro IS NOT NULL")
	}
	if filter.ClienteID != 0 {
		q = q.Where("cliente_id = ?", filter.ClienteID)
	}
	// Bounds arrive pre-validated by the service; unparsable values are ignored.
	if d, err := dto.ParseFecha(filter.Desde); err == nil && filter.Desde != "" {
		q = q.Where("fecha_entrega >= ?", d.Time)
	}
	if h, err := dto.ParseFecha(filter.Hasta); err == nil && filter.Hasta != "" {
		q = q.Where("fecha_entrega <= ?", h.Time)
	}

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (filter.Page - 1) * filter.Limit
	err := q.Preload("Cliente").Preload("Items").
		Order("fecha_entrega DESC, id DESC").
		Limit(filter.Limit).Offset(offset).
		Find(&remitos).Error
	return remitos, total, err
}

func (r *remitoRepo) ExistsByCliente(ctx context.Context, clienteID uint) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Remito{}).Where("cliente_id = ?", clienteID).Limit(1).Count(&n).Error
	return n > 0, err
}

func (r *remitoRepo) ExistsByArticulo(ctx context.Context, articuloID uint) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.RemitoItem{}).Where("articulo_id = ?", articuloID).Limit(1).Count(&n).Error
	return n > 0, err
}

// FindAbiertoTx returns the open remito for (cliente, fecha) or gorm.ErrRecordNotFound.
func (r *remitoRepo) FindAbiertoTx(tx *gorm.DB, clienteID uint, fecha time.Time) (*model.Remito, error) {
	var rem model.Remito
	err := tx.
		Where("cliente_id = ? AND fecha_entrega = ? AND fecha_retiro IS NULL", clienteID, fecha).
		Order("id ASC").
		First(&rem).Error
	if err != nil {
		return nil, err
	}
	return &rem, nil
}

func (r *remitoRepo) CreateTx(tx *gorm.DB, rem *model.Remito) error {
	return tx.Omit("Items", "Cliente").Create(rem).Error
}

func (r *remitoRepo) UpdateCabeceraTx(tx *gorm.DB, rem *model.Remito) error {
	return tx.Model(&model.Remito{}).Where("id = ?", rem.ID).Updates(map[string]interface{}{
		"porc_dto":      rem.PorcDto,
		"fecha_retiro":  rem.FechaRetiro,
		"observaciones": rem.Observaciones,
		"fecha_mod":     rem.FechaMod,
	}).Error
}

func (r *remitoRepo) DeleteItemsTx(tx *gorm.DB, remitoID uint) error {
	return tx.Where("remito_id = ?", remitoID).Delete(&model.RemitoItem{}).Error
}

func (r *remitoRepo) CreateItemsTx(tx *gorm.DB, items []model.RemitoItem) error {
	if len(items) == 0 {
		return nil
	}
	return tx.Omit("Articulo").Create(&items).Error
}

// UpdateItemTx returns gorm.ErrRecordNotFound when the line no longer exists.
func (r *remitoRepo) UpdateItemTx(tx *gorm.DB, item *model.RemitoItem) error {
	res := tx.Model(&model.RemitoItem{}).Where("id = ?", item.ID).Updates(map[string]interface{}{
		"devueltos":          item.Devueltos,
		"observaciones_item": item.Observaciones,
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// DeleteTx removes a remito and its lines; the returned count is the number
// of header rows removed (0 when the id did not exist).
func (r *remitoRepo) DeleteTx(tx *gorm.DB, id uint) (int64, error) {
	if err := tx.Where("remito_id = ?", id).Delete(&model.RemitoItem{}).Error; err != nil {
		return 0, err
	}
	res := tx.Delete(&model.Remito{}, id)
	return res.RowsAffected, res.Error
}

func (r *remitoRepo) DB() *gorm.DB { return r.db }
