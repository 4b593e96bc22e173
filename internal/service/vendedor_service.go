package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"consigna/internal/dto"
	"consigna/internal/model"
	"consigna/internal/repository"

	"gorm.io/gorm"
)

type VendedorService interface {
	Crear(ctx context.Context, req dto.CrearVendedorRequest) (*dto.VendedorResponse, error)
	ObtenerPorID(ctx context.Context, id uint) (*dto.VendedorResponse, error)
	Listar(ctx context.Context) ([]dto.VendedorResponse, error)
	Actualizar(ctx context.Context, id uint, req dto.ActualizarVendedorRequest) (*dto.VendedorResponse, error)
	Eliminar(ctx context.Context, id uint) error
}

type vendedorService struct {
	repo repository.VendedorRepository
}

func NewVendedorService(repo repository.VendedorRepository) VendedorService {
	return &vendedorService{repo: repo}
}

func mapVendedor(v *model.Vendedor) *dto.VendedorResponse {
	return &dto.VendedorResponse{
		ID:        v.ID,
		Nombre:    v.Nombre,
		Direccion: v.Direccion,
		Localidad: v.Localidad,
		Telefono:  v.Telefono,
		Email:     v.Email,
		Comision:  v.Comision,
	}
}

func (s *vendedorService) Crear(ctx context.Context, req dto.CrearVendedorRequest) (*dto.VendedorResponse, error) {
	v := validacion{}
	nombre := strings.TrimSpace(req.Nombre)
	if nombre == "" {
		v.add("nombre", "requerido")
	}
	if req.Comision != nil {
		validarPorcentaje(v, "comision", *req.Comision)
	}
	if err := v.Err(); err != nil {
		return nil, err
	}

	m := &model.Vendedor{
		Nombre:    nombre,
		Direccion: req.Direccion,
		Localidad: req.Localidad,
		Telefono:  req.Telefono,
		Email:     req.Email,
		Comision:  req.Comision,
	}
	if err := s.repo.Create(ctx, m); err != nil {
		return nil, fmt.Errorf("creando vendedor: %w", err)
	}
	return mapVendedor(m), nil
}

func (s *vendedorService) ObtenerPorID(ctx context.Context, id uint) (*dto.VendedorResponse, error) {
	m, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("vendedor %d: %w", id, ErrNoEncontrado)
		}
		return nil, err
	}
	return mapVendedor(m), nil
}

func (s *vendedorService) Listar(ctx context.Context) ([]dto.VendedorResponse, error) {
	list, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]dto.VendedorResponse, 0, len(list))
	for i := range list {
		out = append(out, *mapVendedor(&list[i]))
	}
	return out, nil
}

func (s *vendedorService) Actualizar(ctx context.Context, id uint, req dto.ActualizarVendedorRequest) (*dto.VendedorResponse, error) {
	m, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("vendedor %d: %w", id, ErrNoEncontrado)
		}
		return nil, err
	}

	v := validacion{}
	if req.Nombre != nil {
		m.Nombre = strings.TrimSpace(*req.Nombre)
		if m.Nombre == "" {
			v.add("nombre", "requerido")
		}
	}
	if req.Comision != nil {
		validarPorcentaje(v, "comision", *req.Comision)
		m.Comision = req.Comision
	}
	if err := v.Err(); err != nil {
		return nil, err
	}
	if req.Direccion != nil {
		m.Direccion = req.Direccion
	}
	if req.Localidad != nil {
		m.Localidad = req.Localidad
	}
	if req.Telefono != nil {
		m.Telefono = req.Telefono
	}
	if req.Email != nil {
		m.Email = req.Email
	}

	if err := s.repo.Update(ctx, m); err != nil {
		return nil, fmt.Errorf("actualizando vendedor %d: %w", id, err)
	}
	return mapVendedor(m), nil
}

func (s *vendedorService) Eliminar(ctx context.Context, id uint) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("vendedor %d: %w", id, ErrNoEncontrado)
		}
		return err
	}
	tiene, err := s.repo.TieneClientes(ctx, id)
	if err != nil {
		return err
	}
	if tiene {
		return fmt.Errorf("vendedor %d tiene clientes: %w", id, ErrEnUso)
	}
	return s.repo.Delete(ctx, id)
}
