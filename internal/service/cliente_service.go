package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"consigna/internal/dto"
	"consigna/internal/model"
	"consigna/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ClienteService manages the client directory.
type ClienteService interface {
	Crear(ctx context.Context, req dto.CrearClienteRequest) (*dto.ClienteResponse, error)
	ObtenerPorID(ctx context.Context, id uint) (*dto.ClienteResponse, error)
	Listar(ctx context.Context, filter dto.ClienteFilter) (*dto.ClienteListResponse, error)
	Actualizar(ctx context.Context, id uint, req dto.ActualizarClienteRequest) (*dto.ClienteResponse, error)
	Eliminar(ctx context.Context, id uint) error
}

type clienteService struct {
	repo       repository.ClienteRepository
	vendedores repository.VendedorRepository
	remitos    repository.RemitoRepository
}

func NewClienteService(repo repository.ClienteRepository, vendedores repository.VendedorRepository, remitos repository.RemitoRepository) ClienteService {
	return &clienteService{repo: repo, vendedores: vendedores, remitos: remitos}
}

func mapCliente(c *model.Cliente) *dto.ClienteResponse {
	resp := &dto.ClienteResponse{
		ID:          c.ID,
		RazonSocial: c.RazonSocial,
		Boca:        c.Boca,
		Direccion:   c.Direccion,
		Localidad:   c.Localidad,
		Telefono:    c.Telefono,
		Email:       c.Email,
		PorcDto:     c.PorcDto,
		VendedorID:  c.VendedorID,
	}
	if c.Vendedor != nil {
		nombre := c.Vendedor.Nombre
		resp.NombreVendedor = &nombre
	}
	return resp
}

func validarPorcentaje(v validacion, campo string, p decimal.Decimal) {
	if p.IsNegative() || p.GreaterThan(decimal.NewFromInt(100)) {
		v.add(campo, "debe estar entre 0 y 100")
	}
}

func (s *clienteService) validarReferencias(ctx context.Context, c *model.Cliente) error {
	if c.Boca != nil {
		existing, err := s.repo.FindByBoca(ctx, *c.Boca)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if existing != nil && existing.ID != c.ID {
			return fmt.Errorf("boca %d: %w", *c.Boca, ErrDuplicado)
		}
	}
	if c.VendedorID != nil {
		if _, err := s.vendedores.FindByID(ctx, *c.VendedorID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("vendedor %d: %w", *c.VendedorID, ErrReferencia)
			}
			return err
		}
	}
	return nil
}

func (s *clienteService) Crear(ctx context.Context, req dto.CrearClienteRequest) (*dto.ClienteResponse, error) {
	v := validacion{}
	razon := strings.TrimSpace(req.RazonSocial)
	if razon == "" {
		v.add("razon_social", "requerida")
	}
	if req.Boca != nil && *req.Boca <= 0 {
		v.add("boca", "debe ser mayor a 0")
	}
	validarPorcentaje(v, "porc_dto", req.PorcDto)
	if err := v.Err(); err != nil {
		return nil, err
	}

	c := &model.Cliente{
		RazonSocial: razon,
		Boca:        req.Boca,
		Direccion:   req.Direccion,
		Localidad:   req.Localidad,
		Telefono:    req.Telefono,
		Email:       req.Email,
		PorcDto:     req.PorcDto.Round(2),
		VendedorID:  req.VendedorID,
	}
	if err := s.validarReferencias(ctx, c); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, c); err != nil {
		return nil, fmt.Errorf("creando cliente: %w", err)
	}
	return s.ObtenerPorID(ctx, c.ID)
}

func (s *clienteService) ObtenerPorID(ctx context.Context, id uint) (*dto.ClienteResponse, error) {
	c, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("cliente %d: %w", id, ErrNoEncontrado)
		}
		return nil, err
	}
	return mapCliente(c), nil
}

func (s *clienteService) Listar(ctx context.Context, filter dto.ClienteFilter) (*dto.ClienteListResponse, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 || filter.Limit > 500 {
		filter.Limit = 50
	}
	list, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	data := make([]dto.ClienteResponse, 0, len(list))
	for i := range list {
		data = append(data, *mapCliente(&list[i]))
	}
	return &dto.ClienteListResponse{Data: data, Total: total, Page: filter.Page, Limit: filter.Limit}, nil
}

func (s *clienteService) Actualizar(ctx context.Context, id uint, req dto.ActualizarClienteRequest) (*dto.ClienteResponse, error) {
	c, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("cliente %d: %w", id, ErrNoEncontrado)
		}
		return nil, err
	}

	v := validacion{}
	if req.RazonSocial != nil {
		c.RazonSocial = strings.TrimSpace(*req.RazonSocial)
		if c.RazonSocial == "" {
			v.add("razon_social", "requerida")
		}
	}
	if req.Boca != nil {
		if *req.Boca <= 0 {
			v.add("boca", "debe ser mayor a 0")
		}
		c.Boca = req.Boca
	}
	if req.PorcDto != nil {
		validarPorcentaje(v, "porc_dto", *req.PorcDto)
		c.PorcDto = req.PorcDto.Round(2)
	}
	if err := v.Err(); err != nil {
		return nil, err
	}
	if req.Direccion != nil {
		c.Direccion = req.Direccion
	}
	if req.Localidad != nil {
		c.Localidad = req.Localidad
	}
	if req.Telefono != nil {
		c.Telefono = req.Telefono
	}
	if req.Email != nil {
		c.Email = req.Email
	}
	if req.VendedorID != nil {
		c.VendedorID = req.VendedorID
		c.Vendedor = nil
	}
	if err := s.validarReferencias(ctx, c); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, c); err != nil {
		return nil, fmt.Errorf("actualizando cliente %d: %w", id, err)
	}
	return s.ObtenerPorID(ctx, id)
}

func (s *clienteService) Eliminar(ctx context.Context, id uint) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("cliente %d: %w", id, ErrNoEncontrado)
		}
		return err
	}
	enUso, err := s.remitos.ExistsByCliente(ctx, id)
	if err != nil {
		return err
	}
	if enUso {
		return fmt.Errorf("cliente %d tiene remitos: %w", id, ErrEnUso)
	}
	return s.repo.Delete(ctx, id)
}
