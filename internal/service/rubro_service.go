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

// RubroService defines business operations for article categories.
type RubroService interface {
	Crear(ctx context.Context, req dto.CrearRubroRequest) (dto.RubroResponse, error)
	Listar(ctx context.Context) ([]dto.RubroResponse, error)
	Actualizar(ctx context.Context, id uint, req dto.ActualizarRubroRequest) (dto.RubroResponse, error)
	Eliminar(ctx context.Context, id uint) error
}

type rubroService struct {
	repo repository.RubroRepository
}

func NewRubroService(repo repository.RubroRepository) RubroService {
	return &rubroService{repo: repo}
}

// mapRubro converts a model to a DTO response.
func mapRubro(r model.Rubro) dto.RubroResponse {
	return dto.RubroResponse{ID: r.ID, NombreRubro: r.NombreRubro}
}

func normalizarRubro(nombre string) string {
	return strings.ToUpper(strings.TrimSpace(nombre))
}

func (s *rubroService) Crear(ctx context.Context, req dto.CrearRubroRequest) (dto.RubroResponse, error) {
	nombre := normalizarRubro(req.NombreRubro)
	if nombre == "" {
		return dto.RubroResponse{}, &ValidationError{Fields: map[string]string{"nombre_rubro": "requerido"}}
	}

	// Check for duplicate name
	existing, err := s.repo.ObtenerPorNombre(ctx, nombre)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return dto.RubroResponse{}, err
	}
	if existing != nil {
		return dto.RubroResponse{}, fmt.Errorf("rubro %s: %w", nombre, ErrDuplicado)
	}

	r := &model.Rubro{NombreRubro: nombre}
	if err := s.repo.Crear(ctx, r); err != nil {
		return dto.RubroResponse{}, err
	}
	return mapRubro(*r), nil
}

func (s *rubroService) Listar(ctx context.Context) ([]dto.RubroResponse, error) {
	list, err := s.repo.Listar(ctx)
	if err != nil {
		return nil, err
	}
	result := make([]dto.RubroResponse, 0, len(list))
	for _, r := range list {
		result = append(result, mapRubro(r))
	}
	return result, nil
}

func (s *rubroService) Actualizar(ctx context.Context, id uint, req dto.ActualizarRubroRequest) (dto.RubroResponse, error) {
	r, err := s.repo.ObtenerPorID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.RubroResponse{}, fmt.Errorf("rubro %d: %w", id, ErrNoEncontrado)
		}
		return dto.RubroResponse{}, err
	}

	if req.NombreRubro != nil {
		nombre := normalizarRubro(*req.NombreRubro)
		if nombre == "" {
			return dto.RubroResponse{}, &ValidationError{Fields: map[string]string{"nombre_rubro": "requerido"}}
		}
		// Check uniqueness if name is changing
		if nombre != r.NombreRubro {
			existing, err := s.repo.ObtenerPorNombre(ctx, nombre)
			if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
				return dto.RubroResponse{}, err
			}
			if existing != nil && existing.ID != id {
				return dto.RubroResponse{}, fmt.Errorf("rubro %s: %w", nombre, ErrDuplicado)
			}
		}
		r.NombreRubro = nombre
	}

	if err := s.repo.Actualizar(ctx, r); err != nil {
		return dto.RubroResponse{}, err
	}
	return mapRubro(*r), nil
}

func (s *rubroService) Eliminar(ctx context.Context, id uint) error {
	if _, err := s.repo.ObtenerPorID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("rubro %d: %w", id, ErrNoEncontrado)
		}
		return err
	}
	enUso, err := s.repo.EnUso(ctx, id)
	if err != nil {
		return err
	}
	if enUso {
		return fmt.Errorf("rubro %d tiene artículos: %w", id, ErrEnUso)
	}
	return s.repo.Eliminar(ctx, id)
}
