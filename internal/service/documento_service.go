package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"consigna/internal/infra"
	"consigna/internal/repository"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// RemitoNotifier queues a remito for e-mail delivery.
// Implemented by worker.Dispatcher.
type RemitoNotifier interface {
	EnqueueRemitoEmail(ctx context.Context, remitoID uint, toEmail string) error
}

// DocumentoService renders printable documents: the remito spreadsheet and
// barcode label sheets.
type DocumentoService interface {
	RemitoExcel(ctx context.Context, id uint) (content []byte, fileName string, err error)
	Etiquetas(ctx context.Context, articuloID uint, precio *decimal.Decimal, cantidad int) (*infra.HojaEtiquetas, string, error)
	// EnviarRemito queues the spreadsheet for the client's e-mail and
	// returns the destination address.
	EnviarRemito(ctx context.Context, id uint) (string, error)
}

type documentoService struct {
	remitos      RemitoService
	articulos    repository.ArticuloRepository
	notifier     RemitoNotifier
	templatePath string
}

func NewDocumentoService(
	remitos RemitoService,
	articulos repository.ArticuloRepository,
	notifier RemitoNotifier,
	templatePath string,
) DocumentoService {
	return &documentoService{
		remitos:      remitos,
		articulos:    articulos,
		notifier:     notifier,
		templatePath: templatePath,
	}
}

func (s *documentoService) RemitoExcel(ctx context.Context, id uint) ([]byte, string, error) {
	r, found, err := s.remitos.ObtenerCompleto(ctx, id)
	if err != nil {
		return nil, "", err
	}
	if !found {
		return nil, "", fmt.Errorf("remito %d: %w", id, ErrNoEncontrado)
	}

	content, err := infra.GenerarRemitoExcel(s.templatePath, r)
	if err != nil {
		if errors.Is(err, infra.ErrPlantillaLlena) {
			return nil, "", &ValidationError{Fields: map[string]string{"items": err.Error()}}
		}
		return nil, "", fmt.Errorf("generando excel del remito %d: %w", id, err)
	}
	return content, infra.NombreArchivoRemito(r), nil
}

func (s *documentoService) Etiquetas(ctx context.Context, articuloID uint, precio *decimal.Decimal, cantidad int) (*infra.HojaEtiquetas, string, error) {
	a, err := s.articulos.FindByID(ctx, articuloID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", fmt.Errorf("artículo %d: %w", articuloID, ErrNoEncontrado)
		}
		return nil, "", err
	}

	p := a.PrecioReal
	if precio != nil {
		p = *precio
	}
	v := validacion{}
	if p.IsNegative() {
		v.add("precio", "no puede ser negativo")
	}
	if cantidad < 1 || cantidad > infra.EtiquetasMaximo {
		v.add("cantidad", fmt.Sprintf("debe estar entre 1 y %d", infra.EtiquetasMaximo))
	}
	if err := v.Err(); err != nil {
		return nil, "", err
	}

	hoja, err := infra.GenerarEtiquetas(a.NroArticulo, p, cantidad)
	if err != nil {
		return nil, "", fmt.Errorf("generando etiquetas de %s: %w", a.NroArticulo, err)
	}
	return hoja, fmt.Sprintf("Etiquetas_%s.pdf", a.NroArticulo), nil
}

func (s *documentoService) EnviarRemito(ctx context.Context, id uint) (string, error) {
	r, found, err := s.remitos.ObtenerCompleto(ctx, id)
	if err != nil {
		return "", err
	}
	if !found {
		return "", fmt.Errorf("remito %d: %w", id, ErrNoEncontrado)
	}
	if r.Cabecera.Email == nil || strings.TrimSpace(*r.Cabecera.Email) == "" {
		return "", &ValidationError{Fields: map[string]string{"email": "el cliente no tiene e-mail cargado"}}
	}
	to := strings.TrimSpace(*r.Cabecera.Email)

	if err := s.notifier.EnqueueRemitoEmail(ctx, id, to); err != nil {
		return "", fmt.Errorf("encolando envío del remito %d: %w", id, err)
	}
	log.Info().Uint("remito_id", id).Str("to", to).Msg("envío de remito encolado")
	return to, nil
}
