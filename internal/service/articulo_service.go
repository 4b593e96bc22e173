package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"consigna/internal/dto"
	"consigna/internal/infra"
	"consigna/internal/model"
	"consigna/internal/repository"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const maxNroArticulo = 11

// ArticuloService defines the catalog business operations.
type ArticuloService interface {
	Crear(ctx context.Context, req dto.CrearArticuloRequest) (*dto.ArticuloResponse, error)
	ObtenerPorID(ctx context.Context, id uint) (*dto.ArticuloResponse, error)
	ObtenerPorNro(ctx context.Context, nro string) (*dto.ArticuloResponse, error)
	Listar(ctx context.Context, filter dto.ArticuloFilter) (*dto.ArticuloListResponse, error)
	Actualizar(ctx context.Context, id uint, req dto.ActualizarArticuloRequest) (*dto.ArticuloResponse, error)
	Eliminar(ctx context.Context, id uint) error

	// ImportarExcel upserts the article master workbook by nro_articulo.
	ImportarExcel(ctx context.Context, r io.Reader) (*dto.ImportacionResponse, error)
	// ConsultarPrecio is the public price lookup, cached in Redis.
	ConsultarPrecio(ctx context.Context, nro string) (*dto.ConsultaPrecioResponse, error)
	HistorialPrecios(ctx context.Context, id uint, page, limit int) (*dto.HistorialPrecioListResponse, error)
}

type articuloService struct {
	repo      repository.ArticuloRepository
	rubros    repository.RubroRepository
	remitos   repository.RemitoRepository
	historial repository.HistorialPrecioRepository
	rdb       *redis.Client
	metrics   *infra.Metrics
}

func NewArticuloService(
	repo repository.ArticuloRepository,
	rubros repository.RubroRepository,
	remitos repository.RemitoRepository,
	historial repository.HistorialPrecioRepository,
	rdb *redis.Client,
	metrics *infra.Metrics,
) ArticuloService {
	return &articuloService{repo: repo, rubros: rubros, remitos: remitos, historial: historial, rdb: rdb, metrics: metrics}
}

// ── Normalisation ─────────────────────────────────────────────────────────────

func normalizarNro(nro string) string {
	return strings.ToUpper(strings.TrimSpace(nro))
}

// capitalizar upper-cases the first letter and lower-cases the rest.
func capitalizar(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return s
	}
	r, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(r)) + strings.ToLower(s[size:])
}

func mapArticulo(a *model.Articulo) *dto.ArticuloResponse {
	resp := &dto.ArticuloResponse{
		ID:            a.ID,
		NroArticulo:   a.NroArticulo,
		Descripcion:   a.Descripcion,
		Costo:         a.Costo,
		PrecioPublico: a.PrecioPublico,
		PrecioReal:    a.PrecioReal,
		RubroID:       a.RubroID,
		FechaMod:      a.FechaMod.Format(time.RFC3339),
	}
	if a.Rubro != nil {
		nombre := a.Rubro.NombreRubro
		resp.NombreRubro = &nombre
	}
	return resp
}

func (s *articuloService) validarRubro(ctx context.Context, rubroID *uint) error {
	if rubroID == nil {
		return nil
	}
	if _, err := s.rubros.ObtenerPorID(ctx, *rubroID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("rubro %d: %w", *rubroID, ErrReferencia)
		}
		return err
	}
	return nil
}

func (s *articuloService) nroDisponible(ctx context.Context, nro string, propio uint) error {
	existing, err := s.repo.FindByNro(ctx, nro)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	if existing != nil && existing.ID != propio {
		return fmt.Errorf("artículo %s: %w", nro, ErrDuplicado)
	}
	return nil
}

// ── CRUD ──────────────────────────────────────────────────────────────────────

func (s *articuloService) Crear(ctx context.Context, req dto.CrearArticuloRequest) (*dto.ArticuloResponse, error) {
	nro := normalizarNro(req.NroArticulo)
	desc := capitalizar(req.Descripcion)

	v := validacion{}
	if nro == "" || len(nro) > maxNroArticulo {
		v.add("nro_articulo", fmt.Sprintf("requerido, hasta %d caracteres", maxNroArticulo))
	}
	if desc == "" {
		v.add("descripcion", "requerida")
	}
	if !req.PrecioReal.IsPositive() {
		v.add("precio_real", "debe ser mayor a 0")
	}
	if err := v.Err(); err != nil {
		return nil, err
	}
	if err := s.validarRubro(ctx, req.RubroID); err != nil {
		return nil, err
	}
	if err := s.nroDisponible(ctx, nro, 0); err != nil {
		return nil, err
	}

	a := &model.Articulo{
		NroArticulo:   nro,
		Descripcion:   desc,
		Costo:         req.Costo,
		PrecioPublico: req.PrecioPublico,
		PrecioReal:    req.PrecioReal.Round(2),
		RubroID:       req.RubroID,
	}
	if err := s.repo.Create(ctx, a); err != nil {
		return nil, fmt.Errorf("creando artículo: %w", err)
	}
	return s.ObtenerPorID(ctx, a.ID)
}

func (s *articuloService) ObtenerPorID(ctx context.Context, id uint) (*dto.ArticuloResponse, error) {
	a, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("artículo %d: %w", id, ErrNoEncontrado)
		}
		return nil, err
	}
	return mapArticulo(a), nil
}

func (s *articuloService) ObtenerPorNro(ctx context.Context, nro string) (*dto.ArticuloResponse, error) {
	a, err := s.repo.FindByNro(ctx, nro)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("artículo %s: %w", normalizarNro(nro), ErrNoEncontrado)
		}
		return nil, err
	}
	return mapArticulo(a), nil
}

func (s *articuloService) Listar(ctx context.Context, filter dto.ArticuloFilter) (*dto.ArticuloListResponse, error) {
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
	data := make([]dto.ArticuloResponse, 0, len(list))
	for i := range list {
		data = append(data, *mapArticulo(&list[i]))
	}
	return &dto.ArticuloListResponse{
		Data:       data,
		Total:      total,
		Page:       filter.Page,
		Limit:      filter.Limit,
		TotalPages: int(math.Ceil(float64(total) / float64(filter.Limit))),
	}, nil
}

func (s *articuloService) Actualizar(ctx context.Context, id uint, req dto.ActualizarArticuloRequest) (*dto.ArticuloResponse, error) {
	a, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("artículo %d: %w", id, ErrNoEncontrado)
		}
		return nil, err
	}
	nroAnterior := a.NroArticulo
	precioAnterior := a.PrecioReal

	v := validacion{}
	if req.NroArticulo != nil {
		nro := normalizarNro(*req.NroArticulo)
		if nro == "" || len(nro) > maxNroArticulo {
			v.add("nro_articulo", fmt.Sprintf("requerido, hasta %d caracteres", maxNroArticulo))
		}
		a.NroArticulo = nro
	}
	if req.Descripcion != nil {
		desc := capitalizar(*req.Descripcion)
		if desc == "" {
			v.add("descripcion", "requerida")
		}
		a.Descripcion = desc
	}
	if req.PrecioReal != nil {
		if !req.PrecioReal.IsPositive() {
			v.add("precio_real", "debe ser mayor a 0")
		}
		a.PrecioReal = req.PrecioReal.Round(2)
	}
	if err := v.Err(); err != nil {
		return nil, err
	}
	if req.Costo != nil {
		a.Costo = req.Costo
	}
	if req.PrecioPublico != nil {
		a.PrecioPublico = req.PrecioPublico
	}
	if req.RubroID != nil {
		if err := s.validarRubro(ctx, req.RubroID); err != nil {
			return nil, err
		}
		a.RubroID = req.RubroID
		a.Rubro = nil
	}
	if a.NroArticulo != nroAnterior {
		if err := s.nroDisponible(ctx, a.NroArticulo, a.ID); err != nil {
			return nil, err
		}
	}

	cambioPrecio := !a.PrecioReal.Equal(precioAnterior)
	err = runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		if err := s.repo.UpdateTx(tx, a); err != nil {
			return err
		}
		if !cambioPrecio {
			return nil
		}
		return s.historial.CreateTx(tx, &model.HistorialPrecio{
			ArticuloID:    a.ID,
			PrecioAntes:   precioAnterior,
			PrecioDespues: a.PrecioReal,
			Motivo:        model.MotivoManual,
		})
	})
	if err != nil {
		return nil, fmt.Errorf("actualizando artículo %d: %w", id, err)
	}

	invalidarPrecio(ctx, s.rdb, nroAnterior)
	if a.NroArticulo != nroAnterior {
		invalidarPrecio(ctx, s.rdb, a.NroArticulo)
	}
	if cambioPrecio {
		s.metrics.PrecioActualizado(model.MotivoManual)
	}
	return s.ObtenerPorID(ctx, id)
}

func (s *articuloService) Eliminar(ctx context.Context, id uint) error {
	a, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("artículo %d: %w", id, ErrNoEncontrado)
		}
		return err
	}
	enUso, err := s.remitos.ExistsByArticulo(ctx, id)
	if err != nil {
		return err
	}
	if enUso {
		return fmt.Errorf("artículo %s figura en remitos: %w", a.NroArticulo, ErrEnUso)
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("eliminando artículo %d: %w", id, err)
	}
	invalidarPrecio(ctx, s.rdb, a.NroArticulo)
	return nil
}

// ── Importación del maestro ───────────────────────────────────────────────────

func (s *articuloService) ImportarExcel(ctx context.Context, r io.Reader) (*dto.ImportacionResponse, error) {
	filas, err := infra.LeerMaestroArticulos(r)
	if err != nil {
		return nil, &ValidationError{Fields: map[string]string{"archivo": err.Error()}}
	}

	type filaNormalizada struct {
		nro    string
		desc   string
		precio decimal.Decimal
	}

	resp := &dto.ImportacionResponse{Omitidos: []string{}}
	vistos := make(map[string]bool, len(filas))
	normalizadas := make([]filaNormalizada, 0, len(filas))
	nros := make([]string, 0, len(filas))
	for _, f := range filas {
		nro := normalizarNro(f.NroArticulo)
		switch {
		case nro == "":
			continue
		case len(nro) > maxNroArticulo:
			resp.Omitidos = append(resp.Omitidos, fmt.Sprintf("fila %d: código %s excede %d caracteres", f.Fila, nro, maxNroArticulo))
			continue
		case vistos[nro]:
			// first occurrence wins
			continue
		}
		vistos[nro] = true
		precio, err := decimal.NewFromString(f.PrecioReal)
		if err != nil {
			precio = decimal.Zero
		}
		normalizadas = append(normalizadas, filaNormalizada{nro: nro, desc: capitalizar(f.Descripcion), precio: precio.Round(2)})
		nros = append(nros, nro)
	}

	var preciosCambiados []string
	err = runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		existentes, err := s.repo.FindByNrosTx(tx, nros)
		if err != nil {
			return err
		}
		porNro := make(map[string]*model.Articulo, len(existentes))
		for i := range existentes {
			porNro[existentes[i].NroArticulo] = &existentes[i]
		}

		for _, f := range normalizadas {
			a, ok := porNro[f.nro]
			if !ok {
				cero := decimal.Zero
				nuevo := &model.Articulo{
					NroArticulo:   f.nro,
					Descripcion:   f.desc,
					Costo:         &cero,
					PrecioPublico: &cero,
					PrecioReal:    f.precio,
				}
				if err := s.repo.CreateTx(tx, nuevo); err != nil {
					return fmt.Errorf("insertando %s: %w", f.nro, err)
				}
				resp.Insertados++
				continue
			}

			if err := s.repo.UpdateDatosTx(tx, a.ID, f.desc, f.precio); err != nil {
				return fmt.Errorf("actualizando %s: %w", f.nro, err)
			}
			resp.Actualizados++
			if a.PrecioReal.Equal(f.precio) {
				continue
			}
			if err := s.historial.CreateTx(tx, &model.HistorialPrecio{
				ArticuloID:    a.ID,
				PrecioAntes:   a.PrecioReal,
				PrecioDespues: f.precio,
				Motivo:        model.MotivoImportacionExcel,
			}); err != nil {
				return err
			}
			preciosCambiados = append(preciosCambiados, f.nro)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("importando maestro de artículos: %w", err)
	}

	for _, nro := range preciosCambiados {
		invalidarPrecio(ctx, s.rdb, nro)
		s.metrics.PrecioActualizado(model.MotivoImportacionExcel)
	}
	log.Info().
		Int("insertados", resp.Insertados).
		Int("actualizados", resp.Actualizados).
		Int("omitidos", len(resp.Omitidos)).
		Msg("maestro de artículos importado")
	return resp, nil
}

// ── Consulta de precios / historial ───────────────────────────────────────────

func (s *articuloService) ConsultarPrecio(ctx context.Context, nro string) (*dto.ConsultaPrecioResponse, error) {
	nro = normalizarNro(nro)
	if cached, ok := leerPrecioCacheado(ctx, s.rdb, nro); ok {
		return cached, nil
	}
	a, err := s.repo.FindByNro(ctx, nro)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("artículo %s: %w", nro, ErrNoEncontrado)
		}
		return nil, err
	}
	resp := &dto.ConsultaPrecioResponse{
		NroArticulo:   a.NroArticulo,
		Descripcion:   a.Descripcion,
		PrecioReal:    a.PrecioReal,
		PrecioPublico: a.PrecioPublico,
	}
	guardarPrecioCacheado(ctx, s.rdb, resp)
	return resp, nil
}

func (s *articuloService) HistorialPrecios(ctx context.Context, id uint, page, limit int) (*dto.HistorialPrecioListResponse, error) {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("artículo %d: %w", id, ErrNoEncontrado)
		}
		return nil, err
	}
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 200 {
		limit = 50
	}
	rows, total, err := s.historial.ListByArticulo(ctx, id, page, limit)
	if err != nil {
		return nil, err
	}
	data := make([]dto.HistorialPrecioItem, 0, len(rows))
	for _, h := range rows {
		data = append(data, dto.HistorialPrecioItem{
			ID:            h.ID,
			ArticuloID:    h.ArticuloID,
			PrecioAntes:   h.PrecioAntes,
			PrecioDespues: h.PrecioDespues,
			Motivo:        h.Motivo,
			RemitoID:      h.RemitoID,
			CreatedAt:     h.CreatedAt.Format(time.RFC3339),
		})
	}
	return &dto.HistorialPrecioListResponse{Data: data, Total: total, Page: page, Limit: limit}, nil
}
