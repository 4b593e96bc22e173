package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"consigna/internal/dto"
	"consigna/internal/infra"
	"consigna/internal/model"
	"consigna/internal/repository"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	EstadoAbierto = "abierto"
	EstadoCerrado = "cerrado"
)

// RemitoService owns the consignment workflow: a remito is created (or
// amended while open), later closed out with returned quantities, and can be
// annulled at any stage.
type RemitoService interface {
	GuardarEntrega(ctx context.Context, req dto.GuardarRemitoRequest) (*dto.GuardarRemitoResponse, error)
	RegistrarRetiro(ctx context.Context, id uint, req dto.RetiroRequest) (*dto.RetiroResponse, error)
	// ObtenerCompleto reports found == false (and a nil error) for unknown ids.
	ObtenerCompleto(ctx context.Context, id uint) (*dto.RemitoCompletoResponse, bool, error)
	Anular(ctx context.Context, id uint) (bool, error)
	Listar(ctx context.Context, filter dto.RemitoFilter) (*dto.RemitoListResponse, error)
}

type remitoService struct {
	repo      repository.RemitoRepository
	articulos repository.ArticuloRepository
	clientes  repository.ClienteRepository
	historial repository.HistorialPrecioRepository
	rdb       *redis.Client
	metrics   *infra.Metrics
	now       func() time.Time
}

func NewRemitoService(
	repo repository.RemitoRepository,
	articulos repository.ArticuloRepository,
	clientes repository.ClienteRepository,
	historial repository.HistorialPrecioRepository,
	rdb *redis.Client,
	metrics *infra.Metrics,
) RemitoService {
	return &remitoService{
		repo:      repo,
		articulos: articulos,
		clientes:  clientes,
		historial: historial,
		rdb:       rdb,
		metrics:   metrics,
		now:       time.Now,
	}
}

// runTx executes fn inside a GORM transaction when db is available,
// or calls fn(nil) directly when db is nil (unit test mode).
func runTx(ctx context.Context, db *gorm.DB, fn func(tx *gorm.DB) error) error {
	if db == nil {
		return fn(nil)
	}
	return db.WithContext(ctx).Transaction(fn)
}

// ── GuardarEntrega ────────────────────────────────────────────────────────────
//   1. Validate the line set and resolve client + articles (no writes yet)
//   2. BEGIN TX: amend the open remito for (cliente, fecha) or create one
//   3. Replace all lines with the submitted ones
//   4. Drift catalog precio_real toward the line price, recording history
//   5. COMMIT, then invalidate cached prices

func (s *remitoService) GuardarEntrega(ctx context.Context, req dto.GuardarRemitoRequest) (*dto.GuardarRemitoResponse, error) {
	if err := validarEntrega(req); err != nil {
		return nil, err
	}

	if _, err := s.clientes.FindByID(ctx, req.ClienteID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("cliente %d: %w", req.ClienteID, ErrReferencia)
		}
		return nil, fmt.Errorf("buscando cliente: %w", err)
	}

	articulos := make(map[uint]*model.Articulo, len(req.Items))
	for i, it := range req.Items {
		a, err := s.articulos.FindByID(ctx, it.ArticuloID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, fmt.Errorf("items[%d]: artículo %d: %w", i, it.ArticuloID, ErrReferencia)
			}
			return nil, fmt.Errorf("buscando artículo %d: %w", it.ArticuloID, err)
		}
		articulos[it.ArticuloID] = a
	}

	fecha := dto.NuevaFecha(req.FechaEntrega.Time).Time
	porcDto := req.PorcDto.Round(2)
	now := s.now()

	resp := &dto.GuardarRemitoResponse{}
	var preciosCambiados []string

	txErr := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		rem, err := s.repo.FindAbiertoTx(tx, req.ClienteID, fecha)
		switch {
		case err == nil:
			rem.PorcDto = porcDto
			rem.Observaciones = req.Observaciones
			rem.FechaMod = now
			if err := s.repo.UpdateCabeceraTx(tx, rem); err != nil {
				return fmt.Errorf("actualizando cabecera: %w", err)
			}
			if err := s.repo.DeleteItemsTx(tx, rem.ID); err != nil {
				return fmt.Errorf("borrando items: %w", err)
			}
			resp.Modificado = true
		case errors.Is(err, gorm.ErrRecordNotFound):
			rem = &model.Remito{
				ClienteID:     req.ClienteID,
				PorcDto:       porcDto,
				FechaEntrega:  fecha,
				Observaciones: req.Observaciones,
				FechaAlta:     now,
				FechaMod:      now,
			}
			if err := s.repo.CreateTx(tx, rem); err != nil {
				return fmt.Errorf("creando cabecera: %w", err)
			}
		default:
			return fmt.Errorf("buscando remito abierto: %w", err)
		}
		resp.RemitoID = rem.ID

		items := make([]model.RemitoItem, 0, len(req.Items))
		for _, it := range req.Items {
			items = append(items, model.RemitoItem{
				RemitoID:       rem.ID,
				ArticuloID:     it.ArticuloID,
				Entregados:     it.Entregados,
				Observaciones:  it.Observaciones,
				PrecioRealItem: it.PrecioReal.Round(2),
			})
		}
		if err := s.repo.CreateItemsTx(tx, items); err != nil {
			return fmt.Errorf("insertando items: %w", err)
		}

		// Catalog price follows the most recently invoiced price.
		remitoID := rem.ID
		for _, it := range req.Items {
			a := articulos[it.ArticuloID]
			precio := it.PrecioReal.Round(2)
			if a.PrecioReal.Equal(precio) {
				continue
			}
			if err := s.articulos.UpdatePrecioRealTx(tx, a.ID, precio); err != nil {
				return fmt.Errorf("actualizando precio de %s: %w", a.NroArticulo, err)
			}
			h := &model.HistorialPrecio{
				ArticuloID:    a.ID,
				PrecioAntes:   a.PrecioReal,
				PrecioDespues: precio,
				Motivo:        model.MotivoRemito,
				RemitoID:      &remitoID,
			}
			if err := s.historial.CreateTx(tx, h); err != nil {
				return fmt.Errorf("registrando historial de %s: %w", a.NroArticulo, err)
			}
			preciosCambiados = append(preciosCambiados, a.NroArticulo)
		}
		return nil
	})
	if txErr != nil {
		return nil, fmt.Errorf("guardando remito: %w", txErr)
	}

	resp.PreciosActualizados = len(preciosCambiados) > 0
	for _, nro := range preciosCambiados {
		invalidarPrecio(ctx, s.rdb, nro)
		s.metrics.PrecioActualizado(model.MotivoRemito)
	}
	if resp.Modificado {
		s.metrics.Remito("modificado")
	} else {
		s.metrics.Remito("creado")
	}

	log.Info().
		Uint("remito_id", resp.RemitoID).
		Uint("cliente_id", req.ClienteID).
		Str("fecha_entrega", dto.NuevaFecha(fecha).String()).
		Bool("modificado", resp.Modificado).
		Int("items", len(req.Items)).
		Msg("remito guardado")

	return resp, nil
}

func validarEntrega(req dto.GuardarRemitoRequest) error {
	v := validacion{}
	if req.ClienteID == 0 {
		v.add("cliente_id", "requerido")
	}
	if req.FechaEntrega.IsZero() {
		v.add("fecha_entrega", "requerida")
	}
	if req.PorcDto.IsNegative() || req.PorcDto.GreaterThan(decimal.NewFromInt(100)) {
		v.add("porc_dto", "debe estar entre 0 y 100")
	}
	if len(req.Items) == 0 {
		v.add("items", "el remito debe tener al menos un artículo")
	}
	vistos := make(map[uint]int, len(req.Items))
	for i, it := range req.Items {
		campo := fmt.Sprintf("items[%d]", i)
		if it.ArticuloID == 0 {
			v.add(campo+".articulo_id", "requerido")
		} else if j, ok := vistos[it.ArticuloID]; ok {
			v.add(campo+".articulo_id", fmt.Sprintf("artículo repetido (ver items[%d])", j))
		} else {
			vistos[it.ArticuloID] = i
		}
		if it.Entregados < 1 {
			v.add(campo+".entregados", "debe ser mayor o igual a 1")
		}
		if !it.PrecioReal.IsPositive() {
			v.add(campo+".precio_real", "debe ser mayor a 0")
		}
	}
	return v.Err()
}

// ── RegistrarRetiro ───────────────────────────────────────────────────────────
// Unknown codes and codes without a line are skipped and reported; a devueltos
// value outside [0, entregados] rejects the whole closeout before any write.
// There is no "already closed" guard: a second closeout overwrites the first.

func (s *remitoService) RegistrarRetiro(ctx context.Context, id uint, req dto.RetiroRequest) (*dto.RetiroResponse, error) {
	if req.FechaRetiro.IsZero() {
		return nil, &ValidationError{Fields: map[string]string{"fecha_retiro": "requerida"}}
	}

	// Codes resolve against the catalog before the transaction; nil means unknown.
	type resuelto struct {
		nro string
		art *model.Articulo
		req dto.ItemRetiroRequest
	}
	resueltos := make([]resuelto, 0, len(req.Items))
	for _, it := range req.Items {
		nro := strings.ToUpper(strings.TrimSpace(it.NroArticulo))
		art, err := s.articulos.FindByNro(ctx, nro)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("resolviendo artículo %s: %w", nro, err)
		}
		resueltos = append(resueltos, resuelto{nro: nro, art: art, req: it})
	}

	var (
		omitidos = make([]string, 0)
		cambios  []model.RemitoItem
	)
	// The lines are read inside the transaction so a concurrent amend, which
	// re-inserts them under new ids, cannot slip between read and write.
	txErr := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		rem, err := s.repo.FindByIDTx(tx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("remito %d: %w", id, ErrNoEncontrado)
			}
			return fmt.Errorf("buscando remito %d: %w", id, err)
		}

		lineas := make(map[uint]*model.RemitoItem, len(rem.Items))
		for i := range rem.Items {
			lineas[rem.Items[i].ArticuloID] = &rem.Items[i]
		}

		cambios = make([]model.RemitoItem, 0, len(resueltos))
		v := validacion{}
		for _, r := range resueltos {
			if r.art == nil {
				log.Warn().Uint("remito_id", id).Str("nro_articulo", r.nro).Msg("retiro: artículo inexistente, se omite")
				omitidos = append(omitidos, r.nro)
				continue
			}
			linea, ok := lineas[r.art.ID]
			if !ok {
				log.Warn().Uint("remito_id", id).Str("nro_articulo", r.nro).Msg("retiro: el artículo no figura en el remito, se omite")
				omitidos = append(omitidos, r.nro)
				continue
			}
			if r.req.Devueltos < 0 {
				v.add(r.nro, "los devueltos no pueden ser negativos")
				continue
			}
			if r.req.Devueltos > linea.Entregados {
				v.add(r.nro, fmt.Sprintf("devueltos (%d) supera entregados (%d)", r.req.Devueltos, linea.Entregados))
				continue
			}
			upd := *linea
			upd.Articulo = nil
			upd.Devueltos = r.req.Devueltos
			upd.Observaciones = r.req.Observaciones
			cambios = append(cambios, upd)
		}
		if err := v.Err(); err != nil {
			return err
		}

		fechaRetiro := dto.NuevaFecha(req.FechaRetiro.Time).Time
		rem.FechaRetiro = &fechaRetiro
		rem.Observaciones = req.Observaciones
		rem.FechaMod = s.now()

		if err := s.repo.UpdateCabeceraTx(tx, rem); err != nil {
			return fmt.Errorf("actualizando cabecera: %w", err)
		}
		for i := range cambios {
			if err := s.repo.UpdateItemTx(tx, &cambios[i]); err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return fmt.Errorf("línea %d modificada por otra operación: %w", cambios[i].ID, ErrReferencia)
				}
				return fmt.Errorf("actualizando item %d: %w", cambios[i].ID, err)
			}
		}
		return nil
	})
	if txErr != nil {
		var ve *ValidationError
		if errors.As(txErr, &ve) || errors.Is(txErr, ErrNoEncontrado) {
			return nil, txErr
		}
		return nil, fmt.Errorf("registrando retiro: %w", txErr)
	}

	s.metrics.Remito("cerrado")
	log.Info().
		Uint("remito_id", id).
		Int("items_actualizados", len(cambios)).
		Strs("omitidos", omitidos).
		Msg("retiro registrado")

	return &dto.RetiroResponse{RemitoID: id, ItemsActualizados: len(cambios), Omitidos: omitidos}, nil
}

// ── ObtenerCompleto ───────────────────────────────────────────────────────────

func (s *remitoService) ObtenerCompleto(ctx context.Context, id uint) (*dto.RemitoCompletoResponse, bool, error) {
	rem, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("buscando remito %d: %w", id, err)
	}
	return mapRemitoCompleto(rem), true, nil
}

func estadoRemito(r *model.Remito) string {
	if r.Abierto() {
		return EstadoAbierto
	}
	return EstadoCerrado
}

func mapRemitoCompleto(r *model.Remito) *dto.RemitoCompletoResponse {
	cab := dto.RemitoCabecera{
		ID:            r.ID,
		ClienteID:     r.ClienteID,
		PorcDto:       r.PorcDto,
		FechaEntrega:  dto.NuevaFecha(r.FechaEntrega),
		FechaRetiro:   dto.FechaPtr(r.FechaRetiro),
		Observaciones: r.Observaciones,
		Estado:        estadoRemito(r),
	}
	if c := r.Cliente; c != nil {
		cab.RazonSocial = c.RazonSocial
		cab.Boca = c.Boca
		cab.Direccion = c.Direccion
		cab.Localidad = c.Localidad
		cab.Telefono = c.Telefono
		cab.Email = c.Email
	}

	cerrado := !r.Abierto()
	items := make([]dto.RemitoItemResponse, 0, len(r.Items))
	var tot dto.RemitoTotales
	vendidosTotal := 0
	importe := decimal.Zero
	factor := decimal.NewFromInt(1).Sub(r.PorcDto.Div(decimal.NewFromInt(100)))

	for _, it := range r.Items {
		ir := dto.RemitoItemResponse{
			ArticuloID:    it.ArticuloID,
			PrecioReal:    it.PrecioRealItem,
			Entregados:    it.Entregados,
			Devueltos:     it.Devueltos,
			Observaciones: it.Observaciones,
		}
		if it.Articulo != nil {
			ir.NroArticulo = it.Articulo.NroArticulo
			ir.Descripcion = it.Articulo.Descripcion
		}
		tot.Entregados += it.Entregados
		tot.Devueltos += it.Devueltos
		if cerrado {
			vendidos := it.Entregados - it.Devueltos
			ir.Vendidos = &vendidos
			vendidosTotal += vendidos
			importe = importe.Add(it.PrecioRealItem.Mul(decimal.NewFromInt(int64(vendidos))))
		}
		items = append(items, ir)
	}
	if cerrado {
		tot.Vendidos = &vendidosTotal
		neto := importe.Mul(factor).Round(2)
		tot.ImporteVendido = &neto
	}

	return &dto.RemitoCompletoResponse{Cabecera: cab, Items: items, Totales: tot}
}

// ── Anular ────────────────────────────────────────────────────────────────────

func (s *remitoService) Anular(ctx context.Context, id uint) (bool, error) {
	var borrados int64
	err := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		n, err := s.repo.DeleteTx(tx, id)
		borrados = n
		return err
	})
	if err != nil {
		return false, fmt.Errorf("anulando remito %d: %w", id, err)
	}
	if borrados == 0 {
		return false, nil
	}
	s.metrics.Remito("anulado")
	log.Info().Uint("remito_id", id).Msg("remito anulado")
	return true, nil
}

// ── Listar ────────────────────────────────────────────────────────────────────

func (s *remitoService) Listar(ctx context.Context, filter dto.RemitoFilter) (*dto.RemitoListResponse, error) {
	v := validacion{}
	if filter.Desde != "" {
		if _, err := dto.ParseFecha(filter.Desde); err != nil {
			v.add("desde", "formato esperado YYYY-MM-DD")
		}
	}
	if filter.Hasta != "" {
		if _, err := dto.ParseFecha(filter.Hasta); err != nil {
			v.add("hasta", "formato esperado YYYY-MM-DD")
		}
	}
	if err := v.Err(); err != nil {
		return nil, err
	}
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 || filter.Limit > 200 {
		filter.Limit = 50
	}

	remitos, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("listando remitos: %w", err)
	}

	data := make([]dto.RemitoListItem, 0, len(remitos))
	for i := range remitos {
		r := &remitos[i]
		item := dto.RemitoListItem{
			ID:           r.ID,
			ClienteID:    r.ClienteID,
			FechaEntrega: dto.NuevaFecha(r.FechaEntrega),
			FechaRetiro:  dto.FechaPtr(r.FechaRetiro),
			Estado:       estadoRemito(r),
			CantItems:    len(r.Items),
		}
		if r.Cliente != nil {
			item.RazonSocial = r.Cliente.RazonSocial
			item.Boca = r.Cliente.Boca
		}
		for _, it := range r.Items {
			item.TotalEntregados += it.Entregados
		}
		data = append(data, item)
	}

	return &dto.RemitoListResponse{Data: data, Total: total, Page: filter.Page, Limit: filter.Limit}, nil
}
