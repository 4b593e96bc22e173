package router_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"consigna/internal/apierror"
	"consigna/internal/config"
	"consigna/internal/dto"
	"consigna/internal/infra"
	"consigna/internal/router"
	"consigna/internal/worker"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

// ── Helpers ──────────────────────────────────────────────────────────────────

type testEnv struct {
	engine *gin.Engine
	db     *gorm.DB
	mr     *miniredis.Miniredis
	rdb    *redis.Client
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := infra.NewSQLite(fmt.Sprintf("file:%s?mode=memory&cache=shared", name))
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	cfg := &config.Config{
		Env:                "test",
		RateLimit:          "10000-M",
		RemitoTemplatePath: t.TempDir() + "/sin-plantilla.xlsx",
	}
	r, err := router.New(cfg, db, rdb, infra.NewMetrics())
	require.NoError(t, err)
	return &testEnv{engine: r, db: db, mr: mr, rdb: rdb}
}

func (e *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	e.engine.ServeHTTP(w, req)
	return w
}

func (e *testEnv) upload(t *testing.T, path, field, fileName string, content []byte) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile(field, fileName)
	require.NoError(t, err)
	_, err = fw.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	e.engine.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

// seed creates one client and one article through the API.
func (e *testEnv) seed(t *testing.T) (clienteID, articuloID uint) {
	t.Helper()
	w := e.do(t, http.MethodPost, "/v1/clientes", map[string]any{
		"razon_social": "Kiosco El Sol",
		"boca":         12,
		"porc_dto":     10,
		"email":        "kiosco@example.com",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	clienteID = decode[struct{ ID uint }](t, w).ID

	w = e.do(t, http.MethodPost, "/v1/articulos", map[string]any{
		"nro_articulo": "ART-001",
		"descripcion":  "Gorra roja",
		"precio_real":  1000,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	articuloID = decode[struct{ ID uint }](t, w).ID
	return clienteID, articuloID
}

// ── Tests ────────────────────────────────────────────────────────────────────

func TestHealth(t *testing.T) {
	env := setupTestEnv(t)
	w := env.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	body := decode[map[string]any](t, w)
	assert.Equal(t, "connected", body["db"])
	assert.Equal(t, "connected", body["redis"])
}

func TestRemitos_CicloCompleto(t *testing.T) {
	env := setupTestEnv(t)
	clienteID, articuloID := env.seed(t)

	// 1. Entrega
	w := env.do(t, http.MethodPost, "/v1/remitos", map[string]any{
		"cliente_id":    clienteID,
		"fecha_entrega": "2024-03-01",
		"porc_dto":      10,
		"items":         []map[string]any{{"articulo_id": articuloID, "entregados": 5, "precio_real": 1000}},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	remitoID := decode[struct {
		RemitoID uint `json:"remito_id"`
	}](t, w).RemitoID

	// 2. Retiro
	w = env.do(t, http.MethodPut, fmt.Sprintf("/v1/remitos/%d/retiro", remitoID), map[string]any{
		"fecha_retiro": "2024-03-15",
		"items":        []map[string]any{{"nro_articulo": "ART-001", "devueltos": 2}},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	// 3. Consulta
	w = env.do(t, http.MethodGet, fmt.Sprintf("/v1/remitos/%d", remitoID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	full := decode[struct {
		Cabecera struct {
			Estado      string `json:"estado"`
			FechaRetiro string `json:"fecha_retiro"`
		} `json:"cabecera"`
		Totales struct {
			Vendidos       int    `json:"vendidos"`
			ImporteVendido string `json:"importe_vendido"`
		} `json:"totales"`
	}](t, w)
	assert.Equal(t, "cerrado", full.Cabecera.Estado)
	assert.Equal(t, "2024-03-15", full.Cabecera.FechaRetiro)
	assert.Equal(t, 3, full.Totales.Vendidos)
	assert.Equal(t, "2700", full.Totales.ImporteVendido)

	// 4. Excel
	w = env.do(t, http.MethodGet, fmt.Sprintf("/v1/remitos/%d/excel", remitoID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), fmt.Sprintf("Remito_%d_Ventas.xlsx", remitoID))

	// 5. Envío
	w = env.do(t, http.MethodPost, fmt.Sprintf("/v1/remitos/%d/enviar", remitoID), nil)
	require.Equal(t, http.StatusAccepted, w.Code, w.Body.String())
	queued, err := env.mr.List("jobs:email")
	require.NoError(t, err)
	assert.Len(t, queued, 1)

	// 6. Anulación
	w = env.do(t, http.MethodDelete, fmt.Sprintf("/v1/remitos/%d", remitoID), nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = env.do(t, http.MethodDelete, fmt.Sprintf("/v1/remitos/%d?confirmar=true", remitoID), nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = env.do(t, http.MethodDelete, fmt.Sprintf("/v1/remitos/%d?confirmar=true", remitoID), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRemitos_ErroresHTTP(t *testing.T) {
	env := setupTestEnv(t)
	_, articuloID := env.seed(t)

	tests := []struct {
		name   string
		method string
		path   string
		body   any
		status int
		codigo string
	}{
		{"sin líneas", http.MethodPost, "/v1/remitos", map[string]any{"cliente_id": 1, "fecha_entrega": "2024-03-01", "items": []any{}}, http.StatusUnprocessableEntity, apierror.CodigoValidacion},
		{"sin fecha", http.MethodPost, "/v1/remitos", map[string]any{"cliente_id": 1, "items": []map[string]any{{"articulo_id": articuloID, "entregados": 1, "precio_real": 1}}}, http.StatusUnprocessableEntity, apierror.CodigoValidacion},
		{"cliente inexistente", http.MethodPost, "/v1/remitos", map[string]any{"cliente_id": 99, "fecha_entrega": "2024-03-01", "items": []map[string]any{{"articulo_id": articuloID, "entregados": 1, "precio_real": 1}}}, http.StatusConflict, apierror.CodigoConflicto},
		{"json roto", http.MethodPost, "/v1/remitos", "no-es-un-objeto", http.StatusBadRequest, apierror.CodigoSolicitud},
		{"id inválido", http.MethodGet, "/v1/remitos/abc", nil, http.StatusBadRequest, apierror.CodigoSolicitud},
		{"inexistente", http.MethodGet, "/v1/remitos/999", nil, http.StatusNotFound, apierror.CodigoNoEncontrado},
		{"estado inválido", http.MethodGet, "/v1/remitos?estado=raro", nil, http.StatusUnprocessableEntity, apierror.CodigoValidacion},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			w := env.do(t, tc.method, tc.path, tc.body)
			assert.Equal(t, tc.status, w.Code, w.Body.String())
			body := decode[apierror.APIError](t, w)
			assert.Equal(t, tc.codigo, body.Codigo)
			assert.NotEmpty(t, body.Detail)
		})
	}
}

func TestRemitos_ValidacionPorCampo(t *testing.T) {
	env := setupTestEnv(t)
	env.seed(t)

	w := env.do(t, http.MethodPost, "/v1/remitos", map[string]any{
		"cliente_id":    1,
		"fecha_entrega": "2024-03-01",
		"porc_dto":      150,
		"items":         []map[string]any{{"articulo_id": 1, "entregados": 0, "precio_real": 10}},
	})
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	body := decode[struct {
		Fields map[string]string `json:"fields"`
	}](t, w)
	assert.Contains(t, body.Fields, "porc_dto")
	assert.Contains(t, body.Fields, "items[0].entregados")
}

func TestPrecio_ConsultaPublicaCacheada(t *testing.T) {
	env := setupTestEnv(t)
	env.seed(t)

	w := env.do(t, http.MethodGet, "/v1/precio/art-001", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, env.mr.Exists("precio:ART-001"))

	w = env.do(t, http.MethodGet, "/v1/precio/NOPE", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestArticulos_ImportarYEtiquetas(t *testing.T) {
	env := setupTestEnv(t)

	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetCellValue(sheet, "A9", "GOR-001"))
	require.NoError(t, f.SetCellValue(sheet, "B9", "gorra"))
	require.NoError(t, f.SetCellValue(sheet, "C9", 1500))
	xlsx, err := f.WriteToBuffer()
	require.NoError(t, err)
	require.NoError(t, f.Close())

	w := env.upload(t, "/v1/articulos/importar", "archivo", "maestro.xlsx", xlsx.Bytes())
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, 1, decode[struct {
		Insertados int `json:"insertados"`
	}](t, w).Insertados)

	w = env.do(t, http.MethodGet, "/v1/articulos?nro=GOR", nil)
	require.Equal(t, http.StatusOK, w.Code)
	list := decode[struct {
		Data []struct{ ID uint } `json:"data"`
	}](t, w)
	require.Len(t, list.Data, 1)

	w = env.do(t, http.MethodGet, fmt.Sprintf("/v1/articulos/%d/etiquetas?cantidad=61", list.Data[0].ID), nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.Equal(t, "2", w.Header().Get("X-Paginas"))

	w = env.do(t, http.MethodGet, fmt.Sprintf("/v1/articulos/%d/etiquetas?cantidad=5000", list.Data[0].ID), nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = env.upload(t, "/v1/articulos/importar", "otro", "x.xlsx", []byte("x"))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestClientes_Conflictos(t *testing.T) {
	env := setupTestEnv(t)
	env.seed(t)

	w := env.do(t, http.MethodPost, "/v1/clientes", map[string]any{"razon_social": "Otro", "boca": 12})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = env.do(t, http.MethodPost, "/v1/clientes", map[string]any{"razon_social": "Otro", "email": "no-es-mail"})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = env.do(t, http.MethodPost, "/v1/vendedores", map[string]any{"nombre": "Ana"})
	require.Equal(t, http.StatusCreated, w.Code)
	w = env.do(t, http.MethodGet, "/v1/vendedores", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodPost, "/v1/rubros", map[string]any{"nombre_rubro": "gorras"})
	require.Equal(t, http.StatusCreated, w.Code)
	w = env.do(t, http.MethodPost, "/v1/rubros", map[string]any{"nombre_rubro": "GORRAS"})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestBackup_EstadoYDescarga(t *testing.T) {
	env := setupTestEnv(t)
	env.seed(t)

	w := env.do(t, http.MethodGet, "/v1/backup/estado", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, int64(2), decode[struct {
		Total int64 `json:"total"`
	}](t, w).Total)

	w = env.do(t, http.MethodGet, "/v1/backup", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/zip", w.Header().Get("Content-Type"))
	zipBytes := w.Body.Bytes()

	w = env.upload(t, "/v1/backup/restaurar", "archivo", "backup.zip", zipBytes)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = env.upload(t, "/v1/backup/restaurar", "archivo", "backup.zip", []byte("roto"))
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	env := setupTestEnv(t)
	env.do(t, http.MethodGet, "/health", nil)

	w := env.do(t, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `consigna_http_requests_total{code="200",route="/health"}`)
}

func TestJobs_DLQListaYReintenta(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	payload, err := json.Marshal(worker.EmailJobPayload{RemitoID: 12, ToEmail: "kiosco@example.com"})
	require.NoError(t, err)
	worker.SendToDLQ(ctx, env.rdb, worker.QueueEmail, worker.Job{ID: "job-1", Type: worker.JobTypeEmailRemito, Payload: payload, Attempts: 3}, "smtp caído")

	w := env.do(t, http.MethodGet, "/v1/jobs/dlq", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	lista := decode[dto.DLQResponse](t, w)
	assert.Equal(t, int64(1), lista.Total)
	require.Len(t, lista.Entradas, 1)
	assert.Equal(t, "job-1", lista.Entradas[0].JobID)
	assert.Equal(t, uint(12), lista.Entradas[0].RemitoID)
	assert.Equal(t, "kiosco@example.com", lista.Entradas[0].Email)
	assert.Equal(t, 3, lista.Entradas[0].Intentos)

	w = env.do(t, http.MethodPost, "/v1/jobs/dlq/reintentar", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, 1, decode[dto.DLQReintentarResponse](t, w).Reencolados)

	queued, err := env.mr.List(worker.QueueEmail)
	require.NoError(t, err)
	require.Len(t, queued, 1)
	var job worker.Job
	require.NoError(t, json.Unmarshal([]byte(queued[0]), &job))
	assert.Equal(t, "job-1", job.ID)
	assert.Zero(t, job.Attempts)

	w = env.do(t, http.MethodGet, "/v1/jobs/dlq?limit=0", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}
