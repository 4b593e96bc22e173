package handler

import (
	"net/http"
	"strconv"

	"consigna/internal/apierror"
	"consigna/internal/dto"
	"consigna/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// maxImportBytes caps the uploaded article master workbook.
const maxImportBytes = 20 << 20

type ArticulosHandler struct {
	svc  service.ArticuloService
	docs service.DocumentoService
}

func NewArticulosHandler(svc service.ArticuloService, docs service.DocumentoService) *ArticulosHandler {
	return &ArticulosHandler{svc: svc, docs: docs}
}

func (h *ArticulosHandler) Crear(c *gin.Context) {
	var req dto.CrearArticuloRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Crear(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *ArticulosHandler) Listar(c *gin.Context) {
	var filter dto.ArticuloFilter
	if !bindQuery(c, &filter) {
		return
	}
	resp, err := h.svc.Listar(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *ArticulosHandler) ObtenerPorID(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.ObtenerPorID(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *ArticulosHandler) Actualizar(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req dto.ActualizarArticuloRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Actualizar(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *ArticulosHandler) Eliminar(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.Eliminar(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// HistorialPrecios GET /v1/articulos/:id/historial-precios?page=&limit=
func (h *ArticulosHandler) HistorialPrecios(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	resp, err := h.svc.HistorialPrecios(c.Request.Context(), id, page, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Etiquetas GET /v1/articulos/:id/etiquetas?cantidad=&precio=
func (h *ArticulosHandler) Etiquetas(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var q dto.EtiquetasQuery
	if !bindQuery(c, &q) {
		return
	}
	var precio *decimal.Decimal
	if q.Precio != "" {
		p, err := decimal.NewFromString(q.Precio)
		if err != nil {
			c.JSON(http.StatusUnprocessableEntity, apierror.NewValidation(map[string]string{"precio": "numeric"}))
			return
		}
		precio = &p
	}
	hoja, fileName, err := h.docs.Etiquetas(c.Request.Context(), id, precio, q.Cantidad)
	if err != nil {
		respondError(c, err)
		return
	}
	c.Header("X-Paginas", strconv.Itoa(hoja.Paginas))
	adjuntar(c, mimePDF, fileName, hoja.PDF)
}

// Importar POST /v1/articulos/importar (multipart "archivo")
func (h *ArticulosHandler) Importar(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxImportBytes)
	fh, err := c.FormFile("archivo")
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.Solicitud("Se requiere el archivo Excel en el campo 'archivo'"))
		return
	}
	f, err := fh.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.Solicitud("No se pudo leer el archivo"))
		return
	}
	defer f.Close()

	resp, err := h.svc.ImportarExcel(c.Request.Context(), f)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
