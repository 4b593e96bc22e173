package handler

import (
	"net/http"

	"consigna/internal/apierror"
	"consigna/internal/dto"
	"consigna/internal/service"

	"github.com/gin-gonic/gin"
)

type RemitosHandler struct {
	svc  service.RemitoService
	docs service.DocumentoService
}

func NewRemitosHandler(svc service.RemitoService, docs service.DocumentoService) *RemitosHandler {
	return &RemitosHandler{svc: svc, docs: docs}
}

// Guardar godoc
// @Summary Registra la entrega de un remito (crea o modifica el abierto del día)
// @Tags remitos
// @Accept json
// @Produce json
// @Param body body dto.GuardarRemitoRequest true "Cabecera y líneas entregadas"
// @Success 201 {object} dto.GuardarRemitoResponse
// @Failure 409 {object} apierror.APIError
// @Failure 422 {object} apierror.ValidationError
// @Router /v1/remitos [post]
func (h *RemitosHandler) Guardar(c *gin.Context) {
	var req dto.GuardarRemitoRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.GuardarEntrega(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// Listar godoc
// @Summary Lista remitos por cliente, estado y rango de fechas de entrega
// @Tags remitos
// @Produce json
// @Param cliente_id query int false "Cliente"
// @Param estado query string false "abierto | cerrado | all"
// @Param desde query string false "YYYY-MM-DD"
// @Param hasta query string false "YYYY-MM-DD"
// @Success 200 {object} dto.RemitoListResponse
// @Router /v1/remitos [get]
func (h *RemitosHandler) Listar(c *gin.Context) {
	var filter dto.RemitoFilter
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

// Obtener godoc
// @Summary Remito completo con líneas y totales
// @Tags remitos
// @Produce json
// @Param id path int true "Remito"
// @Success 200 {object} dto.RemitoCompletoResponse
// @Failure 404 {object} apierror.APIError
// @Router /v1/remitos/{id} [get]
func (h *RemitosHandler) Obtener(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	resp, found, err := h.svc.ObtenerCompleto(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	if !found {
		c.JSON(http.StatusNotFound, apierror.NoEncontrado("Remito no encontrado"))
		return
	}
	c.JSON(http.StatusOK, resp)
}

// RegistrarRetiro godoc
// @Summary Cierra el remito con las cantidades devueltas
// @Tags remitos
// @Accept json
// @Produce json
// @Param id path int true "Remito"
// @Param body body dto.RetiroRequest true "Devoluciones por código de artículo"
// @Success 200 {object} dto.RetiroResponse
// @Failure 404 {object} apierror.APIError
// @Failure 422 {object} apierror.ValidationError
// @Router /v1/remitos/{id}/retiro [put]
func (h *RemitosHandler) RegistrarRetiro(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req dto.RetiroRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.RegistrarRetiro(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Anular DELETE /v1/remitos/:id?confirmar=true
func (h *RemitosHandler) Anular(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if c.Query("confirmar") != "true" {
		c.JSON(http.StatusBadRequest, apierror.Solicitud("Se requiere confirmar=true para anular el remito"))
		return
	}
	deleted, err := h.svc.Anular(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	if !deleted {
		c.JSON(http.StatusNotFound, apierror.NoEncontrado("Remito no encontrado"))
		return
	}
	c.Status(http.StatusNoContent)
}

// Excel GET /v1/remitos/:id/excel
func (h *RemitosHandler) Excel(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	content, fileName, err := h.docs.RemitoExcel(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	adjuntar(c, mimeXLSX, fileName, content)
}

// Enviar POST /v1/remitos/:id/enviar
func (h *RemitosHandler) Enviar(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	to, err := h.docs.EnviarRemito(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"remito_id": id, "email": to, "estado": "encolado"})
}
