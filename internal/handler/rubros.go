package handler

import (
	"net/http"

	"consigna/internal/dto"
	"consigna/internal/service"

	"github.com/gin-gonic/gin"
)

type RubrosHandler struct{ svc service.RubroService }

func NewRubrosHandler(svc service.RubroService) *RubrosHandler {
	return &RubrosHandler{svc: svc}
}

// Crear POST /v1/rubros
func (h *RubrosHandler) Crear(c *gin.Context) {
	var req dto.CrearRubroRequest
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

// Listar GET /v1/rubros
func (h *RubrosHandler) Listar(c *gin.Context) {
	resp, err := h.svc.Listar(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Actualizar PUT /v1/rubros/:id
func (h *RubrosHandler) Actualizar(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req dto.ActualizarRubroRequest
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

// Eliminar DELETE /v1/rubros/:id
func (h *RubrosHandler) Eliminar(c *gin.Context) {
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
