package handler

import (
	"net/http"

	"consigna/internal/service"

	"github.com/gin-gonic/gin"
)

// ConsultaPreciosHandler serves the public price check endpoint.
// It has no side effects beyond warming the price cache.
type ConsultaPreciosHandler struct {
	svc service.ArticuloService
}

func NewConsultaPreciosHandler(svc service.ArticuloService) *ConsultaPreciosHandler {
	return &ConsultaPreciosHandler{svc: svc}
}

// GetPrecio godoc
// @Summary Consulta de precio por número de artículo
// @Tags precio
// @Produce json
// @Param nro path string true "Número de artículo"
// @Success 200 {object} dto.ConsultaPrecioResponse
// @Failure 404 {object} apierror.APIError
// @Router /v1/precio/{nro} [get]
func (h *ConsultaPreciosHandler) GetPrecio(c *gin.Context) {
	resp, err := h.svc.ConsultarPrecio(c.Request.Context(), c.Param("nro"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
