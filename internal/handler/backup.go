package handler

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"consigna/internal/apierror"
	"consigna/internal/service"

	"github.com/gin-gonic/gin"
)

const maxBackupBytes = 512 << 20

type BackupHandler struct{ svc service.BackupService }

func NewBackupHandler(svc service.BackupService) *BackupHandler {
	return &BackupHandler{svc: svc}
}

// Estado GET /v1/backup/estado
func (h *BackupHandler) Estado(c *gin.Context) {
	resp, err := h.svc.Estado(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Exportar GET /v1/backup
func (h *BackupHandler) Exportar(c *gin.Context) {
	var buf bytes.Buffer
	if err := h.svc.Exportar(c.Request.Context(), &buf); err != nil {
		respondError(c, err)
		return
	}
	name := fmt.Sprintf("backup_consigna_%s.zip", time.Now().Format("20060102_150405"))
	adjuntar(c, mimeZIP, name, buf.Bytes())
}

// Restaurar POST /v1/backup/restaurar (multipart "archivo")
func (h *BackupHandler) Restaurar(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBackupBytes)
	fh, err := c.FormFile("archivo")
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.Solicitud("Se requiere el backup .zip en el campo 'archivo'"))
		return
	}
	f, err := fh.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.Solicitud("No se pudo leer el archivo"))
		return
	}
	defer f.Close()

	resp, err := h.svc.Restaurar(c.Request.Context(), f, fh.Size)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
