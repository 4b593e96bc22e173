package handler

import (
	"encoding/json"
	"net/http"

	"consigna/internal/dto"
	"consigna/internal/worker"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// JobsHandler exposes the e-mail dead-letter list to operators. Only mounted
// when Redis is configured.
type JobsHandler struct{ rdb *redis.Client }

func NewJobsHandler(rdb *redis.Client) *JobsHandler {
	return &JobsHandler{rdb: rdb}
}

// DLQ GET /v1/jobs/dlq?limit=
func (h *JobsHandler) DLQ(c *gin.Context) {
	var q dto.DLQQuery
	if !bindQuery(c, &q) {
		return
	}
	ctx := c.Request.Context()

	total, err := worker.DLQLength(ctx, h.rdb, worker.QueueEmail)
	if err != nil {
		respondError(c, err)
		return
	}
	pendientes, err := worker.RetryPending(ctx, h.rdb, worker.QueueEmail)
	if err != nil {
		respondError(c, err)
		return
	}
	entries, err := worker.DLQEntries(ctx, h.rdb, worker.QueueEmail, int64(q.Limit))
	if err != nil {
		respondError(c, err)
		return
	}

	resp := dto.DLQResponse{Total: total, PendientesReintento: pendientes, Entradas: make([]dto.DLQEntrada, 0, len(entries))}
	for _, e := range entries {
		item := dto.DLQEntrada{
			JobID:     e.JobID,
			Tipo:      e.JobType,
			Motivo:    e.Reason,
			Intentos:  e.Attempts,
			FallidoEn: e.FailedAt,
		}
		var p worker.EmailJobPayload
		if e.JobType == worker.JobTypeEmailRemito && json.Unmarshal(e.Payload, &p) == nil {
			item.RemitoID = p.RemitoID
			item.Email = p.ToEmail
		}
		resp.Entradas = append(resp.Entradas, item)
	}
	c.JSON(http.StatusOK, resp)
}

// Reintentar POST /v1/jobs/dlq/reintentar?cantidad=
func (h *JobsHandler) Reintentar(c *gin.Context) {
	var q dto.DLQReintentarQuery
	if !bindQuery(c, &q) {
		return
	}
	n, err := worker.RequeueDLQ(c.Request.Context(), h.rdb, worker.QueueEmail, q.Cantidad)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.DLQReintentarResponse{Reencolados: n})
}
