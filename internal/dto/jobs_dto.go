package dto

import "time"

type DLQQuery struct {
	Limit int `form:"limit,default=50" validate:"min=1,max=500"`
}

type DLQReintentarQuery struct {
	Cantidad int `form:"cantidad,default=100" validate:"min=1,max=1000"`
}

// DLQEntrada is one dead e-mail job as shown to operators.
type DLQEntrada struct {
	JobID     string    `json:"job_id,omitempty"`
	Tipo      string    `json:"tipo"`
	RemitoID  uint      `json:"remito_id,omitempty"`
	Email     string    `json:"email,omitempty"`
	Motivo    string    `json:"motivo"`
	Intentos  int       `json:"intentos"`
	FallidoEn time.Time `json:"fallido_en"`
}

type DLQResponse struct {
	Total               int64        `json:"total"`
	PendientesReintento int64        `json:"pendientes_reintento"`
	Entradas            []DLQEntrada `json:"entradas"`
}

type DLQReintentarResponse struct {
	Reencolados int `json:"reencolados"`
}
