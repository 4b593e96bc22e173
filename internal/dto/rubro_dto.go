package dto

// ── Request DTOs ──────────────────────────────────────────────────────────────

type CrearRubroRequest struct {
	NombreRubro string `json:"nombre_rubro" validate:"required,min=2,max=100"`
}

type ActualizarRubroRequest struct {
	NombreRubro *string `json:"nombre_rubro" validate:"omitempty,min=2,max=100"`
}

// ── Response DTOs ─────────────────────────────────────────────────────────────

type RubroResponse struct {
	ID          uint   `json:"id"`
	NombreRubro string `json:"nombre_rubro"`
}
