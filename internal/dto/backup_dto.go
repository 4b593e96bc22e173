package dto

type TablaEstado struct {
	Tabla     string `json:"tabla"`
	Registros int64  `json:"registros"`
}

// EstadoBackupResponse lists row counts per table (GET /v1/backup/estado).
type EstadoBackupResponse struct {
	Tablas []TablaEstado `json:"tablas"`
	Total  int64         `json:"total"`
}

type RestauracionResponse struct {
	Tablas []TablaEstado `json:"tablas"`
	Total  int64         `json:"total"`
}
