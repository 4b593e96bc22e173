// Package apierror holds the JSON envelopes for every 4xx/5xx response.
// Clients branch on Codigo; Detail is for humans and never carries storage
// errors.
package apierror

const (
	CodigoSolicitud    = "solicitud_invalida"
	CodigoValidacion   = "validacion"
	CodigoNoEncontrado = "no_encontrado"
	CodigoConflicto    = "conflicto"
	CodigoLimite       = "limite_excedido"
	CodigoInterno      = "interno"
)

type APIError struct {
	Codigo string `json:"codigo"`
	Detail string `json:"detail"`
}

func New(codigo, msg string) *APIError {
	return &APIError{Codigo: codigo, Detail: msg}
}

func Solicitud(msg string) *APIError    { return New(CodigoSolicitud, msg) }
func NoEncontrado(msg string) *APIError { return New(CodigoNoEncontrado, msg) }
func Conflicto(msg string) *APIError    { return New(CodigoConflicto, msg) }
func Interno() *APIError                { return New(CodigoInterno, "Error interno del servidor") }

// ValidationError carries one message per offending field, keyed by the
// JSON name of the field (items[0].entregados).
type ValidationError struct {
	Codigo string            `json:"codigo"`
	Detail string            `json:"detail"`
	Fields map[string]string `json:"fields,omitempty"`
}

func NewValidation(fields map[string]string) *ValidationError {
	return &ValidationError{Codigo: CodigoValidacion, Detail: "Error de validación", Fields: fields}
}

// Validacion is a validation failure without a field map.
func Validacion(msg string) *ValidationError {
	return &ValidationError{Codigo: CodigoValidacion, Detail: msg}
}
