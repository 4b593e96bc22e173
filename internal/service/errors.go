package service

import (
	"errors"
	"sort"
	"strings"
)

// Sentinel errors shared by every service. Handlers map them to HTTP status
// codes; anything else is treated as a storage failure.
var (
	ErrValidacion   = errors.New("datos inválidos")
	ErrReferencia   = errors.New("referencia inexistente")
	ErrNoEncontrado = errors.New("no encontrado")
	ErrEnUso        = errors.New("registro en uso")
	ErrDuplicado    = errors.New("registro duplicado")
)

// ValidationError carries per-field messages and unwraps to ErrValidacion.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return ErrValidacion.Error()
	}
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return ErrValidacion.Error() + ": " + strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error { return ErrValidacion }

// validacion is a small accumulator; Err returns nil when nothing was added.
type validacion map[string]string

func (v validacion) add(field, msg string) {
	if _, ok := v[field]; !ok {
		v[field] = msg
	}
}

func (v validacion) Err() error {
	if len(v) == 0 {
		return nil
	}
	return &ValidationError{Fields: map[string]string(v)}
}
