package infra

import (
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// ── Breaker ───────────────────────────────────────────────────────────────────
// Closed → Open → Half-Open guard around the SMTP relay. While open, sends fail
// at once and the job goes back to the retry schedule without touching the
// network.

// BreakerEstado is the current breaker state.
type BreakerEstado int

const (
	BreakerCerrado BreakerEstado = iota
	BreakerAbierto
	BreakerSemiAbierto
)

func (s BreakerEstado) String() string {
	switch s {
	case BreakerCerrado:
		return "closed"
	case BreakerAbierto:
		return "open"
	case BreakerSemiAbierto:
		return "half-open"
	default:
		return "unknown"
	}
}

// ErrBreakerAbierto is returned by Ejecutar while the breaker is open.
var ErrBreakerAbierto = errors.New("breaker: relay SMTP en pausa")

// BreakerConfig holds the trip and recovery thresholds. Zero values take the
// defaults of DefaultBreakerConfig.
type BreakerConfig struct {
	Nombre           string
	FallosParaAbrir  int
	ExitosParaCerrar int
	Pausa            time.Duration
}

func DefaultBreakerConfig(nombre string) BreakerConfig {
	return BreakerConfig{
		Nombre:           nombre,
		FallosParaAbrir:  5,
		ExitosParaCerrar: 2,
		Pausa:            time.Minute,
	}
}

// Breaker is safe for concurrent use by the worker goroutines.
type Breaker struct {
	mu        sync.Mutex
	cfg       BreakerConfig
	estado    BreakerEstado
	fallos    int
	exitos    int
	abiertoEn time.Time
}

func NewBreaker(cfg BreakerConfig) *Breaker {
	def := DefaultBreakerConfig(cfg.Nombre)
	if cfg.FallosParaAbrir <= 0 {
		cfg.FallosParaAbrir = def.FallosParaAbrir
	}
	if cfg.ExitosParaCerrar <= 0 {
		cfg.ExitosParaCerrar = def.ExitosParaCerrar
	}
	if cfg.Pausa <= 0 {
		cfg.Pausa = def.Pausa
	}
	return &Breaker{cfg: cfg}
}

// Estado reports the state, moving an expired open breaker to half-open.
func (b *Breaker) Estado() BreakerEstado {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.estadoLocked()
}

func (b *Breaker) estadoLocked() BreakerEstado {
	if b.estado == BreakerAbierto && time.Since(b.abiertoEn) >= b.cfg.Pausa {
		b.cambiar(BreakerSemiAbierto)
		b.exitos = 0
	}
	return b.estado
}

// Ejecutar runs fn unless the breaker is open. Errors returned by fn count as
// relay failures.
func (b *Breaker) Ejecutar(fn func() error) error {
	b.mu.Lock()
	if b.estadoLocked() == BreakerAbierto {
		b.mu.Unlock()
		return ErrBreakerAbierto
	}
	b.mu.Unlock()

	err := fn()

	b.mu.Lock()
	defer b.mu.Unlock()
	if err != nil {
		b.fallo()
		return err
	}
	b.exito()
	return nil
}

func (b *Breaker) fallo() {
	b.fallos++
	switch b.estado {
	case BreakerCerrado:
		if b.fallos >= b.cfg.FallosParaAbrir {
			b.abrir()
		}
	case BreakerSemiAbierto:
		b.abrir()
	}
}

func (b *Breaker) exito() {
	switch b.estado {
	case BreakerCerrado:
		b.fallos = 0
	case BreakerSemiAbierto:
		b.exitos++
		if b.exitos >= b.cfg.ExitosParaCerrar {
			b.cambiar(BreakerCerrado)
			b.fallos = 0
			b.exitos = 0
		}
	}
}

func (b *Breaker) abrir() {
	b.cambiar(BreakerAbierto)
	b.abiertoEn = time.Now()
	b.fallos = 0
	b.exitos = 0
}

func (b *Breaker) cambiar(nuevo BreakerEstado) {
	if b.estado == nuevo {
		return
	}
	log.Warn().Str("breaker", b.cfg.Nombre).Str("from", b.estado.String()).Str("to", nuevo.String()).Msg("breaker: cambio de estado")
	b.estado = nuevo
}
