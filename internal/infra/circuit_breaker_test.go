package infra_test

import (
	"errors"
	"testing"
	"time"

	"consigna/internal/infra"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errRelay = errors.New("421 service not available")

func fallar() error { return errRelay }
func andar() error  { return nil }

func TestBreaker_AbreTrasFallosConsecutivos(t *testing.T) {
	b := infra.NewBreaker(infra.BreakerConfig{Nombre: "smtp", FallosParaAbrir: 3, Pausa: time.Hour})

	for i := 0; i < 2; i++ {
		assert.ErrorIs(t, b.Ejecutar(fallar), errRelay)
	}
	assert.Equal(t, infra.BreakerCerrado, b.Estado())

	assert.ErrorIs(t, b.Ejecutar(fallar), errRelay)
	assert.Equal(t, infra.BreakerAbierto, b.Estado())

	llamado := false
	err := b.Ejecutar(func() error { llamado = true; return nil })
	assert.ErrorIs(t, err, infra.ErrBreakerAbierto)
	assert.False(t, llamado, "open breaker must not reach the relay")
}

func TestBreaker_ExitoReiniciaContador(t *testing.T) {
	b := infra.NewBreaker(infra.BreakerConfig{FallosParaAbrir: 2, Pausa: time.Hour})
	_ = b.Ejecutar(fallar)
	require.NoError(t, b.Ejecutar(andar))
	_ = b.Ejecutar(fallar)
	assert.Equal(t, infra.BreakerCerrado, b.Estado())
}

func TestBreaker_SemiAbiertoCierraOReabre(t *testing.T) {
	b := infra.NewBreaker(infra.BreakerConfig{FallosParaAbrir: 1, ExitosParaCerrar: 2, Pausa: 20 * time.Millisecond})
	_ = b.Ejecutar(fallar)
	require.Equal(t, infra.BreakerAbierto, b.Estado())

	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, infra.BreakerSemiAbierto, b.Estado())

	// A failed probe reopens immediately.
	_ = b.Ejecutar(fallar)
	assert.Equal(t, infra.BreakerAbierto, b.Estado())

	time.Sleep(30 * time.Millisecond)
	require.NoError(t, b.Ejecutar(andar))
	assert.Equal(t, infra.BreakerSemiAbierto, b.Estado())
	require.NoError(t, b.Ejecutar(andar))
	assert.Equal(t, infra.BreakerCerrado, b.Estado())
	assert.Equal(t, "closed", b.Estado().String())
}
