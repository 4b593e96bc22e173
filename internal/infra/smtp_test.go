package infra_test

import (
	"errors"
	"testing"

	"consigna/internal/config"
	"consigna/internal/infra"

	"github.com/stretchr/testify/assert"
)

func TestMailer_SinHostConfigurado(t *testing.T) {
	m := infra.NewMailer(&config.Config{SMTPPort: 587})
	err := m.SendRemito("kiosco@example.com", "Remito", "adjunto", "Remito_1.xlsx", []byte("x"))
	assert.True(t, errors.Is(err, infra.ErrSMTPNoConfigurado))
}

func TestMailer_RelayArrancaCerrado(t *testing.T) {
	m := infra.NewMailer(&config.Config{SMTPHost: "smtp.example.com", SMTPPort: 587})
	assert.Equal(t, infra.BreakerCerrado, m.EstadoRelay())
}
