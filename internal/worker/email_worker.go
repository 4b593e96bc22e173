package worker

// email_worker.go
// Processes email jobs from QueueEmail: renders the remito spreadsheet and
// sends it to the client's address via SMTP.

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog/log"
)

// EmailJobPayload is the job envelope sent to QueueEmail.
type EmailJobPayload struct {
	RemitoID uint   `json:"remito_id"`
	ToEmail  string `json:"to_email"`
}

// RemitoRenderer produces the xlsx for a remito.
type RemitoRenderer interface {
	RemitoExcel(ctx context.Context, id uint) (content []byte, fileName string, err error)
}

type RemitoMailer interface {
	SendRemito(to, subject, body, fileName string, xlsx []byte) error
}

// EmailObserver receives one outcome per processed job ("enviado" | "error").
type EmailObserver interface {
	Email(resultado string)
}

// EmailWorker processes email jobs from QueueEmail.
type EmailWorker struct {
	renderer RemitoRenderer
	mailer   RemitoMailer
	observer EmailObserver
}

// NewEmailWorker creates an EmailWorker. observer may be nil.
func NewEmailWorker(renderer RemitoRenderer, mailer RemitoMailer, observer EmailObserver) *EmailWorker {
	return &EmailWorker{renderer: renderer, mailer: mailer, observer: observer}
}

func (w *EmailWorker) Process(ctx context.Context, raw json.RawMessage) error {
	var payload EmailJobPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return fmt.Errorf("email_worker: payload inválido: %v: %w", err, ErrPermanente)
	}
	if payload.ToEmail == "" || payload.RemitoID == 0 {
		return fmt.Errorf("email_worker: payload incompleto: %w", ErrPermanente)
	}

	content, fileName, err := w.renderer.RemitoExcel(ctx, payload.RemitoID)
	if err != nil {
		w.observe("error")
		return fmt.Errorf("email_worker: render remito %d: %w", payload.RemitoID, err)
	}

	subject := fmt.Sprintf("Remito N° %d", payload.RemitoID)
	body := fmt.Sprintf("Adjuntamos el remito N° %d.\n", payload.RemitoID)
	if err := w.mailer.SendRemito(payload.ToEmail, subject, body, fileName, content); err != nil {
		w.observe("error")
		return fmt.Errorf("email_worker: enviar a %s: %w", payload.ToEmail, err)
	}

	w.observe("enviado")
	log.Info().Uint("remito_id", payload.RemitoID).Str("to", payload.ToEmail).Msg("email_worker: remito enviado")
	return nil
}

func (w *EmailWorker) observe(resultado string) {
	if w.observer != nil {
		w.observer.Email(resultado)
	}
}
