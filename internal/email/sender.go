package email

import (
	"context"
	"errors"
)

// Invitation es el contenido del correo que recibe un usuario invitado a un tenant.
type Invitation struct {
	ToEmail           string
	FullName          string
	TenantName        string
	TemporaryPassword string
}

// Sender define la interfaz para envio de invitaciones.
type Sender interface {
	SendInvitation(ctx context.Context, inv Invitation) error
}

// ErrDisabled indica que no hay SMTP configurado.
var ErrDisabled = errors.New("email sender disabled")

type disabledSender struct {
	reason string
}

func NewDisabledSender(reason string) Sender {
	return &disabledSender{reason: reason}
}

func (s *disabledSender) SendInvitation(_ context.Context, _ Invitation) error {
	if s.reason == "" {
		return ErrDisabled
	}
	return errors.Join(ErrDisabled, errors.New(s.reason))
}
