package repository

import (
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// ErrNotFound se devuelve cuando la fila no existe o queda fuera del alcance pedido.
	ErrNotFound = errors.New("record not found")
	// ErrConflict se devuelve ante una violacion de unicidad.
	ErrConflict = errors.New("record conflict")
)

const uniqueViolation = "23505"

// translateErr convierte errores de pgx en los errores del paquete.
func translateErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return ErrConflict
	}
	return err
}
