package domain

// Principal es la identidad resuelta de quien hace la request.
// Se pasa explicitamente a cada operacion de servicio.
type Principal struct {
	UserID   string
	Email    string
	Role     Role
	TenantID string
}
