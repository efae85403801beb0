package middleware

// identity.go carries the authenticated caller from the gate to handlers.

import "github.com/labstack/echo/v4"

const identityKey = "identity"

// Identity is attached to the request once the gate admits it.
type Identity struct {
	PrincipalID uint64
	Role        string
	SessionID   string
}

func setIdentity(c echo.Context, id Identity) { c.Set(identityKey, id) }

// IdentityFrom returns the caller admitted by SessionAuth.  ok is false on
// routes the gate does not cover.
func IdentityFrom(c echo.Context) (Identity, bool) {
	id, ok := c.Get(identityKey).(Identity)
	return id, ok
}
