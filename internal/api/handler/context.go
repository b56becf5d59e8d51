package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/rentahome/kyc-service/internal/core/ports"
)

// Context keys set by the Auth middleware.
const (
	CtxUserID = "user_id"
	CtxRole   = "role"
	CtxEmail  = "email"
)

// ctxActor extracts the caller injected by the Auth middleware and performs a
// fast-fail check before any service call: user_id and role must both be set.
func ctxActor(c echo.Context) (ports.Actor, error) {
	userID, _ := c.Get(CtxUserID).(string)
	role, _ := c.Get(CtxRole).(string)
	if userID == "" || role == "" {
		return ports.Actor{}, echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
	}
	email, _ := c.Get(CtxEmail).(string)
	return ports.Actor{UserID: userID, Role: role, Email: email}, nil
}
