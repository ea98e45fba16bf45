package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/campus-room-reservation/internal/handler"
	"github.com/iliyamo/campus-room-reservation/internal/middleware"
	"github.com/iliyamo/campus-room-reservation/internal/model"
)

// RegisterRequester registers requester-scoped endpoints under /v1.  All
// routes require a valid JWT and one of the requester roles.  Requesters can
// submit reservation requests, list their own, and withdraw them; reading a
// single request is registered separately because reviewer roles share it.
func RegisterRequester(e *echo.Echo, h *handler.RequestHandler, jwtSecret string) {
	g := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleRequester, model.RoleRequesterWithDelegate),
	)
	g.POST("/requests", h.Submit)
	g.GET("/my-requests", h.MyRequests)
	g.POST("/requests/:id/withdraw", h.Withdraw)
}

// RegisterRequestRead registers GET /v1/requests/:id for every workflow
// role.  Ownership filtering for requester roles happens in the handler.
func RegisterRequestRead(e *echo.Echo, h *handler.RequestHandler, jwtSecret string) {
	g := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(
			model.RoleRequester,
			model.RoleRequesterWithDelegate,
			model.RoleVerifier,
			model.RoleApprover,
			model.RoleArbitrator,
		),
	)
	g.GET("/requests/:id", h.Get)
}
