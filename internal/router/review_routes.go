package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/campus-room-reservation/internal/handler"
	"github.com/iliyamo/campus-room-reservation/internal/middleware"
	"github.com/iliyamo/campus-room-reservation/internal/model"
)

// RegisterReview registers the reviewer-facing endpoints under /v1.
// Verifiers and approvers share the decision route; which actions are legal
// for whom is decided by the workflow from the request's current stage.
func RegisterReview(e *echo.Echo, h *handler.RequestHandler, jwtSecret string) {
	g := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleVerifier, model.RoleApprover),
	)
	g.POST("/requests/:id/decision", h.Decide)
}

// RegisterArbitration registers conflict-case endpoints under /v1,
// restricted to the ARBITRATOR role.
func RegisterArbitration(e *echo.Echo, h *handler.ConflictHandler, jwtSecret string) {
	g := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleArbitrator),
	)
	g.GET("/conflicts/pending", h.Pending)
	g.POST("/conflicts/resolve", h.Resolve)
	g.POST("/conflicts/dismiss", h.Dismiss)
}

// RegisterTimetables registers bulk allocation endpoints under /v1,
// restricted to the APPROVER role.
func RegisterTimetables(e *echo.Echo, h *handler.TimetableHandler, jwtSecret string) {
	g := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleApprover),
	)
	g.POST("/timetables/:id/activate", h.Activate)
	g.POST("/allocations/:id/slot", h.ChangeSlot)
	g.POST("/allocations/:id/room", h.ChangeRoom)
}
