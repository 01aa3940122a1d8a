package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/spec-kit/org-hierarchy/internal/api/http/handlers"
	"github.com/spec-kit/org-hierarchy/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Employees      *handlers.EmployeesHandler
	CEO            *handlers.CEOHandler
	Teams          *handlers.TeamsHandler
	Departments    *handlers.DepartmentsHandler
	AuditLogs      *handlers.AuditLogsHandler
	Imports        *handlers.ImportsHandler
	Search         *handlers.SearchHandler
	AuthMiddleware *auth.AuthMiddleware
	// Gatherer serves /metrics when set.
	Gatherer prometheus.Gatherer
}

// RegisterRoutes wires HTTP routes. Reads need any role, hierarchy edits need
// hr and the audit trail is admin only.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	if cfg.Gatherer != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{})))
	}

	api := app.Group("/api/v1", cfg.AuthMiddleware.Handle)
	read := auth.RequireRoles(auth.RoleMember, auth.RoleHR)
	write := auth.RequireRoles(auth.RoleHR)
	admin := auth.RequireRoles(auth.RoleAdmin)

	employees := api.Group("/employees")
	employees.Get("/", read, cfg.Employees.List)
	employees.Post("/", write, cfg.Employees.Create)
	employees.Get("/:id", read, cfg.Employees.Get)
	employees.Get("/:id/reports", read, cfg.Employees.Reports)
	employees.Patch("/:id", write, cfg.Employees.Update)
	employees.Delete("/:id", write, cfg.Employees.Delete)
	employees.Put("/:id/manager", write, cfg.Employees.SetManager)
	employees.Put("/:id/team", write, cfg.Employees.AssignTeam)
	employees.Put("/:id/department", write, cfg.Employees.AssignDepartment)

	ceo := api.Group("/ceo")
	ceo.Get("/", read, cfg.CEO.Get)
	ceo.Post("/promote", write, cfg.CEO.Promote)
	ceo.Post("/replace", write, cfg.CEO.Replace)

	teams := api.Group("/teams")
	teams.Get("/", read, cfg.Teams.List)
	teams.Post("/", write, cfg.Teams.Create)
	teams.Get("/:id", read, cfg.Teams.Get)
	teams.Delete("/:id", write, cfg.Teams.Delete)
	teams.Put("/:id/parent", write, cfg.Teams.SetParent)
	teams.Put("/:id/lead", write, cfg.Teams.SetLead)
	teams.Put("/:id/department", write, cfg.Teams.SetDepartment)

	departments := api.Group("/departments")
	departments.Get("/", read, cfg.Departments.List)
	departments.Post("/", write, cfg.Departments.Create)
	departments.Get("/:id", read, cfg.Departments.Get)
	departments.Patch("/:id", write, cfg.Departments.Rename)
	departments.Delete("/:id", write, cfg.Departments.Delete)

	api.Get("/search", read, cfg.Search.Search)

	imports := api.Group("/imports")
	imports.Post("/employees", write, cfg.Imports.ImportEmployees)
	imports.Get("/template", read, cfg.Imports.Template)

	audit := api.Group("/audit-logs", admin)
	audit.Get("/", cfg.AuditLogs.List)
	audit.Get("/:id", cfg.AuditLogs.Get)
}
