package handler

import (
	"github.com/gofiber/fiber/v2"
)

func RegisterRoutes(app *fiber.App, h *AuthHandler) {
	app.Post("api/v1/auth/code", h.RequestCode)
	app.Post("api/v1/auth/login", h.SubmitCode)
	app.Post("api/v1/auth/refresh", h.Refresh)
	app.Post("api/v1/auth/logout", h.Logout)

	// Admin console flow: strict mode, allow-listed roles only
	admin := app.Group("/api/v1/admin")
	admin.Post("/auth/code", h.AdminRequestCode)
	admin.Post("/auth/login", h.AdminSubmitCode)
}
