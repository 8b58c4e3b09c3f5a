package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/expotoworld/expotoworld-sub002/internal/auth/dto"
	"github.com/expotoworld/expotoworld-sub002/internal/auth/service"
	autherror "github.com/expotoworld/expotoworld-sub002/internal/errors"
	"github.com/expotoworld/expotoworld-sub002/pkg/constant"
)

type AuthHandler struct {
	authService *service.AuthService
}

func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

func (h *AuthHandler) RequestCode(c *fiber.Ctx) error {
	return h.requestCode(c, constant.ActorUser, service.IssueOptions{})
}

// AdminRequestCode issues a code for the admin console; the subject must be an
// existing, active, allow-listed account.
func (h *AuthHandler) AdminRequestCode(c *fiber.Ctx) error {
	return h.requestCode(c, constant.ActorAdmin, service.IssueOptions{})
}

func (h *AuthHandler) requestCode(c *fiber.Ctx, actorType string, opts service.IssueOptions) error {
	var input dto.RequestCodeInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid input",
		})
	}
	if input.Subject == "" || (input.Channel != constant.ChannelEmail && input.Channel != constant.ChannelPhone) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid input",
		})
	}

	input.IPAddress = c.IP()

	out, err := h.authService.RequestCode(c.Context(), input, actorType, opts)
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(out)
}

func (h *AuthHandler) SubmitCode(c *fiber.Ctx) error {
	return h.submitCode(c, constant.ActorUser, service.ResolveOptions{})
}

// AdminSubmitCode completes the admin flow in strict mode: no
// auto-registration, admin role required.
func (h *AuthHandler) AdminSubmitCode(c *fiber.Ctx) error {
	return h.submitCode(c, constant.ActorAdmin, service.ResolveOptions{
		RequireExisting: true,
		RequireRole:     constant.RoleAdmin,
	})
}

func (h *AuthHandler) submitCode(c *fiber.Ctx, actorType string, opts service.ResolveOptions) error {
	var input dto.SubmitCodeInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid input",
		})
	}

	// Capture metadata
	input.IPAddress = c.IP()
	input.UserAgent = string(c.Request().Header.UserAgent())

	tokens, err := h.authService.SubmitCode(c.Context(), input, actorType, opts)
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(tokens)
}

func (h *AuthHandler) Refresh(c *fiber.Ctx) error {
	var input dto.RefreshInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid input"})
	}

	input.IPAddress = c.IP()
	input.UserAgent = string(c.Request().Header.UserAgent())

	tokens, err := h.authService.Refresh(c.Context(), input)
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(tokens)
}

func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	var input dto.LogoutInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid input"})
	}

	if err := h.authService.Logout(c.Context(), input.RefreshToken); err != nil {
		return respondError(c, err)
	}

	return c.SendStatus(fiber.StatusOK)
}

// respondError maps the taxonomy onto HTTP statuses. Anything outside the
// taxonomy is a persistence or programming error and must not leak to callers.
func respondError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, autherror.ErrRateLimited):
		return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, autherror.ErrCodeNotFound),
		errors.Is(err, autherror.ErrCodeIncorrect),
		errors.Is(err, autherror.ErrAttemptsExceeded),
		errors.Is(err, autherror.ErrRefreshTokenInvalid):
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, autherror.ErrForbidden):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, autherror.ErrDeliveryFailed):
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": err.Error()})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
	}
}
