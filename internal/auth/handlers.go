package auth

import (
	"github.com/gofiber/fiber/v2"
)

// RegisterRoutes mounts token verification. Token issuing is only mounted
// for development setups without an external account service.
func RegisterRoutes(r fiber.Router, svc *Service, issueTokens bool) {
	if issueTokens {
		r.Post("/token", func(c *fiber.Ctx) error {
			var req struct {
				UserID string `json:"user_id"`
			}
			if err := c.BodyParser(&req); err != nil || req.UserID == "" {
				return fiber.NewError(fiber.StatusBadRequest, "user_id required")
			}
			tokens, err := svc.IssueToken(req.UserID)
			if err != nil {
				return fiber.NewError(fiber.StatusInternalServerError, err.Error())
			}
			return c.Status(fiber.StatusCreated).JSON(tokens)
		})
	}

	r.Get("/jwt/verify", func(c *fiber.Ctx) error {
		token := bearerFromHeader(c.Get("Authorization"))
		if token == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "missing bearer token")
		}

		userID, err := svc.ValidateAccessToken(token)
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, err.Error())
		}
		return c.JSON(fiber.Map{"user_id": userID})
	})
}
