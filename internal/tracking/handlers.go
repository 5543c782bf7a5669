package tracking

import (
	"errors"
	"time"

	"backend-territory/internal/auth"
	"backend-territory/internal/territory"

	"github.com/gofiber/fiber/v2"
)

func RegisterRoutes(r fiber.Router, svc *Service, authMiddleware fiber.Handler) {
	r.Post("/sessions", authMiddleware, func(c *fiber.Ctx) error {
		var body struct {
			UserID string `json:"user_id"`
		}
		if len(c.Body()) > 0 {
			if err := c.BodyParser(&body); err != nil {
				return fiber.NewError(fiber.StatusBadRequest, err.Error())
			}
		}
		userID := auth.UserID(c)
		if userID == "" {
			userID = body.UserID
		}
		if userID == "" {
			return fiber.NewError(fiber.StatusBadRequest, "user_id required")
		}
		session, err := svc.StartSession(c.Context(), userID)
		if err != nil {
			return toHTTPError(err)
		}
		return c.Status(fiber.StatusCreated).JSON(session)
	})

	r.Post("/sessions/:id/samples", authMiddleware, owner(svc), func(c *fiber.Ctx) error {
		var sample territory.LocationSample
		if err := c.BodyParser(&sample); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if msg := checkSample(sample); msg != "" {
			return fiber.NewError(fiber.StatusBadRequest, msg)
		}
		resp, err := svc.AddSample(c.Context(), c.Params("id"), sample)
		if err != nil {
			return toHTTPError(err)
		}
		return c.JSON(resp)
	})

	if svc.ManualTick() {
		r.Post("/sessions/:id/tick", authMiddleware, owner(svc), func(c *fiber.Ctx) error {
			state, err := svc.Tick(c.Context(), c.Params("id"), time.Now())
			if err != nil {
				return toHTTPError(err)
			}
			return c.JSON(state)
		})
	}

	r.Post("/sessions/:id/stop", authMiddleware, owner(svc), func(c *fiber.Ctx) error {
		state, err := svc.StopSession(c.Context(), c.Params("id"))
		if err != nil {
			return toHTTPError(err)
		}
		return c.JSON(state)
	})

	r.Post("/sessions/:id/restart", authMiddleware, owner(svc), func(c *fiber.Ctx) error {
		state, err := svc.RestartSession(c.Context(), c.Params("id"))
		if err != nil {
			return toHTTPError(err)
		}
		return c.JSON(state)
	})

	r.Get("/sessions/:id", func(c *fiber.Ctx) error {
		state, err := svc.State(c.Context(), c.Params("id"))
		if err != nil {
			return toHTTPError(err)
		}
		return c.JSON(state)
	})

	r.Get("/sessions/:id/path", func(c *fiber.Ctx) error {
		path, err := svc.Path(c.Params("id"))
		if err != nil {
			return toHTTPError(err)
		}
		return c.JSON(path)
	})

	r.Get("/sessions/:id/validation", func(c *fiber.Ctx) error {
		v, ok, err := svc.Validation(c.Params("id"))
		if err != nil {
			return toHTTPError(err)
		}
		if !ok {
			return fiber.NewError(fiber.StatusNotFound, "path not closed")
		}
		return c.JSON(v)
	})

	r.Get("/sessions/:id/warning", func(c *fiber.Ctx) error {
		w, ok, err := svc.Warning(c.Params("id"))
		if err != nil {
			return toHTTPError(err)
		}
		if !ok {
			return c.SendStatus(fiber.StatusNoContent)
		}
		return c.JSON(w)
	})

	r.Get("/sessions/:id/summary", func(c *fiber.Ctx) error {
		summary, err := svc.Summary(c.Context(), c.Params("id"))
		if err != nil {
			return toHTTPError(err)
		}
		return c.JSON(summary)
	})

	r.Get("/sessions/:id/points", func(c *fiber.Ctx) error {
		points, err := svc.Points(c.Context(), c.Params("id"))
		if err != nil {
			return toHTTPError(err)
		}
		return c.JSON(points)
	})
}

// owner rejects callers other than the user who started the session.
func owner(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := svc.Authorize(c.Params("id"), auth.UserID(c)); err != nil {
			return toHTTPError(err)
		}
		return c.Next()
	}
}

func checkSample(s territory.LocationSample) string {
	switch {
	case s.TimestampMillis <= 0:
		return "timestamp_ms required"
	case s.Latitude < -90 || s.Latitude > 90:
		return "lat out of range"
	case s.Longitude < -180 || s.Longitude > 180:
		return "lng out of range"
	}
	return ""
}

func toHTTPError(err error) error {
	switch {
	case errors.Is(err, ErrSessionNotFound):
		return fiber.NewError(fiber.StatusNotFound, "session not found")
	case errors.Is(err, ErrForbidden):
		return fiber.NewError(fiber.StatusForbidden, err.Error())
	case errors.Is(err, ErrNotTracking):
		return fiber.NewError(fiber.StatusConflict, err.Error())
	}
	return fiber.NewError(fiber.StatusInternalServerError, err.Error())
}
