package claim

import (
	"bytes"
	"errors"

	"backend-territory/internal/auth"

	"github.com/gofiber/fiber/v2"
)

func RegisterRoutes(r fiber.Router, svc *Service, authMiddleware fiber.Handler) {
	r.Get("/", authMiddleware, func(c *fiber.Ctx) error {
		claims, err := svc.ListByUser(c.Context(), auth.UserID(c))
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		if c.Query("format") == "geojson" {
			c.Set(fiber.HeaderContentType, "application/geo+json")
			return c.JSON(FeatureCollection(claims))
		}
		return c.JSON(claims)
	})

	r.Get("/nearby", func(c *fiber.Ctx) error {
		lat := c.QueryFloat("lat", 1000)
		lng := c.QueryFloat("lng", 1000)
		radiusKm := c.QueryFloat("radius_km", 1)
		if lat < -90 || lat > 90 || lng < -180 || lng > 180 || radiusKm <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "lat, lng and positive radius_km required")
		}
		claims, err := svc.Nearby(c.Context(), lat, lng, radiusKm)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(claims)
	})

	r.Get("/:id", func(c *fiber.Ctx) error {
		cl, err := lookup(c, svc)
		if err != nil {
			return err
		}
		return c.JSON(cl)
	})

	r.Get("/:id/geojson", func(c *fiber.Ctx) error {
		cl, err := lookup(c, svc)
		if err != nil {
			return err
		}
		body, err := Feature(cl).MarshalJSON()
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		c.Set(fiber.HeaderContentType, "application/geo+json")
		return c.Send(body)
	})

	r.Get("/:id/kml", func(c *fiber.Ctx) error {
		cl, err := lookup(c, svc)
		if err != nil {
			return err
		}
		var buf bytes.Buffer
		if err := WriteKML(&buf, cl); err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		c.Set(fiber.HeaderContentType, "application/vnd.google-earth.kml+xml")
		return c.Send(buf.Bytes())
	})
}

func lookup(c *fiber.Ctx, svc *Service) (Claim, error) {
	cl, err := svc.Get(c.Context(), c.Params("id"))
	if errors.Is(err, ErrClaimNotFound) {
		return Claim{}, fiber.NewError(fiber.StatusNotFound, "claim not found")
	}
	if err != nil {
		return Claim{}, fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
	return cl, nil
}
