package handler

import (
	"context"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"appcontext/internal/service"
)

// Pinger reports database reachability for the health endpoint.
type Pinger interface {
	Ping(ctx context.Context) error
}

// RegisterRoutes attaches the health and sample routes to the provided Fiber app.
func RegisterRoutes(app *fiber.App, db Pinger, sampleSvc service.SampleService) {
	app.Get("/health", HealthCheck(db))
	app.Get("/healthz", LivenessProbe())

	samples := app.Group("/samples")
	samples.Get("/", ListSamples(sampleSvc))
	samples.Post("/", CreateSample(sampleSvc))
	samples.Post("/export", ExportSamples(sampleSvc))
	samples.Get("/:id", GetSample(sampleSvc))
	samples.Put("/:id", UpdateSample(sampleSvc))
	samples.Delete("/:id", DeleteSample(sampleSvc))
}

// HealthCheck godoc
// @Summary Readiness probe
// @Description Checks MongoDB connectivity
// @Tags health
// @Produce json
// @Success 200 {object} map[string]string
// @Failure 503 {object} errorPayload
// @Router /health [get]
func HealthCheck(db Pinger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()
		if err := db.Ping(ctx); err != nil {
			return writeError(c, fiber.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "dependency unavailable")
		}
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "healthy"})
	}
}

// LivenessProbe godoc
// @Summary Liveness probe
// @Tags health
// @Success 200
// @Router /healthz [get]
func LivenessProbe() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	}
}

// ListSamples godoc
// @Summary List samples
// @Description Returns every sample, or the ones matching name and/or active
// @Tags samples
// @Produce json
// @Param name query string false "exact name"
// @Param active query bool false "active flag"
// @Success 200 {array} model.Sample
// @Failure 400 {object} errorPayload
// @Router /samples [get]
func ListSamples(svc service.SampleService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var q service.SampleQuery
		if name := c.Query("name"); name != "" {
			q.Name = &name
		}
		if raw := c.Query("active"); raw != "" {
			active, err := strconv.ParseBool(raw)
			if err != nil {
				return writeError(c, fiber.StatusBadRequest, "INVALID_ACTIVE", "invalid active flag")
			}
			q.Active = &active
		}

		var (
			items any
			err   error
		)
		if q.Empty() {
			items, err = svc.List(c.UserContext())
		} else {
			items, err = svc.Search(c.UserContext(), q)
		}
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(items)
	}
}

// CreateSample godoc
// @Summary Create a sample
// @Tags samples
// @Accept json
// @Produce json
// @Param sample body service.SampleInput true "sample"
// @Success 201 {object} model.Sample
// @Failure 400 {object} errorPayload
// @Failure 409 {object} errorPayload
// @Router /samples [post]
func CreateSample(svc service.SampleService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var in service.SampleInput
		if err := c.BodyParser(&in); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
		}

		sample, err := svc.Create(c.UserContext(), in)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(sample)
	}
}

// GetSample godoc
// @Summary Get a sample
// @Tags samples
// @Produce json
// @Param id path string true "sample UUID"
// @Success 200 {object} model.Sample
// @Failure 400 {object} errorPayload
// @Failure 404 {object} errorPayload
// @Router /samples/{id} [get]
func GetSample(svc service.SampleService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sample, err := svc.Get(c.UserContext(), c.Params("id"))
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(sample)
	}
}

// UpdateSample godoc
// @Summary Replace a sample
// @Tags samples
// @Accept json
// @Produce json
// @Param id path string true "sample UUID"
// @Param sample body service.SampleInput true "sample"
// @Success 200 {object} model.Sample
// @Failure 400 {object} errorPayload
// @Failure 404 {object} errorPayload
// @Router /samples/{id} [put]
func UpdateSample(svc service.SampleService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var in service.SampleInput
		if err := c.BodyParser(&in); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
		}

		sample, err := svc.Update(c.UserContext(), c.Params("id"), in)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(sample)
	}
}

// DeleteSample godoc
// @Summary Delete a sample
// @Tags samples
// @Param id path string true "sample UUID"
// @Success 204
// @Failure 400 {object} errorPayload
// @Failure 404 {object} errorPayload
// @Router /samples/{id} [delete]
func DeleteSample(svc service.SampleService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := svc.Delete(c.UserContext(), c.Params("id")); err != nil {
			return writeServiceError(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// ExportSamples godoc
// @Summary Export samples
// @Description Writes every sample to object storage and returns a presigned download URL
// @Tags samples
// @Produce json
// @Success 201 {object} service.ExportResult
// @Failure 503 {object} errorPayload
// @Router /samples/export [post]
func ExportSamples(svc service.SampleService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		res, err := svc.Export(c.UserContext())
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(res)
	}
}
