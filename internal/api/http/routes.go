package httpapi

import (
	"errors"
	"net/url"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/xyzmos/hass-weather-baidu/internal/baidu"
	"github.com/xyzmos/hass-weather-baidu/internal/entry"
	"github.com/xyzmos/hass-weather-baidu/internal/setup"
	"github.com/xyzmos/hass-weather-baidu/internal/weather"
)

var validate = validator.New()

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, svc *setup.Service) {
	v1 := app.Group("/api/v1")

	v1.Post("/setup/validate", func(c *fiber.Ctx) error {
		var req validateKeyRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if err := validate.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		valid, err := svc.ValidateKey(c.Context(), req.AK)
		if err != nil {
			return mapServiceError(err)
		}
		return c.JSON(fiber.Map{"valid": valid})
	})

	v1.Get("/districts/provinces", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"provinces": svc.Provinces()})
	})

	v1.Get("/districts/provinces/:province/cities", func(c *fiber.Ctx) error {
		province := pathParam(c, "province")
		cities := svc.Cities(province)
		if len(cities) == 0 {
			return fiber.NewError(fiber.StatusNotFound, "unknown province")
		}
		return c.JSON(fiber.Map{"cities": cities})
	})

	v1.Get("/districts/provinces/:province/cities/:city/districts", func(c *fiber.Ctx) error {
		province := pathParam(c, "province")
		city := pathParam(c, "city")
		districts := svc.Districts(province, city)
		if len(districts) == 0 {
			return fiber.NewError(fiber.StatusNotFound, "unknown city")
		}
		return c.JSON(fiber.Map{"districts": districts})
	})

	v1.Get("/zones", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"zones": svc.Zones()})
	})

	v1.Post("/entries", func(c *fiber.Ctx) error {
		var req createEntryRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if err := validate.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		var (
			e   entry.Entry
			err error
		)
		if req.Mode == string(entry.ModeDistrict) {
			e, err = svc.CreateDistrict(c.Context(), setup.DistrictRequest{
				AK:              req.AK,
				Province:        req.Province,
				City:            req.City,
				District:        req.District,
				IntervalSeconds: req.IntervalSeconds,
			})
		} else {
			e, err = svc.CreateLocation(c.Context(), setup.LocationRequest{
				AK:              req.AK,
				Zone:            req.Zone,
				Name:            req.Name,
				Latitude:        req.Latitude,
				Longitude:       req.Longitude,
				IntervalSeconds: req.IntervalSeconds,
			})
		}
		if err != nil {
			return mapServiceError(err)
		}
		return c.Status(fiber.StatusCreated).JSON(e)
	})

	v1.Get("/entries", func(c *fiber.Ctx) error {
		entries, err := svc.Entries()
		if err != nil {
			return mapServiceError(err)
		}
		return c.JSON(fiber.Map{"entries": entries})
	})

	v1.Get("/entries/:id", func(c *fiber.Ctx) error {
		e, err := svc.Entry(c.Params("id"))
		if err != nil {
			return mapServiceError(err)
		}
		return c.JSON(e)
	})

	v1.Patch("/entries/:id/options", func(c *fiber.Ctx) error {
		var req optionsRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if err := validate.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if err := svc.UpdateInterval(c.Params("id"), req.IntervalSeconds); err != nil {
			return mapServiceError(err)
		}
		return c.JSON(fiber.Map{"interval_seconds": req.IntervalSeconds})
	})

	v1.Delete("/entries/:id", func(c *fiber.Ctx) error {
		if err := svc.Delete(c.Params("id")); err != nil {
			return mapServiceError(err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	})

	v1.Get("/entries/:id/weather", func(c *fiber.Ctx) error {
		snap, available, err := snapshotOf(svc, c.Params("id"))
		if err != nil {
			return err
		}
		return c.JSON(weather.BuildWeatherView(snap, available))
	})

	v1.Get("/entries/:id/forecast/daily", func(c *fiber.Ctx) error {
		snap, available, err := snapshotOf(svc, c.Params("id"))
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{
			"available": available,
			"forecast":  weather.BuildDailyForecast(snap),
		})
	})

	v1.Get("/entries/:id/forecast/hourly", func(c *fiber.Ctx) error {
		snap, available, err := snapshotOf(svc, c.Params("id"))
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{
			"available": available,
			"forecast":  weather.BuildHourlyForecast(snap),
		})
	})

	v1.Get("/entries/:id/sensors/alert", func(c *fiber.Ctx) error {
		snap, available, err := snapshotOf(svc, c.Params("id"))
		if err != nil {
			return err
		}
		return c.JSON(weather.BuildAlertView(snap, available))
	})

	v1.Get("/entries/:id/sensors/aqi", func(c *fiber.Ctx) error {
		snap, available, err := snapshotOf(svc, c.Params("id"))
		if err != nil {
			return err
		}
		return c.JSON(weather.BuildAirQualityView(snap, available))
	})

	v1.Get("/entries/:id/sensors/forecast/:day", func(c *fiber.Ctx) error {
		day, err := strconv.Atoi(c.Params("day"))
		if err != nil || day < 0 || day >= weather.ForecastDays {
			return fiber.NewError(fiber.StatusBadRequest, "day must be between 0 and 4")
		}
		snap, available, ferr := snapshotOf(svc, c.Params("id"))
		if ferr != nil {
			return ferr
		}
		return c.JSON(weather.BuildDayForecastView(snap, available, day))
	})

	v1.Get("/entries/:id/diagnostics", func(c *fiber.Ctx) error {
		diag, err := svc.Diagnostics(c.Params("id"))
		if err != nil {
			return mapServiceError(err)
		}
		return c.JSON(diag)
	})
}

// validateKeyRequest is the first wizard step: credential plus mode.
type validateKeyRequest struct {
	AK   string `json:"ak" validate:"required"`
	Mode string `json:"mode" validate:"required,oneof=district location"`
}

// createEntryRequest carries both wizard branches; Mode selects which
// fields apply.
type createEntryRequest struct {
	AK   string `json:"ak" validate:"required"`
	Mode string `json:"mode" validate:"required,oneof=district location"`

	Province string `json:"province" validate:"required_if=Mode district"`
	City     string `json:"city" validate:"required_if=Mode district"`
	District string `json:"district" validate:"required_if=Mode district"`

	Zone      string   `json:"zone"`
	Name      string   `json:"name"`
	Latitude  *float64 `json:"latitude" validate:"omitempty,gte=-90,lte=90"`
	Longitude *float64 `json:"longitude" validate:"omitempty,gte=-180,lte=180"`

	IntervalSeconds int `json:"interval_seconds" validate:"omitempty,gte=300,lte=7200"`
}

// optionsRequest is the post-setup options flow: interval only.
type optionsRequest struct {
	IntervalSeconds int `json:"interval_seconds" validate:"required,gte=300,lte=7200"`
}

func snapshotOf(svc *setup.Service, id string) (*weather.Snapshot, bool, error) {
	if _, err := svc.Entry(id); err != nil {
		return nil, false, mapServiceError(err)
	}
	coord, ok := svc.Coordinator(id)
	if !ok {
		return nil, false, fiber.NewError(fiber.StatusNotFound, "no running coordinator for entry")
	}
	snap, available := coord.Snapshot()
	return snap, available, nil
}

// mapServiceError translates the error taxonomy into HTTP statuses:
// auth failures are permanent (401), connectivity and not-ready are
// transient (502/503), everything the caller can fix is 4xx.
func mapServiceError(err error) error {
	switch {
	case errors.Is(err, entry.ErrNotFound):
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	case errors.Is(err, entry.ErrDuplicate):
		return fiber.NewError(fiber.StatusConflict, err.Error())
	case errors.Is(err, setup.ErrUnknownDistrict), errors.Is(err, setup.ErrInvalidLocation):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	case errors.Is(err, setup.ErrInvalidKey), baidu.IsAuthError(err):
		return fiber.NewError(fiber.StatusUnauthorized, err.Error())
	case errors.Is(err, setup.ErrNotReady):
		return fiber.NewError(fiber.StatusServiceUnavailable, err.Error())
	}

	var connErr *baidu.ConnError
	if errors.As(err, &connErr) {
		return fiber.NewError(fiber.StatusBadGateway, err.Error())
	}
	var apiErr *baidu.APIError
	if errors.As(err, &apiErr) {
		return fiber.NewError(fiber.StatusBadGateway, err.Error())
	}
	return fiber.NewError(fiber.StatusInternalServerError, err.Error())
}

// pathParam decodes a percent-encoded path segment (region names are
// non-ASCII).
func pathParam(c *fiber.Ctx, name string) string {
	raw := c.Params(name)
	if decoded, err := url.PathUnescape(raw); err == nil {
		return decoded
	}
	return raw
}
