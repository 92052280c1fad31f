package http

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/coords/internal/core/domain"
)

// ProjectionView is a projection's metadata plus its current consent state.
type ProjectionView struct {
	domain.ProjectionInfo
	Selected bool `json:"selected"`
	Allowed  bool `json:"allowed"`
}

// LocationView is the current fix as exposed over the API.
type LocationView struct {
	State       string                `json:"state"`
	Point       *domain.GeodeticPoint `json:"point,omitempty"`
	LastUpdated string                `json:"last_updated,omitempty"`
	AgeSeconds  *int64                `json:"age_seconds,omitempty"`
}

func locationView(deps *Dependencies) LocationView {
	v := LocationView{State: deps.Session.State().String()}
	p, ok := deps.Session.Snapshot()
	if !ok {
		return v
	}
	v.Point = &p
	v.LastUpdated, _ = deps.Session.LastUpdated()
	age, _ := deps.Session.Age()
	secs := int64(age / time.Second)
	v.AgeSeconds = &secs
	return v
}

// ListProjectionsHandler returns every projection with its consent state.
func ListProjectionsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		selected := deps.Session.Projection()
		out := make([]ProjectionView, 0, len(domain.AllProjections()))
		for _, p := range domain.AllProjections() {
			allowed, err := deps.Consent.Allowed(c.UserContext(), p)
			if err != nil {
				return errDomain(c, err)
			}
			out = append(out, ProjectionView{ProjectionInfo: p.Info(), Selected: p == selected, Allowed: allowed})
		}
		return c.JSON(out)
	}
}

// GetProjectionHandler returns the selected projection.
func GetProjectionHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(deps.Session.Projection().Info())
	}
}

// SetProjectionHandler selects the displayed projection.
// Body: {"projection":"utm"}
func SetProjectionHandler(deps *Dependencies) fiber.Handler {
	type request struct {
		Projection string `json:"projection"`
	}
	return func(c *fiber.Ctx) error {
		var req request
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		p, err := domain.ParseProjection(req.Projection)
		if err != nil {
			return errDomain(c, err)
		}
		changed, err := deps.Session.SetProjection(p)
		if err != nil {
			return errDomain(c, err)
		}
		return c.JSON(fiber.Map{"projection": p.Info(), "changed": changed})
	}
}

// GrantConsentHandler records consent for a network projection.
func GrantConsentHandler(deps *Dependencies) fiber.Handler {
	return consentHandler(deps, true)
}

// RevokeConsentHandler withdraws consent for a network projection.
func RevokeConsentHandler(deps *Dependencies) fiber.Handler {
	return consentHandler(deps, false)
}

func consentHandler(deps *Dependencies, allow bool) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, err := domain.ParseProjection(c.Params("id"))
		if err != nil {
			return errNotFound(c, err.Error())
		}
		if !p.RequiresNetwork() {
			return errBadRequest(c, p.String()+" does not use the network")
		}

		if allow {
			err = deps.Consent.Grant(c.UserContext(), p)
		} else {
			err = deps.Consent.Revoke(c.UserContext(), p)
		}
		if err != nil {
			return errDomain(c, err)
		}
		return c.JSON(fiber.Map{"projection": p.String(), "allowed": allow})
	}
}

// IngestFixHandler accepts a raw fix from the positioning subsystem.
func IngestFixHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var fix domain.RawFix
		if err := c.BodyParser(&fix); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		update, err := deps.Readouts.IngestFix(c.UserContext(), fix)
		if err != nil {
			return errDomain(c, err)
		}
		return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
			"first":               update.First,
			"same_location":       update.SameLocation,
			"displacement_meters": update.DisplacementMeters,
		})
	}
}

// LocationHandler returns the current fix, its timestamp and age.
func LocationHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Set("Cache-Control", "no-store")
		return c.JSON(locationView(deps))
	}
}

// ReadoutHandler renders the current fix. The projection defaults to the
// session's selection.
func ReadoutHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		proj := deps.Session.Projection()
		if q := c.Query("projection"); q != "" {
			p, err := domain.ParseProjection(q)
			if err != nil {
				return errDomain(c, err)
			}
			proj = p
		}

		c.Set("Cache-Control", "no-store")
		r, err := deps.Readouts.Render(c.UserContext(), proj)
		if err != nil {
			return errDomain(c, err)
		}
		return c.JSON(r)
	}
}
