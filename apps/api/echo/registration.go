package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/elimu/core"
	"github.com/trezcool/elimu/core/registration"
)

type registrationApi struct {
	deps ServerDeps
}

func registerRegistrationAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := registrationApi{deps: deps}

	// un-authed signup
	g.POST("/register", api.signUp)

	// admin review endpoints
	rg := g.Group("/admin/registrations", jwt, adminMiddleware())
	rg.GET("", api.query)
	rg.GET("/:id", api.retrieve)
	rg.POST("/:id/approve", api.approve)
	rg.POST("/:id/reject", api.reject)
	rg.PUT("/:id/notes", api.updateNotes)
}

// Handlers

func (api *registrationApi) signUp(ctx echo.Context) error {
	var data registration.NewAccount
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewAccount")
	}
	if err := data.Validate(api.deps.Validate, api.deps.UserSvc); err != nil {
		return err
	}

	acct, err := api.deps.RegistrationSvc.SignUp(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "signing up")
	}
	return ctx.JSON(http.StatusCreated, acct)
}

func (api *registrationApi) query(ctx echo.Context) error {
	filter := new(registration.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []registration.Registration{})
	}
	ordering := new(Ordering)
	ordering.Bind(ctx)

	regs, err := api.deps.RegistrationSvc.Query(ctx.Request().Context(), filter, ordering.Orderings)
	if err != nil {
		return errors.Wrap(err, "querying registrations")
	}
	if regs == nil {
		regs = []registration.Registration{}
	}
	return ctx.JSON(http.StatusOK, regs)
}

func (api *registrationApi) retrieve(ctx echo.Context) error {
	reg, err := api.deps.RegistrationSvc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		if errors.Cause(err) == registration.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "finding registration by ID")
	}
	return ctx.JSON(http.StatusOK, reg)
}

func (api *registrationApi) approve(ctx echo.Context) error {
	var data registration.ApproveRegistration
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ApproveRegistration")
	}
	if err := data.Validate(api.deps.Validate); err != nil {
		return err
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	reg, err := api.deps.RegistrationSvc.Approve(ctx.Request().Context(), claims.Subject, ctx.Param("id"), data)
	if err != nil {
		return wrapDecisionErr(err, "approving registration")
	}
	return ctx.JSON(http.StatusOK, reg)
}

func (api *registrationApi) reject(ctx echo.Context) error {
	var data registration.RejectRegistration
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to RejectRegistration")
	}
	if err := data.Validate(api.deps.Validate); err != nil {
		return err
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	reg, err := api.deps.RegistrationSvc.Reject(ctx.Request().Context(), claims.Subject, ctx.Param("id"), data)
	if err != nil {
		return wrapDecisionErr(err, "rejecting registration")
	}
	return ctx.JSON(http.StatusOK, reg)
}

func (api *registrationApi) updateNotes(ctx echo.Context) error {
	var data UpdateNotesRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateNotesRequest")
	}

	reg, err := api.deps.RegistrationSvc.UpdateNotes(ctx.Request().Context(), ctx.Param("id"), core.CleanString(data.Notes))
	if err != nil {
		if errors.Cause(err) == registration.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "updating registration notes")
	}
	return ctx.JSON(http.StatusOK, reg)
}

func wrapDecisionErr(err error, msg string) error {
	switch errors.Cause(err) {
	case registration.ErrNotFound:
		return errHttpNotFound
	case registration.ErrAlreadyDecided:
		return echo.NewHTTPError(http.StatusConflict, registration.ErrAlreadyDecided.Error())
	}
	return errors.Wrap(err, msg)
}

type UpdateNotesRequest struct {
	Notes string `json:"notes"`
}
