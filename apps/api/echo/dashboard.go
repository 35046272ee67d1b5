package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/elimu/core/profile"
	"github.com/trezcool/elimu/core/registration"
	"github.com/trezcool/elimu/core/user"
)

type dashboardApi struct {
	deps ServerDeps
}

func registerDashboardAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := dashboardApi{deps: deps}

	dg := g.Group("/dashboard", jwt)
	dg.GET("/:slug", api.dashboard)
}

// dashboard gates the requested dashboard route. A request for a dashboard
// the user does not belong on is redirected (307) to their canonical one;
// the pending dashboard is the only route open to unapproved accounts.
func (api *dashboardApi) dashboard(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	route := registration.DashboardPrefix + ctx.Param("slug")
	snap := api.deps.Resolver.FetchUserData(ctx.Request().Context(), claims.Subject)

	decision := registration.Decide(true, snap, route)
	if !decision.Allowed {
		return ctx.Redirect(http.StatusTemporaryRedirect, decision.RedirectTo)
	}

	return ctx.JSON(http.StatusOK, DashboardResponse{
		State:   string(decision.State),
		Route:   route,
		Role:    snap.Role,
		Profile: snap.Profile,
	})
}

type DashboardResponse struct {
	State   string           `json:"state"`
	Route   string           `json:"route"`
	Role    *user.Role       `json:"role"`
	Profile *profile.Profile `json:"profile"`
}
