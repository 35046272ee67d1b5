package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/elimu/core/notification"
	"github.com/trezcool/elimu/core/user"
)

type notificationApi struct {
	deps ServerDeps
}

func registerNotificationAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := notificationApi{deps: deps}

	ng := g.Group("/notifications", jwt)
	ng.GET("", api.feed)
	ng.GET("/unread-count", api.unreadCount)
	ng.POST("/:id/read", api.markRead)

	// admin broadcast
	g.POST("/admin/announcements", api.announce, jwt, adminMiddleware())
}

// Handlers

// feed merges announcements visible to the user's role with the user's own
// notifications, newest first.
func (api *notificationApi) feed(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	items, err := api.deps.NotificationSvc.Feed(ctx.Request().Context(), claims.Subject, user.Role(claims.Role))
	if err != nil {
		return errors.Wrap(err, "fetching feed")
	}
	if items == nil {
		items = []notification.FeedItem{}
	}
	return ctx.JSON(http.StatusOK, items)
}

func (api *notificationApi) unreadCount(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	count, err := api.deps.NotificationSvc.UnreadCount(ctx.Request().Context(), claims.Subject)
	if err != nil {
		return errors.Wrap(err, "counting unread notifications")
	}
	return ctx.JSON(http.StatusOK, UnreadCountResponse{Count: count})
}

// markRead is best-effort by contract: it always returns 204, failures are
// logged server-side and the true state is reconciled on the next fetch.
func (api *notificationApi) markRead(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	api.deps.NotificationSvc.MarkRead(ctx.Request().Context(), claims.Subject, ctx.Param("id"))
	return ctx.NoContent(http.StatusNoContent)
}

func (api *notificationApi) announce(ctx echo.Context) error {
	var data notification.NewAnnouncement
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewAnnouncement")
	}
	if err := data.Validate(api.deps.Validate); err != nil {
		return err
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	ann, err := api.deps.NotificationSvc.Announce(ctx.Request().Context(), claims.Subject, data)
	if err != nil {
		return errors.Wrap(err, "creating announcement")
	}
	return ctx.JSON(http.StatusCreated, ann)
}

type UnreadCountResponse struct {
	Count int `json:"count"`
}
