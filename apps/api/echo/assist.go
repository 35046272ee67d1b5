package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	assistsvc "github.com/trezcool/elimu/services/assist"
)

type assistApi struct {
	deps ServerDeps
}

func registerAssistAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := assistApi{deps: deps}

	g.POST("/assist/chat", api.chat, jwt)
}

// chat proxies the conversation to the configured chat-completion endpoint.
// The system prompt is fixed server-side.
func (api *assistApi) chat(ctx echo.Context) error {
	var data assistsvc.ChatRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ChatRequest")
	}
	if err := data.Validate(api.deps.Validate); err != nil {
		return err
	}

	res, err := api.deps.AssistSvc.Chat(ctx.Request().Context(), data)
	if err != nil {
		switch errors.Cause(err) {
		case assistsvc.ErrNotConfigured:
			return echo.NewHTTPError(http.StatusServiceUnavailable, assistsvc.ErrNotConfigured.Error())
		case assistsvc.ErrUpstream:
			return echo.NewHTTPError(http.StatusBadGateway, assistsvc.ErrUpstream.Error())
		}
		return errors.Wrap(err, "proxying assist chat")
	}
	return ctx.JSON(http.StatusOK, res)
}
