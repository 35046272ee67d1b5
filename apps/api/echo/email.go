package echoapi

import (
	"fmt"
	"net/http"
	"net/mail"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/elimu/core"
)

type adminEmailApi struct {
	deps ServerDeps
}

func registerAdminEmailAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := adminEmailApi{deps: deps}

	g.POST("/admin/emails/bulk", api.bulkSend, jwt, adminMiddleware())
}

// bulkSend fans one message out to all recipients. Delivery is best-effort
// and asynchronous; one audit row records the dispatch.
func (api *adminEmailApi) bulkSend(ctx echo.Context) error {
	var data BulkEmailRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to BulkEmailRequest")
	}
	if err := data.Validate(api.deps.Validate); err != nil {
		return err
	}

	subject := data.Subject
	if data.SenderName != "" {
		subject = fmt.Sprintf("%s (from %s)", data.Subject, data.SenderName)
	}

	// one message per recipient; they must not see each other
	msgs := make([]*core.EmailMessage, 0, len(data.Recipients))
	for _, rcpt := range data.Recipients {
		msgs = append(msgs, &core.EmailMessage{
			To:      []mail.Address{{Address: rcpt}},
			Subject: subject,
			BodyStr: data.Body,
		})
	}
	api.deps.MailSvc.SendMessages(msgs...)

	if _, err := api.deps.EmailAuditRepo.CreateEmailAudit(ctx.Request().Context(), core.EmailAudit{
		Kind:           core.EmailAuditKindBulk,
		Subject:        data.Subject,
		RecipientCount: len(data.Recipients),
		CreatedAt:      time.Now().UTC(),
	}); err != nil {
		// the send already went out; only log
		api.deps.Logger.Error(fmt.Sprintf("recording bulk email audit: %v", err), err)
	}

	return ctx.JSON(http.StatusOK, BulkEmailResponse{Success: true, RecipientCount: len(data.Recipients)})
}

type (
	BulkEmailRequest struct {
		Recipients []string `json:"recipients" validate:"required,min=1,dive,email"`
		Subject    string   `json:"subject" validate:"required"`
		Body       string   `json:"body" validate:"required"`
		SenderName string   `json:"sender_name"`
	}

	BulkEmailResponse struct {
		Success        bool `json:"success"`
		RecipientCount int  `json:"recipient_count"`
	}
)

func (br *BulkEmailRequest) Validate(validate *validator.Validate) error {
	br.Subject = core.CleanString(br.Subject)
	br.Body = core.CleanString(br.Body)
	br.SenderName = core.CleanString(br.SenderName)
	for i, rcpt := range br.Recipients {
		br.Recipients[i] = core.CleanString(rcpt, true /* lower */)
	}
	return validate.Struct(br)
}
