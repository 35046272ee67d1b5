package assistsvc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/trezcool/elimu/core"
)

var (
	ErrNotConfigured = errors.New("assist service not configured")
	ErrUpstream      = errors.New("assist upstream error")
)

// systemPrompt frames every conversation before it is forwarded upstream. It
// is fixed server-side so clients cannot override it.
const systemPrompt = "You are the study assistant of a school portal. You help learners and " +
	"teachers with how to use the site and with guidance on school subjects. " +
	"You are a study guide, not an answer key: explain methods and point to " +
	"resources, but never hand out complete answers to homework, assignments or exams."

type (
	Message struct {
		Role    string `json:"role" validate:"required,oneof=user assistant"`
		Content string `json:"content" validate:"required"`
	}

	ChatRequest struct {
		Messages []Message `json:"messages" validate:"required,min=1,dive"`
	}

	ChatResponse struct {
		Content string `json:"content"`
	}

	// upstream chat-completion wire types
	upstreamRequest struct {
		Messages []Message `json:"messages"`
	}
	upstreamResponse struct {
		Choices []struct {
			Message Message `json:"message"`
		} `json:"choices"`
		Error *struct {
			Message string `json:"message"`
		} `json:"error,omitempty"`
	}

	ServiceInterface interface {
		Chat(ctx context.Context, req ChatRequest) (ChatResponse, error)
	}

	client struct {
		url    string
		apiKey string
		http   *http.Client
		logger core.Logger
	}
)

var _ ServiceInterface = (*client)(nil)

func NewClient(conf *core.Config, logger core.Logger) ServiceInterface {
	return &client{
		url:    conf.Assist.URL,
		apiKey: conf.Assist.APIKey,
		http:   &http.Client{Timeout: conf.Assist.Timeout},
		logger: logger,
	}
}

// Chat prepends the fixed system prompt and forwards the conversation to the
// configured chat-completion endpoint.
func (c *client) Chat(ctx context.Context, req ChatRequest) (ChatResponse, error) {
	if c.url == "" {
		return ChatResponse{}, ErrNotConfigured
	}

	msgs := make([]Message, 0, len(req.Messages)+1)
	msgs = append(msgs, Message{Role: "system", Content: systemPrompt})
	msgs = append(msgs, req.Messages...)

	body, err := json.Marshal(upstreamRequest{Messages: msgs})
	if err != nil {
		return ChatResponse{}, errors.Wrap(err, "marshaling assist request")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return ChatResponse{}, errors.Wrap(err, "creating assist request")
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	res, err := c.http.Do(httpReq)
	if err != nil {
		return ChatResponse{}, errors.Wrap(err, "calling assist upstream")
	}
	defer res.Body.Close()

	var upRes upstreamResponse
	if err := json.NewDecoder(res.Body).Decode(&upRes); err != nil {
		return ChatResponse{}, errors.Wrap(err, "decoding assist response")
	}

	if res.StatusCode >= http.StatusBadRequest || upRes.Error != nil {
		msg := "unexpected status " + res.Status
		if upRes.Error != nil {
			msg = upRes.Error.Message
		}
		c.logger.Error(fmt.Sprintf("assist upstream: %s", msg))
		return ChatResponse{}, ErrUpstream
	}
	if len(upRes.Choices) == 0 {
		return ChatResponse{}, ErrUpstream
	}
	return ChatResponse{Content: upRes.Choices[0].Message.Content}, nil
}

func (req *ChatRequest) Validate(validate *validator.Validate) error {
	return validate.Struct(req)
}
