package intent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

const (
	DefaultTimeout = 10 * time.Second
	// fallbackReply is returned when the model answers with neither a tool
	// call nor any text.
	fallbackReply = "I'm sorry, I couldn't understand that."
)

// Classifier turns free text into an intent label and a reply by forcing the
// model to call a single two-field tool.
type Classifier struct {
	client  *openai.Client
	spec    ToolSpec
	timeout time.Duration
	log     *zap.Logger
}

// NewClassifier creates a Classifier. A non-positive timeout means DefaultTimeout.
func NewClassifier(client *openai.Client, spec ToolSpec, timeout time.Duration, log *zap.Logger) *Classifier {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Classifier{client: client, spec: spec, timeout: timeout, log: log}
}

// Classify sends text as a single user message. Every failure is an *Error.
func (c *Classifier) Classify(ctx context.Context, text string) (Result, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	ctx, raw := withRawCapture(ctx)

	resp, err := c.client.CreateChatCompletion(ctx, c.request(text))
	if err != nil {
		c.log.Warn("intent call failed", zap.Error(err))
		switch {
		case isTransportError(err):
			return nil, upstreamError(err)
		case isDecodeError(err):
			return nil, parseError(err, raw.String())
		default:
			return nil, unexpectedError(err)
		}
	}

	res, perr := parseCompletion(resp)
	if perr != nil {
		c.log.Warn("intent response rejected", zap.String("detail", perr.Detail))
		return nil, perr
	}
	if _, ok := res.(PlainText); ok {
		c.log.Warn("model answered without the forced tool", zap.String("model", c.spec.Model))
	}
	c.log.Debug("intent classified", zap.Stringp("intent", res.Intent()))
	return res, nil
}

func (c *Classifier) request(text string) openai.ChatCompletionRequest {
	return openai.ChatCompletionRequest{
		Model:       c.spec.Model,
		Temperature: c.spec.Temperature,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: text},
		},
		Tools: []openai.Tool{{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        c.spec.Name,
				Description: c.spec.Description,
				Parameters:  c.spec.parameters(),
			},
		}},
		ToolChoice: openai.ToolChoice{
			Type:     openai.ToolTypeFunction,
			Function: openai.ToolFunction{Name: c.spec.Name},
		},
	}
}

type toolArguments struct {
	Intent   *string `json:"intent"`
	Response *string `json:"response"`
}

// parseCompletion picks the first choice. A tool call wins; without one the
// message content is used as a PlainText reply.
func parseCompletion(resp openai.ChatCompletionResponse) (Result, *Error) {
	if len(resp.Choices) == 0 {
		return nil, formatError()
	}
	msg := resp.Choices[0].Message
	if len(msg.ToolCalls) == 0 {
		content := msg.Content
		if strings.TrimSpace(content) == "" {
			content = fallbackReply
		}
		return PlainText{Content: content}, nil
	}

	raw := msg.ToolCalls[0].Function.Arguments
	var args toolArguments
	if err := json.Unmarshal([]byte(raw), &args); err != nil {
		return nil, parseError(err, raw)
	}
	switch {
	case args.Intent == nil:
		return nil, parseError(fmt.Errorf("tool arguments missing %q", "intent"), raw)
	case args.Response == nil:
		return nil, parseError(fmt.Errorf("tool arguments missing %q", "response"), raw)
	case strings.TrimSpace(*args.Response) == "":
		return nil, parseError(fmt.Errorf("tool arguments have an empty %q", "response"), raw)
	}
	return Structured{Label: *args.Intent, Text: *args.Response}, nil
}

func isDecodeError(err error) bool {
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	return errors.As(err, &syntaxErr) ||
		errors.As(err, &typeErr) ||
		errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, io.EOF)
}
