// Package ner recognizes person and place names in document text with a chat
// completion model. It backs the optional entity-recognition capability.
package ner

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/sashabaranov/go-openai"

	"github.com/joseph-ayodele/idextract/internal/extract"
)

// ChatClient is the part of the OpenAI client the recognizer uses.
type ChatClient interface {
	CreateChatCompletion(ctx context.Context, request openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

type adapter struct {
	client *openai.Client
}

// NewAdapter wraps an OpenAI client.
func NewAdapter(client *openai.Client) ChatClient {
	return &adapter{client: client}
}

func (a *adapter) CreateChatCompletion(ctx context.Context, request openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	return a.client.CreateChatCompletion(ctx, request)
}

// GetCompletionContent extracts the content from the first choice.
func GetCompletionContent(response openai.ChatCompletionResponse) (string, error) {
	if len(response.Choices) == 0 {
		return "", errors.New("no choices in response")
	}
	return response.Choices[0].Message.Content, nil
}

// Client implements extract.EntityRecognizer.
type Client struct {
	cfg    Config
	chat   ChatClient
	logger *slog.Logger
}

var _ extract.EntityRecognizer = (*Client)(nil)

// Recognize asks the model for the holder's names and birth place.
func (c *Client) Recognize(ctx context.Context, text string) (extract.Entities, error) {
	rid := uuid.New().String()
	start := time.Now()

	c.logger.Info("ner.recognize.start",
		"req_id", rid,
		"model", c.cfg.Model,
		"temp", c.cfg.Temperature,
		"text_len", len(text),
	)

	req := openai.ChatCompletionRequest{
		Model:       c.cfg.Model,
		Temperature: c.cfg.Temperature,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt()},
			{Role: openai.ChatMessageRoleUser, Content: userPrompt(text, c.cfg.MaxChars)},
		},
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(c.cfg.RetryInterval), uint64(c.cfg.MaxRetries)),
		ctx,
	)
	attempt := 0
	content, err := backoff.RetryWithData(func() (string, error) {
		attempt++
		resp, err := c.chat.CreateChatCompletion(ctx, req)
		if err != nil {
			if !retryable(err) {
				return "", backoff.Permanent(err)
			}
			c.logger.Warn("ner.recognize.retry", "req_id", rid, "attempt", attempt, "error", err)
			return "", err
		}
		content, err := GetCompletionContent(resp)
		if err != nil {
			return "", backoff.Permanent(err)
		}
		return content, nil
	}, policy)
	if err != nil {
		c.logger.Error("ner.recognize.http_error",
			"req_id", rid, "error", err, "attempts", attempt,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return extract.Entities{}, fmt.Errorf("chat completion: %w", err)
	}

	doc, dropped, err := SanitizeEntitiesJSON(content)
	if err != nil {
		c.logger.Error("ner.recognize.decode_error",
			"req_id", rid, "error", err, "content_len", len(content),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return extract.Entities{}, err
	}
	if len(dropped) > 0 {
		c.logger.Warn("ner.recognize.lenient_sanitize_applied", "req_id", rid, "dropped", dropped)
	}
	if err := ValidateEntitiesJSON(doc); err != nil {
		c.logger.Error("ner.recognize.schema_validation_failed",
			"req_id", rid, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return extract.Entities{}, err
	}

	var out entitiesJSON
	if err := json.Unmarshal(doc, &out); err != nil {
		return extract.Entities{}, fmt.Errorf("unmarshal entities: %w", err)
	}

	c.logger.Info("ner.recognize.ok",
		"req_id", rid,
		"has_last_name", out.LastName != "",
		"has_first_name", out.FirstName != "",
		"has_birth_place", out.BirthPlace != "",
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return extract.Entities{
		LastName:   out.LastName,
		FirstName:  out.FirstName,
		BirthPlace: out.BirthPlace,
		Model:      c.cfg.Model,
	}, nil
}

// retryable reports whether a failed call may succeed when repeated: rate
// limits, server errors, and transport failures.
func retryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode == http.StatusTooManyRequests || apiErr.HTTPStatusCode >= 500
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode == http.StatusTooManyRequests || reqErr.HTTPStatusCode >= 500
	}
	return true
}
