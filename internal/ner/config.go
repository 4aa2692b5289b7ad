package ner

import (
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/sashabaranov/go-openai"
)

// Config for the OpenAI-backed recognizer.
type Config struct {
	APIKey        string        // if empty, falls back to env OPENAI_API_KEY
	BaseURL       string        // default https://api.openai.com/v1
	Model         string        // e.g., "gpt-4o-mini"
	Temperature   float32       // 0..2
	Timeout       time.Duration // per attempt
	MaxRetries    int
	RetryInterval time.Duration
	MaxChars      int // OCR text sent to the model is cut to this many bytes
}

func (c *Config) setDefaults() {
	if c.APIKey == "" {
		c.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	if c.BaseURL == "" {
		c.BaseURL = "https://api.openai.com/v1"
	}
	if c.Model == "" {
		c.Model = "gpt-4o-mini"
	}
	if c.Timeout <= 0 {
		c.Timeout = 30 * time.Second
	}
	if c.MaxRetries < 0 {
		c.MaxRetries = 0
	}
	if c.RetryInterval <= 0 {
		c.RetryInterval = time.Second
	}
	if c.MaxChars <= 0 {
		c.MaxChars = 3000
	}
}

// NewClient builds a recognizer talking to the OpenAI chat completions API.
func NewClient(cfg Config, logger *slog.Logger) *Client {
	cfg.setDefaults()
	oc := openai.DefaultConfig(cfg.APIKey)
	oc.BaseURL = cfg.BaseURL
	oc.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	return NewClientWithChat(cfg, NewAdapter(openai.NewClientWithConfig(oc)), logger)
}

// NewClientWithChat builds a recognizer on an existing chat client.
func NewClientWithChat(cfg Config, chat ChatClient, logger *slog.Logger) *Client {
	cfg.setDefaults()
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{cfg: cfg, chat: chat, logger: logger}
}
