package groq

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/koscakluka/ema-relay/core/llms"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const (
	defaultURL   = "https://api.groq.com/openai/v1/chat/completions"
	defaultModel = "llama-3.1-8b-instant"
)

// Client generates replies with Groq's OpenAI compatible chat completions
// endpoint.
type Client struct {
	apiKey string
	model  string
	url    string

	includeHistory bool
	instructions   string
	maxTokens      int

	httpClient *http.Client
}

type ClientOption func(*Client)

func WithAPIKey(apiKey string) ClientOption {
	return func(c *Client) { c.apiKey = apiKey }
}

func WithModel(model string) ClientOption {
	return func(c *Client) {
		if model != "" {
			c.model = model
		}
	}
}

func WithURL(url string) ClientOption {
	return func(c *Client) { c.url = url }
}

// WithHistory makes the client send prior turns passed with llms.WithTurns.
func WithHistory(includeHistory bool) ClientOption {
	return func(c *Client) { c.includeHistory = includeHistory }
}

func WithInstructions(instructions string) ClientOption {
	return func(c *Client) { c.instructions = instructions }
}

func WithMaxTokens(maxTokens int) ClientOption {
	return func(c *Client) { c.maxTokens = maxTokens }
}

func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		if httpClient != nil {
			c.httpClient = httpClient
		}
	}
}

func NewClient(opts ...ClientOption) (*Client, error) {
	client := &Client{
		model:      defaultModel,
		url:        defaultURL,
		maxTokens:  1024,
		httpClient: &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)},
	}
	for _, opt := range opts {
		opt(client)
	}

	if client.apiKey == "" {
		apiKey, ok := os.LookupEnv("GROQ_API_KEY")
		if !ok || apiKey == "" {
			return nil, fmt.Errorf("groq api key not found")
		}
		client.apiKey = apiKey
	}

	return client, nil
}

func (c *Client) Prompt(ctx context.Context, prompt string, opts ...llms.PromptOption) (*llms.Response, error) {
	options := llms.NewPromptOptions(append([]llms.PromptOption{llms.WithInstructions(c.instructions)}, opts...)...)
	if !c.includeHistory {
		options.Turns = nil
	}

	return Prompt(ctx, c.httpClient, c.url, c.apiKey, c.model, c.maxTokens, prompt, options)
}
