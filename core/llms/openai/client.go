package openai

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/koscakluka/ema-relay/core/llms"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const (
	defaultURL   = "https://api.openai.com/v1/responses"
	defaultModel = "gpt-4o-mini"
)

// Client generates replies with the OpenAI Responses API.
type Client struct {
	apiKey string
	model  string
	url    string

	// includeHistory controls whether prior turns passed with
	// llms.WithTurns are sent to the model.
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

func WithHistory(includeHistory bool) ClientOption {
	return func(c *Client) { c.includeHistory = includeHistory }
}

// WithInstructions sets the system prompt used when the prompt call does not
// provide one.
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
		model:     defaultModel,
		url:       defaultURL,
		maxTokens: 1024,
		httpClient: &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport,
			otelhttp.WithSpanNameFormatter(func(operationName string, request *http.Request) string {
				return operationName + " " + request.URL.Path
			}),
		)},
	}
	for _, opt := range opts {
		opt(client)
	}

	if client.apiKey == "" {
		apiKey, ok := os.LookupEnv("OPENAI_API_KEY")
		if !ok || apiKey == "" {
			return nil, fmt.Errorf("openai api key not found")
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
