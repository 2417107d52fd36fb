package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/koscakluka/ema-relay/core/llms"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// Prompt sends a single, non-streaming request to the Responses API and
// returns the assistant's text.
func Prompt(
	ctx context.Context,
	httpClient *http.Client,
	url string,
	apiKey string,
	model string,
	maxTokens int,
	prompt string,
	options llms.PromptOptions,
) (_ *llms.Response, err error) {
	ctx, span := tracer.Start(ctx, "prompt llm")
	defer span.End()
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
	}()
	span.SetAttributes(
		attribute.String("request.model", model),
		attribute.Int("request.history_turns", len(options.Turns)),
	)

	messages, err := toOpenAIMessages(options.Instructions, options.Turns)
	if err != nil {
		return nil, err
	}
	messages = append(messages, openAIMessage{
		Type:    messageTypeMessage,
		Role:    messageRoleUser,
		Content: prompt,
	})

	reqBody := requestBody{
		Model:           model,
		Input:           messages,
		Stream:          false,
		MaxOutputTokens: maxTokens,
	}

	requestBodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("error marshalling JSON: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(requestBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("error creating HTTP request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+apiKey)

	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error sending request: %w", err)
	}
	defer resp.Body.Close()

	span.SetAttributes(attribute.Int("response.status_code", resp.StatusCode))
	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("error reading response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("non-OK HTTP status: %s: %s", resp.Status, strings.TrimSpace(string(bodyBytes)))
	}

	var responseBody generalResponseBody
	if err := json.Unmarshal(bodyBytes, &responseBody); err != nil {
		return nil, fmt.Errorf("error unmarshalling response body: %w", err)
	}

	content, err := outputText(responseBody)
	if err != nil {
		return nil, err
	}

	return &llms.Response{Content: content}, nil
}

func outputText(responseBody generalResponseBody) (string, error) {
	var text strings.Builder
	found := false
	for _, output := range responseBody.Output {
		if output.Type != generalResponseBodyOutputTypeMessage {
			continue
		}

		for _, content := range output.Content {
			switch content.Type {
			case "output_text":
				text.WriteString(content.Text)
				found = true
			case "refusal":
				text.WriteString(content.Refusal)
				found = true
			}
		}
	}

	if !found {
		return "", fmt.Errorf("response contained no output text")
	}
	return text.String(), nil
}

type requestBody struct {
	Model           string          `json:"model"`
	Input           []openAIMessage `json:"input"`
	Stream          bool            `json:"stream"`
	MaxOutputTokens int             `json:"max_output_tokens,omitempty"`
}

type generalResponseBody struct {
	Output []generalResponseBodyOutput `json:"output"`
}

type generalResponseBodyOutput struct {
	// Type is the type of the output item.
	Type generalResponseBodyOutputTypeType `json:"type"`
	// ID is the unique ID of the output item.
	ID string `json:"id"`
	// Content is the content of an output message, empty for other types.
	Content []generalResponseBodyOutputMessageContent `json:"content,omitempty"`
}

// generalResponseBodyOutputMessageContent is either text output from the
// model ('output_text') or a refusal ('refusal').
type generalResponseBodyOutputMessageContent struct {
	Type    string `json:"type"`
	Text    string `json:"text,omitempty"`
	Refusal string `json:"refusal,omitempty"`
}

type generalResponseBodyOutputTypeType string

const (
	generalResponseBodyOutputTypeMessage generalResponseBodyOutputTypeType = "message"
)
