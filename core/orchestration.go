package orchestration

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/koscakluka/ema-relay/core/conversations"
	"github.com/koscakluka/ema-relay/core/events"
	"github.com/koscakluka/ema-relay/core/llms"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	DefaultFallbackReply = "I'm sorry, I couldn't process that request."

	defaultTranscriptionTimeout = 30 * time.Second
	defaultGenerationTimeout    = 30 * time.Second
)

// Orchestrator turns inbound events into replies and keeps each room's
// conversation history. It is safe for concurrent use; events for the same
// room may be handled concurrently and their turn pairs are appended in the
// order the events complete.
type Orchestrator struct {
	store *conversations.Store

	speechToText  speechToText
	llm           llm
	fallbackReply string

	logger *slog.Logger
}

func NewOrchestrator(opts ...OrchestratorOption) *Orchestrator {
	o := &Orchestrator{
		store:         conversations.NewStore(),
		speechToText:  newSpeechToText(nil),
		llm:           newLLM(nil),
		fallbackReply: DefaultFallbackReply,
		logger:        logger,
	}

	for _, opt := range opts {
		opt(o)
	}

	return o
}

// Store returns the conversation store the orchestrator appends to.
func (o *Orchestrator) Store() *conversations.Store { return o.store }

// Reply is the outcome of a successfully handled event.
type Reply struct {
	UserText      string
	AssistantText string
}

// Handle runs one event through transcription (speech only) and response
// generation, records the resulting turn pair and returns it.
//
// Speech that fails to transcribe or transcribes to nothing returns
// ErrSpeechBackend or ErrAudioUnintelligible and leaves the history as it
// was. Generation failures are not returned; the fallback reply is recorded
// and returned instead. If ctx ends before a reply is generated, ctx's error
// is returned and nothing is recorded.
func (o *Orchestrator) Handle(ctx context.Context, event events.Event) (reply Reply, err error) {
	ctx, span := tracer.Start(ctx, "handle event")
	defer span.End()
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
	}()

	if err := validate(event); err != nil {
		return Reply{}, err
	}

	room := event.Room()
	span.SetAttributes(
		attribute.String("event.kind", string(event.Kind())),
		attribute.String("event.room", room),
	)
	log := o.logger.With("room", room, "kind", string(event.Kind()))

	history := o.store.GetOrCreate(room)

	var userText string
	switch event := event.(type) {
	case events.SpeechEvent:
		transcript, err := o.transcribe(ctx, event.Audio)
		if err != nil {
			log.WarnContext(ctx, "Failed to transcribe speech", "error", err)
			return Reply{}, err
		}
		if strings.TrimSpace(transcript) == "" {
			log.InfoContext(ctx, "Speech transcribed to an empty transcript")
			return Reply{}, ErrAudioUnintelligible
		}
		userText = transcript

	case events.TextEvent:
		userText = event.Text
	}

	assistantText, err := o.generate(ctx, userText, history)
	if err != nil && ctx.Err() != nil {
		// The caller went away; nothing failed on the backend side.
		log.InfoContext(ctx, "Event abandoned before a reply was generated", "error", ctx.Err())
		return Reply{}, fmt.Errorf("event abandoned: %w", ctx.Err())
	}
	if err != nil {
		log.WarnContext(ctx, "Failed to generate reply, using fallback", "error", err)
		assistantText = o.fallbackReply
	}

	o.appendTurns(ctx, history, userText, assistantText)

	return Reply{UserText: userText, AssistantText: assistantText}, nil
}

func validate(event events.Event) error {
	if event == nil {
		return fmt.Errorf("%w: nil event", ErrMalformedEvent)
	}

	switch event := event.(type) {
	case events.SpeechEvent:
		if len(event.Audio) == 0 {
			return fmt.Errorf("%w: speech event without audio", ErrMalformedEvent)
		}
	case events.TextEvent:
	default:
		return fmt.Errorf("%w: unknown event type %T", ErrMalformedEvent, event)
	}

	if event.Room() == "" {
		return fmt.Errorf("%w: missing room", ErrMalformedEvent)
	}

	return nil
}

func (o *Orchestrator) transcribe(ctx context.Context, audio []byte) (string, error) {
	ctx, span := tracer.Start(ctx, "transcribe speech")
	defer span.End()
	span.SetAttributes(attribute.Int("request.audio_bytes", len(audio)))

	transcript, err := o.speechToText.transcribe(ctx, audio)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}

	return transcript, nil
}

func (o *Orchestrator) generate(ctx context.Context, prompt string, history conversations.HistoryView) (string, error) {
	ctx, span := tracer.Start(ctx, "generate reply")
	defer span.End()

	response, err := o.llm.generate(ctx, prompt, history)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}

	return response, nil
}

func (o *Orchestrator) appendTurns(ctx context.Context, history *conversations.History, userText, assistantText string) {
	_, span := tracer.Start(ctx, "append turns", trace.WithAttributes(attribute.String("event.room", history.Room())))
	defer span.End()

	history.Append(llms.NewUserTurn(userText), llms.NewAssistantTurn(assistantText))
}
