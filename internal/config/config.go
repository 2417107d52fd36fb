package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type LLMProvider string

const (
	LLMProviderOpenAI LLMProvider = "openai"
	LLMProviderGroq   LLMProvider = "groq"
)

type Config struct {
	Port      int
	PublicDir string

	LogLevel  string
	LogFormat string

	DeepgramAPIKey   string
	DeepgramModel    string
	DeepgramLanguage string

	// DeepgramDialTimeout bounds the websocket handshake with Deepgram.
	DeepgramDialTimeout time.Duration

	LLMProvider       LLMProvider
	LLMModel          string
	LLMIncludeHistory bool
	LLMMaxTokens      int
	OpenAIAPIKey      string
	GroqAPIKey        string
	SystemPrompt      string
	FallbackReply     string

	TranscriptionTimeout time.Duration
	GenerationTimeout    time.Duration
	MaxFrameBytes        int64

	LiveKitHost      string
	LiveKitAPIKey    string
	LiveKitAPISecret string
	LiveKitTokenTTL  time.Duration
}

// LoadEnv loads variables from files (".env" by default) without overriding
// ones already set. Missing files are not an error.
func LoadEnv(filenames ...string) error {
	if len(filenames) == 0 {
		filenames = []string{".env"}
	}

	for _, filename := range filenames {
		if err := godotenv.Load(filename); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("failed to load %s: %w", filename, err)
		}
	}
	return nil
}

// Load reads the configuration from the environment.
func Load() (Config, error) {
	cfg := Config{
		PublicDir: getEnv("PUBLIC_DIR", "public"),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "text"),

		DeepgramAPIKey:   os.Getenv("DEEPGRAM_API_KEY"),
		DeepgramModel:    getEnv("DEEPGRAM_MODEL", "nova-3"),
		DeepgramLanguage: getEnv("DEEPGRAM_LANGUAGE", "en-US"),

		LLMProvider:   LLMProvider(strings.ToLower(getEnv("LLM_PROVIDER", string(LLMProviderOpenAI)))),
		OpenAIAPIKey:  os.Getenv("OPENAI_API_KEY"),
		GroqAPIKey:    os.Getenv("GROQ_API_KEY"),
		SystemPrompt:  os.Getenv("SYSTEM_PROMPT"),
		FallbackReply: os.Getenv("FALLBACK_REPLY"),

		LiveKitHost:      os.Getenv("LIVEKIT_HOST"),
		LiveKitAPIKey:    os.Getenv("LIVEKIT_API_KEY"),
		LiveKitAPISecret: os.Getenv("LIVEKIT_API_SECRET"),
	}

	var errs []error
	var err error

	if cfg.Port, err = getInt("PORT", 4001); err != nil {
		errs = append(errs, err)
	}
	if cfg.LLMIncludeHistory, err = getBool("LLM_INCLUDE_HISTORY", false); err != nil {
		errs = append(errs, err)
	}
	if cfg.TranscriptionTimeout, err = getDuration("TRANSCRIPTION_TIMEOUT", 30*time.Second); err != nil {
		errs = append(errs, err)
	}
	if cfg.GenerationTimeout, err = getDuration("GENERATION_TIMEOUT", 30*time.Second); err != nil {
		errs = append(errs, err)
	}
	if cfg.LLMMaxTokens, err = getInt("LLM_MAX_TOKENS", 1024); err != nil {
		errs = append(errs, err)
	}
	if cfg.DeepgramDialTimeout, err = getDuration("DEEPGRAM_DIAL_TIMEOUT", 10*time.Second); err != nil {
		errs = append(errs, err)
	}
	if cfg.LiveKitTokenTTL, err = getDuration("LIVEKIT_TOKEN_TTL", 6*time.Hour); err != nil {
		errs = append(errs, err)
	}
	maxFrameBytes, err := getInt("MAX_FRAME_BYTES", 10<<20)
	if err != nil {
		errs = append(errs, err)
	}
	cfg.MaxFrameBytes = int64(maxFrameBytes)

	switch cfg.LLMProvider {
	case LLMProviderOpenAI:
		cfg.LLMModel = getEnv("OPENAI_MODEL", "gpt-4o-mini")
	case LLMProviderGroq:
		cfg.LLMModel = getEnv("GROQ_MODEL", "llama-3.1-8b-instant")
	default:
		errs = append(errs, fmt.Errorf("unsupported LLM_PROVIDER %q", cfg.LLMProvider))
	}

	if cfg.Port <= 0 || cfg.Port > 65535 {
		errs = append(errs, fmt.Errorf("PORT out of range: %d", cfg.Port))
	}
	if cfg.LLMMaxTokens <= 0 {
		errs = append(errs, fmt.Errorf("LLM_MAX_TOKENS must be positive"))
	}
	if cfg.MaxFrameBytes <= 0 {
		errs = append(errs, fmt.Errorf("MAX_FRAME_BYTES must be positive"))
	}

	if err := errors.Join(errs...); err != nil {
		return Config{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func getInt(key string, fallback int) (int, error) {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return fallback, nil
	}

	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return parsed, nil
}

func getBool(key string, fallback bool) (bool, error) {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return fallback, nil
	}

	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("%s: %w", key, err)
	}
	return parsed, nil
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return fallback, nil
	}

	parsed, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return parsed, nil
}
