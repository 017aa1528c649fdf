package aiconnectors

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/googleai"
	"golang.org/x/time/rate"
)

// Provider represents an AI provider type
type Provider string

// ProviderGemini is the only provider Lexi talks to
const ProviderGemini Provider = "gemini"

// Default model names per task
const (
	DefaultProModel   = "gemini-3-pro-preview"
	DefaultFlashModel = "gemini-2.5-flash"
)

// ModelConfig contains the default generation settings of a connector
type ModelConfig struct {
	Temperature float64 `json:"temperature,omitempty"`
	MaxTokens   int     `json:"max_tokens,omitempty"`
	Model       string  `json:"model,omitempty"`
}

// ConnectorOptions contains options for creating a connector
type ConnectorOptions struct {
	APIKey            string       `json:"api_key"`
	ModelConfig       ModelConfig  `json:"model_config,omitempty"`
	RequestsPerMinute int          `json:"requests_per_minute,omitempty"`
	HTTPClient        *http.Client `json:"-"`
}

// Connector is a rate-limited connection to the Gemini API
type Connector struct {
	provider Provider
	llm      llms.Model
	options  ConnectorOptions
	limiter  *rate.Limiter
}

// newGeminiModel is swapped in tests
var newGeminiModel = func(ctx context.Context, options ConnectorOptions) (llms.Model, error) {
	opts := []googleai.Option{
		googleai.WithAPIKey(options.APIKey),
	}
	if options.ModelConfig.Model != "" {
		opts = append(opts, googleai.WithDefaultModel(options.ModelConfig.Model))
	}
	if options.ModelConfig.MaxTokens > 0 {
		opts = append(opts, googleai.WithDefaultMaxTokens(options.ModelConfig.MaxTokens))
	}
	if options.HTTPClient != nil {
		opts = append(opts, googleai.WithHTTPClient(options.HTTPClient))
	}

	model, err := googleai.New(ctx, opts...)
	if err != nil {
		log.Error().Err(err).
			Str("api_key_prefix", keyPrefix(options.APIKey)).
			Str("model", options.ModelConfig.Model).
			Msg("Failed to create Gemini model")
		return nil, fmt.Errorf("failed to create Gemini model: %w", err)
	}
	return model, nil
}

// NewConnector creates a Gemini connector
func NewConnector(ctx context.Context, options ConnectorOptions) (*Connector, error) {
	if strings.TrimSpace(options.APIKey) == "" {
		return nil, fmt.Errorf("gemini API key is not configured")
	}

	log.Debug().
		Str("provider", string(ProviderGemini)).
		Str("model", options.ModelConfig.Model).
		Int("requests_per_minute", options.RequestsPerMinute).
		Msg("Creating new connector")

	model, err := newGeminiModel(ctx, options)
	if err != nil {
		return nil, fmt.Errorf("failed to create model for provider %s: %w", ProviderGemini, err)
	}
	return NewConnectorWithModel(model, options), nil
}

// NewConnectorWithModel wraps an existing llms.Model
func NewConnectorWithModel(model llms.Model, options ConnectorOptions) *Connector {
	c := &Connector{
		provider: ProviderGemini,
		llm:      model,
		options:  options,
	}
	if options.RequestsPerMinute > 0 {
		c.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(options.RequestsPerMinute)), 1)
	}
	return c
}

// Generate sends messages to the model and returns the text of the first choice.
// A response without choices yields an empty string and no error.
func (c *Connector) Generate(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (string, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return "", fmt.Errorf("rate limiter: %w", err)
		}
	}

	callOptions := []llms.CallOption{}
	if c.options.ModelConfig.Temperature > 0 {
		callOptions = append(callOptions, llms.WithTemperature(c.options.ModelConfig.Temperature))
	}
	callOptions = append(callOptions, options...)

	start := time.Now()
	resp, err := c.llm.GenerateContent(ctx, messages, callOptions...)
	if err != nil {
		log.Error().Err(err).
			Str("provider", string(c.provider)).
			Dur("elapsed", time.Since(start)).
			Msg("Model call failed")
		return "", err
	}

	if resp == nil || len(resp.Choices) == 0 {
		log.Warn().Str("provider", string(c.provider)).Msg("Model returned no choices")
		return "", nil
	}

	log.Debug().
		Str("provider", string(c.provider)).
		Dur("elapsed", time.Since(start)).
		Int("response_chars", len(resp.Choices[0].Content)).
		Msg("Model call finished")
	return resp.Choices[0].Content, nil
}

// Call sends a single text prompt
func (c *Connector) Call(ctx context.Context, input string, options ...llms.CallOption) (string, error) {
	return c.Generate(ctx, []llms.MessageContent{llms.TextParts(llms.ChatMessageTypeHuman, input)}, options...)
}

// GetProvider returns the provider of this connector
func (c *Connector) GetProvider() Provider {
	return c.provider
}

// GetModel returns the default model name
func (c *Connector) GetModel() string {
	return c.options.ModelConfig.Model
}

// ValidateAPIKey checks a Gemini key with a tiny generation call
func ValidateAPIKey(ctx context.Context, apiKey string) (bool, error) {
	options := ConnectorOptions{
		APIKey:      apiKey,
		ModelConfig: ModelConfig{Model: DefaultFlashModel, MaxTokens: 10},
	}

	log.Debug().
		Str("api_key_prefix", keyPrefix(apiKey)).
		Str("model", options.ModelConfig.Model).
		Msg("Starting API key validation")

	connector, err := NewConnector(ctx, options)
	if err != nil {
		return false, fmt.Errorf("failed to create connector: %w", err)
	}

	_, err = connector.Call(ctx, "test", llms.WithMaxTokens(10), llms.WithModel(options.ModelConfig.Model))
	if err != nil {
		errStr := strings.ToLower(err.Error())
		if strings.Contains(errStr, "429") || strings.Contains(errStr, "quota") {
			return false, fmt.Errorf("quota exceeded - this typically means the API key is valid but has reached its rate limit: %w", err)
		}
		log.Warn().Err(err).Str("api_key_prefix", keyPrefix(apiKey)).Msg("API key validation failed")
		return false, nil
	}

	log.Debug().Str("api_key_prefix", keyPrefix(apiKey)).Msg("API key validation successful")
	return true, nil
}

func keyPrefix(key string) string {
	return key[:min(len(key), 6)]
}
