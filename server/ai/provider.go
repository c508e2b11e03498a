package ai

import (
	"context"
	"log/slog"
	"math"
	"time"

	"github.com/pkg/errors"
	"github.com/sashabaranov/go-openai"
	"golang.org/x/sync/semaphore"

	"github.com/seminote/seminote/internal/profile"
	serrors "github.com/seminote/seminote/server/internal/errors"
)

// maxConcurrentEmbeds bounds in-flight encoder calls so embedding work
// cannot monopolize the process while requests are being served.
const maxConcurrentEmbeds = 4

// Config holds the embedding provider configuration.
type Config struct {
	BaseURL    string
	APIKey     string
	Model      string
	Dimensions int
	MaxRetries int
	Timeout    time.Duration
}

// ConfigFromProfile extracts the provider configuration.
func ConfigFromProfile(p *profile.Profile) *Config {
	return &Config{
		BaseURL:    p.EmbeddingBaseURL,
		APIKey:     p.EmbeddingAPIKey,
		Model:      p.EmbeddingModel,
		Dimensions: p.EmbeddingDimensions,
		MaxRetries: p.EmbeddingMaxRetries,
		Timeout:    p.EmbeddingTimeout,
	}
}

// Provider is an Encoder backed by an OpenAI-compatible embeddings endpoint.
type Provider struct {
	client *openai.Client
	config *Config
	sem    *semaphore.Weighted
}

// NewProvider creates a new embedding provider.
func NewProvider(cfg *Config) (*Provider, error) {
	if cfg.APIKey == "" {
		return nil, serrors.Configuration(nil, "embedding API key is required, set SEMINOTE_EMBEDDING_API_KEY")
	}
	if cfg.Dimensions <= 0 {
		return nil, serrors.Configuration(nil, "embedding dimensions must be positive, got %d", cfg.Dimensions)
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}

	return &Provider{
		client: openai.NewClientWithConfig(clientConfig),
		config: cfg,
		sem:    semaphore.NewWeighted(maxConcurrentEmbeds),
	}, nil
}

func (p *Provider) Dimensions() int {
	return p.config.Dimensions
}

// Embed generates an embedding vector for the given text.
func (p *Provider) Embed(ctx context.Context, text string) ([]float32, error) {
	vectors, err := p.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EmbedBatch generates embedding vectors for the given texts in one request.
func (p *Provider) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer p.sem.Release(1)

	ctx, cancel := context.WithTimeout(ctx, p.config.Timeout)
	defer cancel()

	var result [][]float32
	err := p.doWithRetry(ctx, func() error {
		resp, err := p.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
			Input:      texts,
			Model:      openai.EmbeddingModel(p.config.Model),
			Dimensions: p.config.Dimensions,
		})
		if err != nil {
			return err
		}
		if len(resp.Data) != len(texts) {
			return errors.Errorf("expected %d embeddings, got %d", len(texts), len(resp.Data))
		}
		result = make([][]float32, len(resp.Data))
		for i, data := range resp.Data {
			result[i] = data.Embedding
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to generate embeddings")
	}

	for _, v := range result {
		if len(v) != p.config.Dimensions {
			return nil, serrors.Configuration(nil,
				"model %q produced %d dimensions, schema expects %d",
				p.config.Model, len(v), p.config.Dimensions)
		}
	}
	return result, nil
}

// Validate probes the endpoint once and checks the returned dimensionality
// against the storage schema. Called at startup; a failure is fatal.
func (p *Provider) Validate(ctx context.Context) error {
	if _, err := p.Embed(ctx, "seminote"); err != nil {
		return errors.Wrap(err, "embedding validation failed")
	}
	slog.Info("embedding provider validated",
		slog.String("model", p.config.Model),
		slog.Int("dimensions", p.config.Dimensions))
	return nil
}

// doWithRetry executes fn with exponential backoff.
func (p *Provider) doWithRetry(ctx context.Context, fn func() error) error {
	var lastErr error
	for attempt := 0; attempt < p.config.MaxRetries; attempt++ {
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
			if attempt < p.config.MaxRetries-1 {
				waitTime := time.Duration(math.Pow(2, float64(attempt))) * time.Second
				slog.Debug("embedding request failed, retrying",
					"attempt", attempt+1,
					"wait_time", waitTime,
					"error", err)
				select {
				case <-time.After(waitTime):
				case <-ctx.Done():
					return ctx.Err()
				}
			}
		}
	}
	return lastErr
}
