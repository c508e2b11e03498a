// Package ai provides the text embedding encoder used for semantic search.
package ai

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
)

// Encoder maps text to fixed-length embedding vectors. Implementations are
// constructed once at startup and shared read-only across requests; they are
// safe for concurrent use.
type Encoder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	// Dimensions is the fixed vector width. It must match the persisted
	// column width; a mismatch is a configuration error, not a per-call one.
	Dimensions() int
}

// DeriveSource builds the text a note's embedding is computed from: the name
// alone when content is empty, otherwise name and content joined by ". ".
func DeriveSource(name, content string) string {
	parts := make([]string, 0, 2)
	for _, p := range []string{name, content} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ". ")
}

// StubEncoder is a deterministic, dependency-free encoder for tests and demo
// mode. Vectors are derived from token hashes, so identical text always
// yields identical vectors and shared tokens yield nonzero similarity.
type StubEncoder struct {
	Dims int
}

func NewStubEncoder(dims int) *StubEncoder {
	return &StubEncoder{Dims: dims}
}

func (s *StubEncoder) Dimensions() int {
	return s.Dims
}

func (s *StubEncoder) Embed(_ context.Context, text string) ([]float32, error) {
	v := make([]float32, s.Dims)
	for _, token := range strings.Fields(strings.ToLower(text)) {
		h := fnv.New32a()
		h.Write([]byte(token))
		v[int(h.Sum32())%s.Dims] += 1
	}
	// Normalize so cosine similarity behaves like a real text embedding.
	var norm float64
	for _, f := range v {
		norm += float64(f) * float64(f)
	}
	if norm > 0 {
		scale := float32(1 / math.Sqrt(norm))
		for i := range v {
			v[i] *= scale
		}
	}
	return v, nil
}

func (s *StubEncoder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		v, err := s.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}
