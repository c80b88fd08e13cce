package extract

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/alaris-labs/papergraph/internal/util"
	"github.com/alaris-labs/papergraph/pkg/ai"
	"github.com/alaris-labs/papergraph/pkg/graph"
	"github.com/alaris-labs/papergraph/pkg/logger"
)

const (
	defaultTimeout         = 60 * time.Second
	defaultMaxConceptChars = 60000
	defaultMaxAuthorTokens = 1500
	// rough chars per token when no tokenizer is available
	charsPerToken = 4
)

var errTimeout = errors.New("model call timed out")

// Params configures an LLMExtractor. Zero values select defaults.
type Params struct {
	// Timeout bounds a single model call.
	Timeout time.Duration
	// MaxRetries is the number of attempts per extraction.
	MaxRetries int
	// Backoff is the base wait between attempts.
	Backoff time.Duration
	// MaxConceptChars bounds the paper text sent for concept extraction.
	MaxConceptChars int
	// MaxAuthorTokens bounds the header text sent for author extraction.
	MaxAuthorTokens int
	// Encoding is the tiktoken encoding used to count author tokens.
	Encoding string
	// Model overrides the client's default model.
	Model string
	// Structured asks the client for schema constrained JSON instead of
	// parsing a free text answer.
	Structured bool
}

// LLMExtractor extracts concepts and authors with a language model.
type LLMExtractor struct {
	client ai.GraphAIClient
	params Params
}

// NewLLMExtractor creates an extractor backed by client.
func NewLLMExtractor(client ai.GraphAIClient, params Params) *LLMExtractor {
	if params.Timeout <= 0 {
		params.Timeout = defaultTimeout
	}
	if params.MaxRetries <= 0 {
		params.MaxRetries = 1
	}
	if params.MaxConceptChars == 0 {
		params.MaxConceptChars = defaultMaxConceptChars
	}
	if params.MaxAuthorTokens == 0 {
		params.MaxAuthorTokens = defaultMaxAuthorTokens
	}
	if params.Encoding == "" {
		params.Encoding = ai.DefaultEncoding
	}
	return &LLMExtractor{client: client, params: params}
}

func (e *LLMExtractor) options() []ai.GenerateOption {
	if e.params.Model == "" {
		return nil
	}
	return []ai.GenerateOption{ai.WithModel(e.params.Model)}
}

// call runs one extraction request with retries. Transport failures and
// per call timeouts are retried, undecodable answers are not.
func (e *LLMExtractor) call(ctx context.Context, kind, description, prompt string, out any) error {
	return util.RetryErrWithBackoff(ctx, e.params.MaxRetries, e.params.Backoff, func(ctx context.Context) error {
		cctx, cancel := context.WithTimeout(ctx, e.params.Timeout)
		defer cancel()

		var err error
		if e.params.Structured {
			err = e.client.GenerateCompletionWithFormat(cctx, kind, description, prompt, out, e.options()...)
		} else {
			var raw string
			raw, err = e.client.GenerateCompletion(cctx, prompt, e.options()...)
			if err == nil {
				return util.Permanent(decodeAnswer(kind, raw, out))
			}
		}
		if err != nil && errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			return fmt.Errorf("%w after %s", errTimeout, e.params.Timeout)
		}
		return err
	})
}

// ExtractConcepts asks the model for the key concepts of text.
func (e *LLMExtractor) ExtractConcepts(ctx context.Context, text string) ([]graph.Concept, error) {
	prompt := ai.ConceptPrompt(util.TruncateRunes(text, e.params.MaxConceptChars))

	var resp conceptsResponse
	if err := e.call(ctx, "concepts", "Key technical concepts of a research paper", prompt, &resp); err != nil {
		return nil, fmt.Errorf("concept extraction failed: %w", err)
	}
	return resp.records()
}

// ExtractAuthors asks the model for the authors listed in the header of text.
func (e *LLMExtractor) ExtractAuthors(ctx context.Context, text string) ([]graph.Author, error) {
	prompt := ai.AuthorPrompt(e.authorText(text))

	var resp authorsResponse
	if err := e.call(ctx, "authors", "Authors of a research paper", prompt, &resp); err != nil {
		return nil, fmt.Errorf("author extraction failed: %w", err)
	}
	return resp.records()
}

func (e *LLMExtractor) authorText(text string) string {
	if e.params.MaxAuthorTokens < 0 {
		return text
	}
	truncated, err := ai.TruncateTokens(text, e.params.MaxAuthorTokens, e.params.Encoding)
	if err != nil {
		logger.Debug("[Extract] Tokenizer unavailable, truncating by characters", "err", err)
		return util.TruncateRunes(text, e.params.MaxAuthorTokens*charsPerToken)
	}
	return truncated
}

// Degrading wraps extractors so that any failure yields zero entities and
// a logged warning. Only cancellation of ctx is reported to the caller.
type Degrading struct {
	Concepts ConceptExtractor
	Authors  AuthorExtractor
}

func (d Degrading) ExtractConcepts(ctx context.Context, text string) ([]graph.Concept, error) {
	if d.Concepts == nil {
		return []graph.Concept{}, nil
	}
	concepts, err := d.Concepts.ExtractConcepts(ctx, text)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		logger.Warn("[Extract] Concept extraction failed, continuing without concepts", "err", err)
		return []graph.Concept{}, nil
	}
	return concepts, nil
}

func (d Degrading) ExtractAuthors(ctx context.Context, text string) ([]graph.Author, error) {
	if d.Authors == nil {
		return []graph.Author{}, nil
	}
	authors, err := d.Authors.ExtractAuthors(ctx, text)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		logger.Warn("[Extract] Author extraction failed, continuing without authors", "err", err)
		return []graph.Author{}, nil
	}
	return authors, nil
}
