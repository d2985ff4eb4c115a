// Package search finds candidate businesses through a generative model.
package search

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/buscacontatos/buscacontatos/internal/metrics"
	"github.com/buscacontatos/buscacontatos/internal/model"
)

// Search failures.
var (
	ErrInvalidQuery       = errors.New("invalid search query")
	ErrTimeout            = errors.New("search timed out")
	ErrMalformedResponse  = errors.New("search returned a response in an unexpected format")
	ErrUpstream           = errors.New("search provider failed")
	ErrInvalidCredentials = fmt.Errorf("%w: API key not valid", ErrUpstream)
)

// DefaultTimeout bounds one search call.
const DefaultTimeout = 30 * time.Second

// Searcher returns candidate places for a query.
type Searcher interface {
	Search(ctx context.Context, q model.SearchQuery) ([]model.Place, error)
}

// Generator produces the raw JSON text for a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Service validates queries, bounds the call with a timeout and validates
// every returned place.
type Service struct {
	gen      Generator
	timeout  time.Duration
	validate *validator.Validate
	logger   *slog.Logger
	metrics  metrics.Recorder
}

// NewService creates a search service. A non-positive timeout selects DefaultTimeout.
func NewService(gen Generator, timeout time.Duration, logger *slog.Logger, recorder metrics.Recorder) *Service {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &Service{
		gen:      gen,
		timeout:  timeout,
		validate: validator.New(),
		logger:   logger.With("component", "search"),
		metrics:  recorder,
	}
}

type generateResult struct {
	text string
	err  error
}

// Search runs one query.
func (s *Service) Search(ctx context.Context, q model.SearchQuery) ([]model.Place, error) {
	q.Segment = strings.TrimSpace(q.Segment)
	q.Location = strings.TrimSpace(q.Location)
	if err := s.validate.Struct(q); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidQuery, err)
	}

	start := time.Now()
	places, err := s.run(ctx, q)
	s.metrics.ObserveSearch(resultLabel(err), time.Since(start))
	if err != nil {
		s.logger.Warn("search failed",
			"segment", q.Segment,
			"location", q.Location,
			"error", err,
		)
		return nil, err
	}

	s.logger.Info("search completed",
		"segment", q.Segment,
		"location", q.Location,
		"results", len(places),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return places, nil
}

func (s *Service) run(ctx context.Context, q model.SearchQuery) ([]model.Place, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	// The generator runs on its own goroutine so the timeout holds even if it
	// ignores ctx.
	done := make(chan generateResult, 1)
	go func() {
		text, err := s.gen.Generate(ctx, BuildPrompt(q))
		done <- generateResult{text: text, err: err}
	}()

	var res generateResult
	select {
	case res = <-done:
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, ErrTimeout
		}
		return nil, ctx.Err()
	}

	if res.err != nil {
		if errors.Is(res.err, context.DeadlineExceeded) {
			return nil, ErrTimeout
		}
		if errors.Is(res.err, ErrUpstream) {
			return nil, res.err
		}
		return nil, fmt.Errorf("%w: %v", ErrUpstream, res.err)
	}

	places, err := s.parse(res.text)
	if err != nil {
		return nil, err
	}
	if len(places) > q.MaxResults {
		places = places[:q.MaxResults]
	}
	return places, nil
}

func (s *Service) parse(text string) ([]model.Place, error) {
	text = stripCodeFence(strings.TrimSpace(text))
	if text == "" {
		return []model.Place{}, nil
	}

	var places []model.Place
	if err := json.Unmarshal([]byte(text), &places); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	for i := range places {
		if err := s.validate.Struct(places[i]); err != nil {
			return nil, fmt.Errorf("%w: result %d: %v", ErrMalformedResponse, i, err)
		}
	}
	if places == nil {
		places = []model.Place{}
	}
	return places, nil
}

// stripCodeFence removes a surrounding ```json fence some models add.
func stripCodeFence(text string) string {
	if !strings.HasPrefix(text, "```") {
		return text
	}
	text = strings.TrimPrefix(text, "```")
	if nl := strings.IndexByte(text, '\n'); nl >= 0 {
		text = text[nl+1:]
	}
	return strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(text), "```"))
}

// BuildPrompt renders the instruction sent to the model.
func BuildPrompt(q model.SearchQuery) string {
	return fmt.Sprintf(
		"Encontre estabelecimentos comerciais que correspondem à busca por %q em um raio de %d km perto de %q. "+
			"Forneça uma lista com até %d resultados. Para cada resultado, inclua os seguintes detalhes: "+
			"place_id, name, formatted_address, rating, user_ratings_total, business_status, website, "+
			"e formatted_phone_number. Certifique-se de que os resultados sejam relevantes para a localização especificada.",
		q.Segment, q.RadiusKm, q.Location, q.MaxResults,
	)
}

func resultLabel(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, ErrTimeout):
		return "timeout"
	case errors.Is(err, ErrMalformedResponse):
		return "malformed"
	default:
		return "upstream"
	}
}
