// Package questions turns stored and external question sources into the
// fixed question shape a game is played with.
package questions

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/scythe504/trivia-backend/internal"
	"github.com/scythe504/trivia-backend/internal/utils"
)

// ErrInsufficient means fewer questions than requested could be assembled.
var ErrInsufficient = errors.New("not enough questions")

// fetched questions may repeat stored ones, so a short top-up is retried once
const fetchAttempts = 2

type Repository interface {
	SampleQuestions(ctx context.Context, category string, n int) ([]internal.Question, error)
}

type Fetcher interface {
	Fetch(ctx context.Context, category string, n int) ([]internal.Question, error)
}

type Provider struct {
	repo             Repository
	api              Fetcher
	defaultTimeLimit int
	logger           *slog.Logger
}

func NewProvider(repo Repository, api Fetcher, defaultTimeLimit int, logger *slog.Logger) *Provider {
	if defaultTimeLimit <= 0 {
		defaultTimeLimit = internal.DefaultTimeLimit
	}
	return &Provider{
		repo:             repo,
		api:              api,
		defaultTimeLimit: defaultTimeLimit,
		logger:           logger,
	}
}

// Questions returns exactly n normalized questions for category, drawing from
// the repository first and topping up from the external API.
func (p *Provider) Questions(ctx context.Context, category string, n int) ([]internal.Question, error) {
	if n <= 0 {
		return nil, fmt.Errorf("%w: requested %d", ErrInsufficient, n)
	}

	seen := make(map[string]struct{}, n)
	out := make([]internal.Question, 0, n)
	add := func(qs []internal.Question) {
		for _, q := range qs {
			if len(out) == n {
				return
			}
			nq, ok := p.normalize(q)
			if !ok {
				continue
			}
			if _, dup := seen[nq.Text]; dup {
				continue
			}
			seen[nq.Text] = struct{}{}
			out = append(out, nq)
		}
	}

	stored, err := p.repo.SampleQuestions(ctx, category, n)
	if err != nil {
		// the API can still cover the whole request
		p.logger.Warn("[Questions] repository sample failed", "category", category, "error", err)
	}
	add(stored)

	var upstreamErr error
	for attempt := 0; attempt < fetchAttempts && p.api != nil; attempt++ {
		missing := n - len(out)
		if missing <= 0 {
			break
		}
		p.logger.Info("[Questions] falling back to external API",
			"category", category, "have", len(out), "missing", missing, "attempt", attempt+1)
		fetched, err := p.api.Fetch(ctx, category, missing)
		add(fetched)
		if err != nil {
			upstreamErr = err
			break
		}
	}

	if len(out) < n {
		if upstreamErr != nil {
			return nil, fmt.Errorf("%w: got %d of %d for %q: %w", ErrInsufficient, len(out), n, category, upstreamErr)
		}
		return nil, fmt.Errorf("%w: got %d of %d for %q", ErrInsufficient, len(out), n, category)
	}
	return out, nil
}

func (p *Provider) normalize(q internal.Question) (internal.Question, bool) {
	if q.Text == "" || q.CorrectAnswer == "" || len(q.Options) < 2 {
		return internal.Question{}, false
	}
	if !slices.Contains(q.Options, q.CorrectAnswer) {
		return internal.Question{}, false
	}

	options := slices.Clone(q.Options)
	utils.Shuffle(options)

	timeLimit := q.TimeLimit
	if timeLimit <= 0 {
		timeLimit = p.defaultTimeLimit
	}

	return internal.Question{
		ID:            q.ID,
		Category:      q.Category,
		Text:          q.Text,
		Options:       options,
		CorrectAnswer: q.CorrectAnswer,
		TimeLimit:     timeLimit,
	}, true
}
