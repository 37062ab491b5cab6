package generator

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Transformer rewrites one piece of material into posts for several platforms.
type Transformer struct {
	llm          LLMClient
	profiles     *ProfileTable
	logger       *zap.Logger
	concurrency  int
	strictLimits bool
}

type TransformerOption func(*Transformer)

func WithLogger(l *zap.Logger) TransformerOption {
	return func(t *Transformer) {
		if l != nil {
			t.logger = l
		}
	}
}

// WithConcurrency bounds how many platforms are generated at once. 1 is sequential.
func WithConcurrency(n int) TransformerOption {
	return func(t *Transformer) {
		if n > 0 {
			t.concurrency = n
		}
	}
}

// WithStrictLimits turns character-limit violations into per-platform errors.
func WithStrictLimits(strict bool) TransformerOption {
	return func(t *Transformer) { t.strictLimits = strict }
}

func NewTransformer(llm LLMClient, profiles *ProfileTable, opts ...TransformerOption) (*Transformer, error) {
	if llm == nil {
		return nil, errors.New("llm client is required")
	}
	if profiles == nil {
		return nil, errors.New("profile table is required")
	}
	t := &Transformer{
		llm:         llm,
		profiles:    profiles,
		logger:      zap.NewNop(),
		concurrency: 1,
	}
	for _, opt := range opts {
		opt(t)
	}
	t.logger = t.logger.Named("transformer")
	return t, nil
}

// Profiles exposes the table the transformer was built with.
func (t *Transformer) Profiles() *ProfileTable { return t.profiles }

// Transform runs prompt building, generation and normalisation for one platform.
func (t *Transformer) Transform(ctx context.Context, heading, material string, profile Profile) (Post, []string, error) {
	platform := string(profile.Platform)
	t.logger.Debug("transforming content", zap.String("platform", platform))

	prompt := BuildPlatformPrompt(heading, material, profile)
	raw, err := t.llm.Complete(ctx, prompt)
	if err != nil {
		var ge *GenerationError
		if errors.As(err, &ge) {
			return nil, nil, &GenerationError{Platform: platform, Err: ge.Err}
		}
		return nil, nil, &GenerationError{Platform: platform, Err: err}
	}
	if raw == "" {
		return nil, nil, &GenerationError{Platform: platform, Err: ErrEmptyCompletion}
	}

	post, warnings, err := Normalize(raw, profile)
	if err != nil {
		return nil, nil, err
	}
	if len(warnings) > 0 {
		count := post.Body().CharacterCount
		if t.strictLimits {
			return nil, nil, &LimitExceededError{Platform: platform, Count: count, Limit: profile.CharacterLimit}
		}
		t.logger.Warn("content exceeds platform limit",
			zap.String("platform", platform),
			zap.Int("characters", count),
			zap.Int("limit", profile.CharacterLimit))
	}
	return post, warnings, nil
}

// TransformAll fans the material out to every requested platform. A failure on
// one platform is recorded in Result.Errors and never aborts the others.
// Duplicate ids are processed once.
//
// The returned error is reserved for whole-batch preconditions: ErrNoPlatforms
// for an empty request and ErrNoSupportedPlatform when no id is known. The
// result is still filled in those cases.
func (t *Transformer) TransformAll(ctx context.Context, heading, material string, platforms []string) (Result, error) {
	result := newResult()
	if len(platforms) == 0 {
		return result, ErrNoPlatforms
	}
	t.logger.Info("starting transformation", zap.Int("platforms", len(platforms)))

	var (
		mu        sync.Mutex
		g         errgroup.Group
		seen      = make(map[string]bool, len(platforms))
		supported int
	)
	g.SetLimit(t.concurrency)

	for _, id := range platforms {
		if seen[id] {
			continue
		}
		seen[id] = true

		profile, err := t.profiles.Lookup(id)
		if err != nil {
			t.logger.Warn("unsupported platform", zap.String("platform", id))
			mu.Lock()
			result.Errors[id] = err.Error()
			mu.Unlock()
			continue
		}
		supported++

		g.Go(func() error {
			post, warnings, err := t.Transform(ctx, heading, material, profile)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				t.logger.Error("transformation failed", zap.String("platform", id), zap.Error(err))
				result.Errors[id] = err.Error()
				return nil
			}
			result.Successes[id] = post
			if len(warnings) > 0 {
				result.Warnings[id] = warnings
			}
			return nil
		})
	}
	_ = g.Wait()

	t.logger.Info("transformation finished",
		zap.Int("succeeded", len(result.Successes)),
		zap.Int("failed", len(result.Errors)))

	if supported == 0 {
		return result, ErrNoSupportedPlatform
	}
	return result, nil
}
