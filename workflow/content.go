package workflow

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"social_post_publisher/generator"
	"social_post_publisher/publisher"
)

var (
	ErrNoPublishablePlatform = errors.New("no platform supported for publishing")
	ErrPublisherMissing      = errors.New("publisher not configured")
)

// Publisher posts generated text to one platform.
type Publisher interface {
	Publish(ctx context.Context, platform, text, imageURL string) (publisher.Receipt, error)
}

// ImageCreator returns a public URL for an image described by prompt.
type ImageCreator interface {
	Create(ctx context.Context, prompt string) (string, error)
}

// PublicationResult is the outcome of publishing to one platform.
type PublicationResult struct {
	Platform string         `json:"platform"`
	Status   string         `json:"status"`
	Type     string         `json:"type,omitempty"`
	Response map[string]any `json:"response,omitempty"`
	Error    string         `json:"error,omitempty"`
}

// GenerateRequest asks for content on a set of platforms and optionally
// publishes it.
type GenerateRequest struct {
	Heading     string   `json:"heading"`
	Material    string   `json:"material"`
	Platforms   []string `json:"platforms"`
	AutoPublish bool     `json:"auto_publish"`
	ImageURL    string   `json:"image_url,omitempty"`
}

type GenerateReport struct {
	GeneratedContent   generator.Result             `json:"generated_content"`
	PublicationResults map[string]PublicationResult `json:"publication_results"`
	AutoPublished      bool                         `json:"auto_published"`
	Timestamp          time.Time                    `json:"timestamp"`
}

// ImageSuggestion is a media hint taken from a generated post.
type ImageSuggestion struct {
	Type            string `json:"type"`
	Prompt          string `json:"prompt"`
	RecommendedSize string `json:"recommended_size"`
}

type PreviewReport struct {
	Preview            bool                       `json:"preview"`
	GeneratedContent   generator.Result           `json:"generated_content"`
	ImageSuggestions   map[string]ImageSuggestion `json:"image_suggestions"`
	HTML               map[string]string          `json:"html"`
	SupportedPlatforms []string                   `json:"supported_platforms"`
	Timestamp          time.Time                  `json:"timestamp"`
}

// ContentService generates platform content and publishes it on request.
type ContentService struct {
	transformer *generator.Transformer
	publisher   Publisher
	publishable map[string]bool
	logger      *zap.Logger
	now         func() time.Time
}

func NewContentService(transformer *generator.Transformer, pub Publisher, logger *zap.Logger) *ContentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	allowed := make(map[string]bool)
	for _, p := range publisher.Publishable() {
		allowed[p] = true
	}
	return &ContentService{
		transformer: transformer,
		publisher:   pub,
		publishable: allowed,
		logger:      logger.Named("content"),
		now:         time.Now,
	}
}

func (s *ContentService) filterPublishable(platforms []string) []string {
	var out []string
	for _, p := range platforms {
		if s.publishable[p] {
			out = append(out, p)
		}
	}
	return out
}

// GenerateAndPublish transforms the material for the publishable subset of
// req.Platforms and, with AutoPublish, posts every successful platform.
func (s *ContentService) GenerateAndPublish(ctx context.Context, req GenerateRequest) (GenerateReport, error) {
	platforms := s.filterPublishable(req.Platforms)
	if len(platforms) == 0 {
		return GenerateReport{}, fmt.Errorf("%w; supported: %s", ErrNoPublishablePlatform, strings.Join(publisher.Publishable(), ", "))
	}
	if req.AutoPublish && s.publisher == nil {
		return GenerateReport{}, ErrPublisherMissing
	}
	s.logger.Info("generating content", zap.Strings("platforms", platforms), zap.Bool("auto_publish", req.AutoPublish))

	result, err := s.transformer.TransformAll(ctx, req.Heading, req.Material, platforms)
	if err != nil {
		return GenerateReport{}, err
	}

	report := GenerateReport{
		GeneratedContent:   result,
		PublicationResults: map[string]PublicationResult{},
		AutoPublished:      req.AutoPublish,
		Timestamp:          s.now(),
	}
	if req.AutoPublish {
		report.PublicationResults = publishAll(ctx, s.publisher, s.logger, platforms, result, req.ImageURL)
	}
	return report, nil
}

// Preview transforms without publishing and collects media suggestions and
// rendered previews.
func (s *ContentService) Preview(ctx context.Context, heading, material string, platforms []string) (PreviewReport, error) {
	result, err := s.transformer.TransformAll(ctx, heading, material, platforms)
	if err != nil {
		return PreviewReport{}, err
	}

	html := make(map[string]string, len(result.Successes))
	for id, post := range result.Successes {
		out, err := generator.RenderPreviewHTML(post)
		if err != nil {
			s.logger.Warn("preview render failed", zap.String("platform", id), zap.Error(err))
			continue
		}
		html[id] = out
	}

	supported := s.filterPublishable(platforms)
	if supported == nil {
		supported = []string{}
	}
	return PreviewReport{
		Preview:            true,
		GeneratedContent:   result,
		ImageSuggestions:   ImageSuggestions(result),
		HTML:               html,
		SupportedPlatforms: supported,
		Timestamp:          s.now(),
	}, nil
}

// ImageSuggestions lists the media prompts found in successful posts.
func ImageSuggestions(result generator.Result) map[string]ImageSuggestion {
	out := make(map[string]ImageSuggestion)
	for id, post := range result.Successes {
		if prompt, ok := generator.ImagePrompt(post); ok {
			size := "1200x630"
			if id == string(generator.Instagram) {
				size = "1080x1080"
			}
			out[id] = ImageSuggestion{Type: "image", Prompt: prompt, RecommendedSize: size}
			continue
		}
		if prompt, ok := generator.VideoPrompt(post); ok {
			out[id] = ImageSuggestion{Type: "video", Prompt: prompt, RecommendedSize: "1080x1920"}
		}
	}
	return out
}

// publishAll posts each platform concurrently. A platform without generated
// content or with a failed publish is reported as failed; others are unaffected.
func publishAll(ctx context.Context, pub Publisher, logger *zap.Logger, platforms []string, result generator.Result, imageURL string) map[string]PublicationResult {
	var (
		mu  sync.Mutex
		out = make(map[string]PublicationResult, len(platforms))
	)
	record := func(r PublicationResult) {
		mu.Lock()
		out[r.Platform] = r
		mu.Unlock()
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, platform := range platforms {
		post, ok := result.Successes[platform]
		if !ok {
			reason := result.Errors[platform]
			if reason == "" {
				reason = "no content generated"
			}
			record(PublicationResult{Platform: platform, Status: "failed", Error: reason})
			continue
		}
		g.Go(func() error {
			receipt, err := pub.Publish(gctx, platform, post.Body().Text, imageURL)
			if err != nil {
				logger.Error("publication failed", zap.String("platform", platform), zap.Error(err))
				record(PublicationResult{Platform: platform, Status: "failed", Error: err.Error()})
				return nil
			}
			record(PublicationResult{
				Platform: platform,
				Status:   receipt.Status,
				Type:     receipt.Type,
				Response: receipt.Response,
			})
			return nil
		})
	}
	_ = g.Wait()
	return out
}
