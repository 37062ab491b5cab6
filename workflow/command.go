package workflow

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"social_post_publisher/generator"
)

// CommandReport is the outcome of a natural-language publishing command.
// Success is false only when a whole step failed; per-platform publish
// failures are listed in PublicationResults.
type CommandReport struct {
	Success            bool                         `json:"success"`
	Message            string                       `json:"message,omitempty"`
	Error              string                       `json:"error,omitempty"`
	Analysis           *generator.CommandIntent     `json:"analysis,omitempty"`
	GeneratedContent   *generator.Result            `json:"generated_content,omitempty"`
	GeneratedImage     string                       `json:"generated_image,omitempty"`
	PublicationResults map[string]PublicationResult `json:"publication_results,omitempty"`
	Note               string                       `json:"note,omitempty"`
	Instructions       map[string]string            `json:"instructions,omitempty"`
	Timestamp          time.Time                    `json:"timestamp"`
}

var manualInstructions = map[string]string{
	"next_steps":     "use the direct endpoints to publish manually",
	"instagram":      "POST /publish/instagram with image_url and caption",
	"facebook_text":  "POST /publish/facebook/text with message",
	"facebook_image": "POST /publish/facebook/image with image_url and caption",
	"linkedin_text":  "POST /publish/linkedin/text with message",
	"linkedin_image": "POST /publish/linkedin/image with image_url and message",
}

// CommandService runs analyze, transform, image and publish for one command.
type CommandService struct {
	analyzer    *generator.Analyzer
	transformer *generator.Transformer
	images      ImageCreator
	publisher   Publisher
	logger      *zap.Logger
	now         func() time.Time
}

// NewCommandService wires the pipeline. images and pub may be nil; commands
// that need them then fail with a descriptive error.
func NewCommandService(analyzer *generator.Analyzer, transformer *generator.Transformer, images ImageCreator, pub Publisher, logger *zap.Logger) *CommandService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CommandService{
		analyzer:    analyzer,
		transformer: transformer,
		images:      images,
		publisher:   pub,
		logger:      logger.Named("command"),
		now:         time.Now,
	}
}

// Process interprets command and acts on it. In test mode content and image
// are produced but nothing is published.
func (s *CommandService) Process(ctx context.Context, command string, testMode bool) CommandReport {
	report, err := s.process(ctx, command, testMode)
	if err != nil {
		s.logger.Error("command failed", zap.Error(err))
		return CommandReport{Success: false, Error: err.Error(), Timestamp: s.now()}
	}
	report.Success = true
	report.Timestamp = s.now()
	return report
}

func (s *CommandService) process(ctx context.Context, command string, testMode bool) (CommandReport, error) {
	if strings.TrimSpace(command) == "" {
		return CommandReport{}, errors.New("command is empty")
	}
	s.logger.Info("processing command", zap.String("command", truncate(command, 100)), zap.Bool("test_mode", testMode))

	intent := s.analyzer.Analyze(ctx, command)
	s.logger.Info("command analyzed", zap.Stringer("intent", intent))

	result, err := s.transformer.TransformAll(ctx, intent.Title, intent.Content, intent.PlatformIDs())
	if err != nil {
		return CommandReport{}, fmt.Errorf("generate content: %w", err)
	}

	var imageURL string
	if intent.NeedsImage {
		if s.images == nil {
			return CommandReport{}, errors.New("image generation not configured")
		}
		imageURL, err = s.images.Create(ctx, intent.ImagePrompt)
		if err != nil {
			return CommandReport{}, fmt.Errorf("generate image: %w", err)
		}
	}

	report := CommandReport{
		Analysis:         &intent,
		GeneratedContent: &result,
		GeneratedImage:   imageURL,
	}
	if testMode {
		report.Message = "content generated (test mode, nothing published)"
		report.Note = "test mode: publication skipped"
		report.Instructions = manualInstructions
		return report, nil
	}
	if s.publisher == nil {
		return CommandReport{}, ErrPublisherMissing
	}

	report.Message = "command processed"
	report.PublicationResults = publishAll(ctx, s.publisher, s.logger, intent.PlatformIDs(), result, imageURL)
	return report, nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
