package publisher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	openai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"go.uber.org/zap"

	"social_post_publisher/config"
	"social_post_publisher/generator"
)

const imageStyleSuffix = `.
Estilo: moderno, profesional, colores vibrantes, alta calidad,
formato cuadrado 1:1 ideal para redes sociales,
sin texto superpuesto, imagen limpia y atractiva`

// EnhanceImagePrompt appends the house style to a subject description.
func EnhanceImagePrompt(prompt string) string {
	return strings.TrimSpace(prompt) + imageStyleSuffix
}

// ImageGenerator turns a prompt into a short-lived image URL.
type ImageGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// PhotoHost stores an image and exposes a stable public URL for it.
type PhotoHost interface {
	UploadUnpublishedPhoto(ctx context.Context, filename string, r io.Reader) (string, error)
	PhotoURL(photoID string) string
}

// OpenAIImageGenerator generates 1024x1024 images through the images API.
type OpenAIImageGenerator struct {
	Model  string
	client openai.Client
}

func NewOpenAIImageGenerator(cfg *generator.LLMSettings, extra ...option.RequestOption) (*OpenAIImageGenerator, error) {
	if cfg == nil || cfg.APIKey == "" {
		return nil, errors.New("openai api key missing; image generation disabled")
	}
	model := cfg.ImageModel
	if model == "" {
		model = string(openai.ImageModelDallE3)
	}
	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey), option.WithMaxRetries(0)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	opts = append(opts, extra...)
	return &OpenAIImageGenerator{Model: model, client: openai.NewClient(opts...)}, nil
}

func (g *OpenAIImageGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := g.client.Images.Generate(ctx, openai.ImageGenerateParams{
		Prompt:         prompt,
		Model:          openai.ImageModel(g.Model),
		N:              openai.Int(1),
		Size:           openai.ImageGenerateParamsSize1024x1024,
		Quality:        openai.ImageGenerateParamsQualityStandard,
		ResponseFormat: openai.ImageGenerateParamsResponseFormatURL,
	})
	if err != nil {
		return "", fmt.Errorf("generate image: %w", err)
	}
	if len(resp.Data) == 0 || resp.Data[0].URL == "" {
		return "", errors.New("generate image: empty response")
	}
	return resp.Data[0].URL, nil
}

// ImageStudio generates an image and rehosts it on the Facebook page so the
// URL stays valid long enough for every platform to fetch it.
type ImageStudio struct {
	gen      ImageGenerator
	host     PhotoHost
	tempDir  string
	maxBytes int64
	client   *http.Client
	logger   *zap.Logger
}

func NewImageStudio(gen ImageGenerator, host PhotoHost, cfg config.ImagesConfig, logger *zap.Logger) *ImageStudio {
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := cfg.DownloadTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	dir := cfg.TempDir
	if dir == "" {
		dir = os.TempDir()
	}
	return &ImageStudio{
		gen:      gen,
		host:     host,
		tempDir:  dir,
		maxBytes: maxImageBytes,
		client:   &http.Client{Timeout: timeout},
		logger:   logger.Named("images"),
	}
}

// Create returns a public URL for an image matching prompt.
func (s *ImageStudio) Create(ctx context.Context, prompt string) (string, error) {
	if strings.TrimSpace(prompt) == "" {
		return "", errors.New("image prompt is empty")
	}
	s.logger.Info("generating image", zap.String("prompt", prompt))
	sourceURL, err := s.gen.Generate(ctx, EnhanceImagePrompt(prompt))
	if err != nil {
		return "", err
	}

	path, err := s.download(ctx, sourceURL)
	if err != nil {
		return "", err
	}
	defer func() {
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			s.logger.Warn("remove temp image", zap.String("path", path), zap.Error(err))
		}
	}()

	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	photoID, err := s.host.UploadUnpublishedPhoto(ctx, filepath.Base(path), f)
	if err != nil {
		return "", fmt.Errorf("rehost image: %w", err)
	}
	public := s.host.PhotoURL(photoID)
	s.logger.Info("image ready", zap.String("photo_id", photoID))
	return public, nil
}

func (s *ImageStudio) download(ctx context.Context, sourceURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, sourceURL, nil)
	if err != nil {
		return "", err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("download image: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("download image: status %d", resp.StatusCode)
	}

	if err := os.MkdirAll(s.tempDir, 0o755); err != nil {
		return "", err
	}
	name := fmt.Sprintf("generated_image_%s.png", strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
	path := filepath.Join(s.tempDir, name)
	out, err := os.Create(path)
	if err != nil {
		return "", err
	}
	if err := copyImage(out, resp.Body, s.maxBytes); err != nil {
		out.Close()
		os.Remove(path)
		return "", fmt.Errorf("download image: %w", err)
	}
	if err := out.Close(); err != nil {
		os.Remove(path)
		return "", err
	}
	return path, nil
}
