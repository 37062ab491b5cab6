package publisher

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"social_post_publisher/generator"
)

var (
	ErrImageRequired = errors.New("instagram requires an image")
	ErrNotConfigured = errors.New("publisher credentials not configured")
	ErrImageTooLarge = errors.New("image exceeds size limit")
)

// maxImageBytes caps every image fetched for re-upload.
const maxImageBytes = 20 << 20

// APIError is a rejected call to a platform API.
type APIError struct {
	Platform string
	Status   int
	Body     string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s api error (status %d): %s", e.Platform, e.Status, e.Body)
}

// Receipt describes one successful publication.
type Receipt struct {
	Platform string         `json:"platform"`
	Status   string         `json:"status"`
	Type     string         `json:"type"`
	Response map[string]any `json:"response,omitempty"`
}

// Publishable lists the platforms Dispatcher can post to.
func Publishable() []string {
	return []string{string(generator.Facebook), string(generator.Instagram), string(generator.LinkedIn)}
}

// Dispatcher routes generated text (and an optional image) to the right platform client.
type Dispatcher struct {
	meta     *MetaClient
	linkedin *LinkedInClient
	logger   *zap.Logger
}

func NewDispatcher(meta *MetaClient, linkedin *LinkedInClient, logger *zap.Logger) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{meta: meta, linkedin: linkedin, logger: logger.Named("dispatcher")}
}

// Publish posts text to one platform. With an image URL facebook and linkedin
// publish a photo post; instagram always needs one.
func (d *Dispatcher) Publish(ctx context.Context, platform, text, imageURL string) (Receipt, error) {
	kind := "text"
	if imageURL != "" {
		kind = "image"
	}
	d.logger.Info("publishing", zap.String("platform", platform), zap.String("type", kind))

	var (
		resp map[string]any
		err  error
	)
	switch generator.Platform(platform) {
	case generator.Facebook:
		if d.meta == nil {
			return Receipt{}, ErrNotConfigured
		}
		if imageURL != "" {
			resp, err = d.meta.PostImage(ctx, imageURL, text)
		} else {
			resp, err = d.meta.PostText(ctx, text)
		}
	case generator.Instagram:
		if imageURL == "" {
			return Receipt{}, ErrImageRequired
		}
		if d.meta == nil {
			return Receipt{}, ErrNotConfigured
		}
		var ig InstagramResult
		ig, err = d.meta.PublishInstagram(ctx, imageURL, text)
		resp = map[string]any{
			"creation_id":       ig.CreationID,
			"creation_response": ig.CreationResponse,
			"publish_response":  ig.PublishResponse,
		}
	case generator.LinkedIn:
		if d.linkedin == nil {
			return Receipt{}, ErrNotConfigured
		}
		if imageURL != "" {
			resp, err = d.linkedin.PostWithImage(ctx, text, imageURL)
		} else {
			resp, err = d.linkedin.PostText(ctx, text)
		}
	default:
		return Receipt{}, fmt.Errorf("%w for publishing: %s", generator.ErrUnsupportedPlatform, platform)
	}
	if err != nil {
		d.logger.Error("publish failed", zap.String("platform", platform), zap.Error(err))
		return Receipt{}, err
	}
	return Receipt{Platform: platform, Status: "published", Type: kind, Response: resp}, nil
}

func defaultHTTPClient(client *http.Client) *http.Client {
	if client != nil {
		return client
	}
	return &http.Client{Timeout: 60 * time.Second}
}

// copyImage copies at most limit bytes from src into dst.
func copyImage(dst io.Writer, src io.Reader, limit int64) error {
	n, err := io.Copy(dst, io.LimitReader(src, limit+1))
	if err != nil {
		return err
	}
	if n > limit {
		return fmt.Errorf("%w (%d bytes)", ErrImageTooLarge, limit)
	}
	return nil
}

// doJSON sends req and decodes a JSON object reply. Non-2xx statuses and
// Graph-style {"error": ...} bodies become *APIError.
func doJSON(client *http.Client, req *http.Request, platform string) (map[string]any, error) {
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &APIError{Platform: platform, Status: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}
	data := map[string]any{}
	if len(bytes.TrimSpace(body)) == 0 {
		return data, nil
	}
	if err := json.Unmarshal(body, &data); err != nil {
		return nil, fmt.Errorf("%s: decode response: %w", platform, err)
	}
	if apiErr, ok := data["error"]; ok {
		raw, _ := json.Marshal(apiErr)
		return nil, &APIError{Platform: platform, Status: resp.StatusCode, Body: string(raw)}
	}
	return data, nil
}
