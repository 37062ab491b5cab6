package publisher

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"social_post_publisher/config"
)

// MetaClient talks to the Graph API for a Facebook page and its linked
// Instagram business account.
type MetaClient struct {
	baseURL  string
	pageID   string
	igUserID string
	token    string
	client   *http.Client
	logger   *zap.Logger
}

// InstagramResult collects both steps of an Instagram publication.
type InstagramResult struct {
	CreationID       string
	CreationResponse map[string]any
	PublishResponse  map[string]any
}

func NewMetaClient(cfg config.MetaConfig, client *http.Client, logger *zap.Logger) *MetaClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MetaClient{
		baseURL:  cfg.BaseURL(),
		pageID:   cfg.PageID,
		igUserID: cfg.IGUserID,
		token:    cfg.PageAccessToken,
		client:   defaultHTTPClient(client),
		logger:   logger.Named("meta"),
	}
}

func (m *MetaClient) requirePage() error {
	if m.pageID == "" || m.token == "" {
		return fmt.Errorf("%w: meta.page_id and meta.page_access_token", ErrNotConfigured)
	}
	return nil
}

func (m *MetaClient) postForm(ctx context.Context, platform, path string, form url.Values) (map[string]any, error) {
	form.Set("access_token", m.token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.baseURL+path, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return doJSON(m.client, req, platform)
}

// PostText publishes a text status on the page feed.
func (m *MetaClient) PostText(ctx context.Context, message string) (map[string]any, error) {
	if err := m.requirePage(); err != nil {
		return nil, err
	}
	form := url.Values{}
	form.Set("message", message)
	return m.postForm(ctx, "facebook", "/"+m.pageID+"/feed", form)
}

// PostImage publishes a photo from a public URL with a caption.
func (m *MetaClient) PostImage(ctx context.Context, imageURL, caption string) (map[string]any, error) {
	if err := m.requirePage(); err != nil {
		return nil, err
	}
	form := url.Values{}
	form.Set("url", imageURL)
	form.Set("caption", caption)
	return m.postForm(ctx, "facebook", "/"+m.pageID+"/photos", form)
}

// UploadUnpublishedPhoto stores an image on the page without posting it and
// returns the photo id.
func (m *MetaClient) UploadUnpublishedPhoto(ctx context.Context, filename string, r io.Reader) (string, error) {
	if err := m.requirePage(); err != nil {
		return "", err
	}

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("source", filename)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(part, r); err != nil {
		return "", err
	}
	if err := writer.WriteField("published", "false"); err != nil {
		return "", err
	}
	if err := writer.WriteField("access_token", m.token); err != nil {
		return "", err
	}
	if err := writer.Close(); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.baseURL+"/"+m.pageID+"/photos", &body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	data, err := doJSON(m.client, req, "facebook")
	if err != nil {
		return "", err
	}
	id, _ := data["id"].(string)
	if id == "" {
		return "", fmt.Errorf("failed to upload photo: no id in %v", data)
	}
	m.logger.Info("photo uploaded", zap.String("photo_id", id))
	return id, nil
}

// PhotoURL is the public picture URL of an uploaded photo.
func (m *MetaClient) PhotoURL(photoID string) string {
	return fmt.Sprintf("%s/%s/picture?access_token=%s", m.baseURL, photoID, url.QueryEscape(m.token))
}

// CreateInstagramMedia creates a media container and returns its id.
func (m *MetaClient) CreateInstagramMedia(ctx context.Context, imageURL, caption string) (string, map[string]any, error) {
	if m.igUserID == "" || m.token == "" {
		return "", nil, fmt.Errorf("%w: meta.ig_user_id and meta.page_access_token", ErrNotConfigured)
	}
	form := url.Values{}
	form.Set("image_url", imageURL)
	form.Set("caption", caption)
	data, err := m.postForm(ctx, "instagram", "/"+m.igUserID+"/media", form)
	if err != nil {
		return "", nil, err
	}
	id, _ := data["id"].(string)
	if id == "" {
		return "", data, fmt.Errorf("error creating instagram media: %v", data)
	}
	return id, data, nil
}

// PublishInstagramMedia publishes a container created by CreateInstagramMedia.
func (m *MetaClient) PublishInstagramMedia(ctx context.Context, creationID string) (map[string]any, error) {
	form := url.Values{}
	form.Set("creation_id", creationID)
	return m.postForm(ctx, "instagram", "/"+m.igUserID+"/media_publish", form)
}

// PublishInstagram creates and publishes an image post in one go.
func (m *MetaClient) PublishInstagram(ctx context.Context, imageURL, caption string) (InstagramResult, error) {
	id, created, err := m.CreateInstagramMedia(ctx, imageURL, caption)
	if err != nil {
		return InstagramResult{}, err
	}
	m.logger.Info("instagram media created", zap.String("creation_id", id))

	published, err := m.PublishInstagramMedia(ctx, id)
	if err != nil {
		return InstagramResult{CreationID: id, CreationResponse: created}, err
	}
	return InstagramResult{CreationID: id, CreationResponse: created, PublishResponse: published}, nil
}
