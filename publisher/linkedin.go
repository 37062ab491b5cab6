package publisher

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"social_post_publisher/config"
)

const uploadMechanismKey = "com.linkedin.digitalmedia.uploading.MediaUploadHttpRequest"

// LinkedInClient publishes UGC posts through the LinkedIn v2 API.
type LinkedInClient struct {
	baseURL    string
	token      string
	personalID string
	orgID      string
	maxImage   int64
	client     *http.Client
	logger     *zap.Logger
}

func NewLinkedInClient(cfg config.LinkedInConfig, client *http.Client, logger *zap.Logger) *LinkedInClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LinkedInClient{
		baseURL:    strings.TrimRight(cfg.APIURL, "/"),
		token:      cfg.AccessToken,
		personalID: cfg.PersonalID,
		orgID:      cfg.OrgID,
		maxImage:   maxImageBytes,
		client:     defaultHTTPClient(client),
		logger:     logger.Named("linkedin"),
	}
}

// author prefers the member URN and falls back to the organization.
func (l *LinkedInClient) author() (string, error) {
	if l.token == "" {
		return "", fmt.Errorf("%w: linkedin.access_token", ErrNotConfigured)
	}
	switch {
	case l.personalID != "":
		return "urn:li:person:" + l.personalID, nil
	case l.orgID != "":
		return "urn:li:organization:" + l.orgID, nil
	default:
		return "", fmt.Errorf("%w: linkedin.personal_id or linkedin.org_id", ErrNotConfigured)
	}
}

type shareText struct {
	Text string `json:"text"`
}

type shareMedia struct {
	Status      string    `json:"status"`
	Description shareText `json:"description"`
	Media       string    `json:"media"`
	Title       shareText `json:"title"`
}

type shareContent struct {
	ShareCommentary    shareText    `json:"shareCommentary"`
	ShareMediaCategory string       `json:"shareMediaCategory"`
	Media              []shareMedia `json:"media,omitempty"`
}

type ugcPost struct {
	Author          string                  `json:"author"`
	LifecycleState  string                  `json:"lifecycleState"`
	SpecificContent map[string]shareContent `json:"specificContent"`
	Visibility      map[string]string       `json:"visibility"`
}

func newUGCPost(author string, content shareContent) ugcPost {
	return ugcPost{
		Author:          author,
		LifecycleState:  "PUBLISHED",
		SpecificContent: map[string]shareContent{"com.linkedin.ugc.ShareContent": content},
		Visibility:      map[string]string{"com.linkedin.ugc.MemberNetworkVisibility": "PUBLIC"},
	}
}

func (l *LinkedInClient) postJSON(ctx context.Context, url string, payload any) (*http.Response, []byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(raw))
	if err != nil {
		return nil, nil, err
	}
	req.Header.Set("Authorization", "Bearer "+l.token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Restli-Protocol-Version", "2.0.0")

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, nil, err
	}
	return resp, body, nil
}

func (l *LinkedInClient) publish(ctx context.Context, post ugcPost) (map[string]any, error) {
	resp, body, err := l.postJSON(ctx, l.baseURL+"/ugcPosts", post)
	if err != nil {
		return nil, err
	}
	l.logger.Debug("ugcPosts response", zap.Int("status", resp.StatusCode))
	if resp.StatusCode != http.StatusCreated {
		return nil, &APIError{Platform: "linkedin", Status: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}
	data := map[string]any{}
	if len(bytes.TrimSpace(body)) > 0 {
		if err := json.Unmarshal(body, &data); err != nil {
			return nil, fmt.Errorf("linkedin: decode response: %w", err)
		}
	}
	if id := resp.Header.Get("X-RestLi-Id"); id != "" {
		data["id"] = id
	}
	return data, nil
}

// PostText publishes a text-only share.
func (l *LinkedInClient) PostText(ctx context.Context, text string) (map[string]any, error) {
	author, err := l.author()
	if err != nil {
		return nil, err
	}
	return l.publish(ctx, newUGCPost(author, shareContent{
		ShareCommentary:    shareText{Text: text},
		ShareMediaCategory: "NONE",
	}))
}

// PostWithImage uploads the image at imageURL as a LinkedIn asset and
// publishes a share that embeds it.
func (l *LinkedInClient) PostWithImage(ctx context.Context, text, imageURL string) (map[string]any, error) {
	author, err := l.author()
	if err != nil {
		return nil, err
	}
	asset, err := l.uploadImage(ctx, author, imageURL)
	if err != nil {
		return nil, fmt.Errorf("linkedin image upload: %w", err)
	}
	return l.publish(ctx, newUGCPost(author, shareContent{
		ShareCommentary:    shareText{Text: text},
		ShareMediaCategory: "IMAGE",
		Media: []shareMedia{{
			Status:      "READY",
			Description: shareText{Text: "Imagen generada con IA"},
			Media:       asset,
			Title:       shareText{Text: "Publicación con imagen"},
		}},
	}))
}

type registerUploadResponse struct {
	Value struct {
		Asset           string `json:"asset"`
		UploadMechanism map[string]struct {
			UploadURL string `json:"uploadUrl"`
		} `json:"uploadMechanism"`
	} `json:"value"`
}

func (l *LinkedInClient) uploadImage(ctx context.Context, owner, imageURL string) (string, error) {
	register := map[string]any{
		"registerUploadRequest": map[string]any{
			"recipes": []string{"urn:li:digitalmediaRecipe:feedshare-image"},
			"owner":   owner,
			"serviceRelationships": []map[string]string{{
				"relationshipType": "OWNER",
				"identifier":       "urn:li:userGeneratedContent",
			}},
		},
	}
	resp, body, err := l.postJSON(ctx, l.baseURL+"/assets?action=registerUpload", register)
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		return "", &APIError{Platform: "linkedin", Status: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}
	var reg registerUploadResponse
	if err := json.Unmarshal(body, &reg); err != nil {
		return "", fmt.Errorf("decode registerUpload: %w", err)
	}
	uploadURL := reg.Value.UploadMechanism[uploadMechanismKey].UploadURL
	if uploadURL == "" || reg.Value.Asset == "" {
		return "", fmt.Errorf("registerUpload returned no upload url or asset")
	}

	image, err := l.download(ctx, imageURL)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, uploadURL, bytes.NewReader(image))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+l.token)
	req.Header.Set("Content-Type", "application/octet-stream")
	upResp, err := l.client.Do(req)
	if err != nil {
		return "", err
	}
	defer upResp.Body.Close()
	if upResp.StatusCode != http.StatusOK && upResp.StatusCode != http.StatusCreated {
		msg, _ := io.ReadAll(io.LimitReader(upResp.Body, 4096))
		return "", &APIError{Platform: "linkedin", Status: upResp.StatusCode, Body: strings.TrimSpace(string(msg))}
	}
	l.logger.Info("image uploaded", zap.String("asset", reg.Value.Asset))
	return reg.Value.Asset, nil
}

func (l *LinkedInClient) download(ctx context.Context, imageURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := l.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download image: status %d", resp.StatusCode)
	}
	var buf bytes.Buffer
	if err := copyImage(&buf, resp.Body, l.maxImage); err != nil {
		return nil, fmt.Errorf("download image: %w", err)
	}
	return buf.Bytes(), nil
}
