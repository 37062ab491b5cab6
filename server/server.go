package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"social_post_publisher/config"
	"social_post_publisher/generator"
	"social_post_publisher/publisher"
	"social_post_publisher/workflow"
)

const serviceName = "Social Publisher API - LLM content generation and automatic publishing"

const maxRequestBytes = 1 << 20

var defaultPlatforms = []string{"facebook", "instagram"}

// Options carries the collaborators of the HTTP API.
type Options struct {
	Content        *workflow.ContentService
	Commands       *workflow.CommandService
	Publisher      workflow.Publisher
	Diagnostics    func() config.Diagnostics
	RequestTimeout time.Duration
	Logger         *zap.Logger
}

type Server struct {
	content   *workflow.ContentService
	commands  *workflow.CommandService
	publisher workflow.Publisher
	diag      func() config.Diagnostics
	timeout   time.Duration
	logger    *zap.Logger
}

func New(opts Options) (*Server, error) {
	if opts.Content == nil || opts.Commands == nil {
		return nil, errors.New("content and command services required")
	}
	if opts.Publisher == nil {
		return nil, errors.New("publisher required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := opts.RequestTimeout
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return &Server{
		content:   opts.Content,
		commands:  opts.Commands,
		publisher: opts.Publisher,
		diag:      opts.Diagnostics,
		timeout:   timeout,
		logger:    logger.Named("http"),
	}, nil
}

func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/publish/instagram", s.post(s.handlePublishInstagram))
	mux.HandleFunc("/publish/facebook/text", s.post(s.handlePublishText("facebook")))
	mux.HandleFunc("/publish/facebook/image", s.post(s.handlePublishImage("facebook")))
	mux.HandleFunc("/publish/linkedin/text", s.post(s.handlePublishText("linkedin")))
	mux.HandleFunc("/publish/linkedin/image", s.post(s.handlePublishImage("linkedin")))
	mux.HandleFunc("/generate-content", s.post(s.handleGenerate))
	mux.HandleFunc("/preview-content", s.post(s.handlePreview))
	mux.HandleFunc("/smart-publish", s.post(s.handleSmartPublish))
	mux.HandleFunc("/diagnostics", s.get(s.handleDiagnostics))
	mux.HandleFunc("/", s.handleRoot)
	return s.logMiddleware(mux)
}

// --- Handlers ---

type instagramReq struct {
	ImageURL string `json:"image_url"`
	Caption  string `json:"caption"`
}

type textReq struct {
	Message string `json:"message"`
}

type imageReq struct {
	ImageURL string `json:"image_url"`
	Caption  string `json:"caption"`
	Message  string `json:"message"`
}

type previewReq struct {
	Heading   string   `json:"heading"`
	Material  string   `json:"material"`
	Platforms []string `json:"platforms"`
}

type commandReq struct {
	Command  string `json:"command"`
	TestMode bool   `json:"test_mode"`
}

type envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data"`
}

func (s *Server) handlePublishInstagram(w http.ResponseWriter, r *http.Request) {
	var req instagramReq
	if !decode(w, r, &req) {
		return
	}
	if req.ImageURL == "" {
		writeError(w, http.StatusBadRequest, "image_url is required")
		return
	}
	s.publish(w, r, "instagram", req.Caption, req.ImageURL)
}

func (s *Server) handlePublishText(platform string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req textReq
		if !decode(w, r, &req) {
			return
		}
		if strings.TrimSpace(req.Message) == "" {
			writeError(w, http.StatusBadRequest, "message is required")
			return
		}
		s.publish(w, r, platform, req.Message, "")
	}
}

// handlePublishImage accepts caption (facebook) or message (linkedin) as the text.
func (s *Server) handlePublishImage(platform string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req imageReq
		if !decode(w, r, &req) {
			return
		}
		if req.ImageURL == "" {
			writeError(w, http.StatusBadRequest, "image_url is required")
			return
		}
		text := req.Caption
		if text == "" {
			text = req.Message
		}
		s.publish(w, r, platform, text, req.ImageURL)
	}
}

func (s *Server) publish(w http.ResponseWriter, r *http.Request, platform, text, imageURL string) {
	ctx, cancel := context.WithTimeout(r.Context(), s.timeout)
	defer cancel()
	receipt, err := s.publisher.Publish(ctx, platform, text, imageURL)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, receipt)
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var req workflow.GenerateRequest
	if !decode(w, r, &req) {
		return
	}
	if req.Platforms == nil {
		req.Platforms = defaultPlatforms
	}
	ctx, cancel := context.WithTimeout(r.Context(), s.timeout)
	defer cancel()
	report, err := s.content.GenerateAndPublish(ctx, req)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	msg := "content generated"
	if req.AutoPublish {
		msg += " and published"
	}
	writeJSON(w, http.StatusOK, envelope{Success: true, Message: msg, Data: report})
}

func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	var req previewReq
	if !decode(w, r, &req) {
		return
	}
	if req.Platforms == nil {
		req.Platforms = defaultPlatforms
	}
	ctx, cancel := context.WithTimeout(r.Context(), s.timeout)
	defer cancel()
	report, err := s.content.Preview(ctx, req.Heading, req.Material, req.Platforms)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, envelope{Success: true, Message: "preview generated", Data: report})
}

func (s *Server) handleSmartPublish(w http.ResponseWriter, r *http.Request) {
	var req commandReq
	if !decode(w, r, &req) {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), s.timeout)
	defer cancel()
	report := s.commands.Process(ctx, req.Command, req.TestMode)
	msg := "command processed"
	if !report.Success {
		msg = "command failed"
	}
	writeJSON(w, http.StatusOK, envelope{Success: report.Success, Message: msg, Data: report})
}

func (s *Server) handleDiagnostics(w http.ResponseWriter, r *http.Request) {
	if s.diag == nil {
		writeError(w, http.StatusNotFound, "diagnostics disabled")
		return
	}
	writeJSON(w, http.StatusOK, s.diag())
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message": serviceName,
		"features": []string{
			"LLM content generation per platform",
			"Platform tuning for Facebook, Instagram, LinkedIn, TikTok and WhatsApp",
			"Automatic publishing to Facebook, Instagram and LinkedIn",
			"Preview before publishing",
			"Image suggestions and generated images",
			"Natural-language publishing commands",
		},
		"endpoints": map[string]string{
			"/smart-publish":          "natural-language command with image generation",
			"/generate-content":       "generate and optionally publish content",
			"/preview-content":        "preview generated content",
			"/publish/instagram":      "publish an image on Instagram",
			"/publish/facebook/text":  "publish text on Facebook",
			"/publish/facebook/image": "publish an image on Facebook",
			"/publish/linkedin/text":  "publish text on LinkedIn",
			"/publish/linkedin/image": "publish an image on LinkedIn",
			"/diagnostics":            "configuration check",
		},
	})
}

// --- Helpers ---

func (s *Server) post(h http.HandlerFunc) http.HandlerFunc {
	return s.method(http.MethodPost, h)
}

func (s *Server) get(h http.HandlerFunc) http.HandlerFunc {
	return s.method(http.MethodGet, h)
}

func (s *Server) method(m string, h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != m {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		h(w, r)
	}
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes)).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit))
			return false
		}
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return false
	}
	return true
}

func statusFor(err error) int {
	var apiErr *publisher.APIError
	switch {
	case errors.As(err, &apiErr):
		return http.StatusBadGateway
	case errors.Is(err, publisher.ErrImageRequired),
		errors.Is(err, generator.ErrUnsupportedPlatform),
		errors.Is(err, generator.ErrNoPlatforms),
		errors.Is(err, generator.ErrNoSupportedPlatform),
		errors.Is(err, workflow.ErrNoPublishablePlatform):
		return http.StatusBadRequest
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"detail": msg})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) logMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.Info("request",
			zap.String("request_id", id),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("elapsed", time.Since(start)))
	})
}
