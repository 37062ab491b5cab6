package main

import (
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"social_post_publisher/config"
	"social_post_publisher/generator"
	"social_post_publisher/publisher"
	"social_post_publisher/server"
	"social_post_publisher/workflow"
)

// app holds every component built from one configuration.
type app struct {
	cfg         config.Config
	logger      *zap.Logger
	transformer *generator.Transformer
	dispatcher  *publisher.Dispatcher
	content     *workflow.ContentService
	commands    *workflow.CommandService
}

func buildApp(cfg config.Config, logger *zap.Logger) (*app, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	llm, err := buildLLM(cfg.LLM)
	if err != nil {
		return nil, err
	}
	profiles, err := buildProfiles(cfg.Generation.Platforms)
	if err != nil {
		return nil, err
	}
	transformer, err := generator.NewTransformer(llm, profiles,
		generator.WithLogger(logger),
		generator.WithConcurrency(cfg.Generation.Concurrency),
		generator.WithStrictLimits(cfg.Generation.StrictLimits))
	if err != nil {
		return nil, err
	}

	httpClient := &http.Client{Timeout: 60 * time.Second}
	meta := publisher.NewMetaClient(cfg.Meta, httpClient, logger)
	linkedin := publisher.NewLinkedInClient(cfg.LinkedIn, httpClient, logger)
	dispatcher := publisher.NewDispatcher(meta, linkedin, logger)

	var images workflow.ImageCreator
	if studio := buildImageStudio(cfg, meta, logger); studio != nil {
		images = studio
	}

	return &app{
		cfg:         cfg,
		logger:      logger,
		transformer: transformer,
		dispatcher:  dispatcher,
		content:     workflow.NewContentService(transformer, dispatcher, logger),
		commands:    workflow.NewCommandService(generator.NewAnalyzer(llm, logger).UseProfiles(profiles), transformer, images, dispatcher, logger),
	}, nil
}

func (a *app) server() (*server.Server, error) {
	return server.New(server.Options{
		Content:        a.content,
		Commands:       a.commands,
		Publisher:      a.dispatcher,
		Diagnostics:    func() config.Diagnostics { return a.cfg.Diagnostics(publisher.Publishable()) },
		RequestTimeout: a.cfg.Server.RequestTimeout,
		Logger:         a.logger,
	})
}

func buildLLM(cfg config.LLMConfig) (generator.LLMClient, error) {
	settings := &generator.LLMSettings{
		Provider:  cfg.Provider,
		Model:     cfg.Model,
		APIKey:    cfg.APIKey,
		BaseURL:   cfg.BaseURL,
		MaxTokens: cfg.MaxTokens,
	}
	switch cfg.Provider {
	case "openai":
		return generator.NewOpenAILLMFromConfig(settings)
	case "deepseek":
		if cfg.BaseURL == "" {
			return nil, fmt.Errorf("llm provider deepseek requires base_url (OpenAI-compatible endpoint)")
		}
		return generator.NewOpenAILLMFromConfig(settings)
	case "mock":
		return generator.MockLLM{}, nil
	default:
		return nil, fmt.Errorf("llm provider %s not supported", cfg.Provider)
	}
}

// buildImageStudio returns nil when no image model is reachable.
func buildImageStudio(cfg config.Config, host publisher.PhotoHost, logger *zap.Logger) *publisher.ImageStudio {
	if cfg.LLM.Provider != "openai" || cfg.LLM.APIKey == "" {
		logger.Info("image generation disabled", zap.String("provider", cfg.LLM.Provider))
		return nil
	}
	gen, err := publisher.NewOpenAIImageGenerator(&generator.LLMSettings{
		APIKey:     cfg.LLM.APIKey,
		BaseURL:    cfg.LLM.BaseURL,
		ImageModel: cfg.LLM.ImageModel,
	})
	if err != nil {
		logger.Warn("image generation disabled", zap.Error(err))
		return nil
	}
	return publisher.NewImageStudio(gen, host, cfg.Images, logger)
}

// buildProfiles applies configured overrides to the built-in platform table.
// An override for an unknown platform adds it and must set both fields.
func buildProfiles(overrides map[string]config.PlatformOverride) (*generator.ProfileTable, error) {
	if len(overrides) == 0 {
		return generator.DefaultProfileTable(), nil
	}
	profiles := generator.DefaultProfiles()
	known := make(map[generator.Platform]int, len(profiles))
	for i, p := range profiles {
		known[p.Platform] = i
	}
	for id, o := range overrides {
		platform := generator.Platform(id)
		i, ok := known[platform]
		if !ok {
			if o.CharacterLimit <= 0 || o.Creativity == nil {
				return nil, fmt.Errorf("platform %s: new platforms need character_limit and creativity", id)
			}
			profiles = append(profiles, generator.Profile{Platform: platform, CharacterLimit: o.CharacterLimit, Creativity: *o.Creativity})
			continue
		}
		if o.CharacterLimit > 0 {
			profiles[i].CharacterLimit = o.CharacterLimit
		}
		if o.Creativity != nil {
			profiles[i].Creativity = *o.Creativity
		}
	}
	return generator.NewProfileTable(profiles...)
}
