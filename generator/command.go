package generator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

const (
	fallbackTitle       = "Publicación en redes sociales"
	fallbackImagePrompt = "imagen moderna y atractiva para redes sociales"
)

// Analyzer turns a free-text command into a CommandIntent. The model is asked
// first; any failure falls back to keyword matching, so Analyze never fails.
type Analyzer struct {
	llm      LLMClient
	profiles *ProfileTable
	logger   *zap.Logger
}

// NewAnalyzer accepts a nil llm, in which case only keyword matching is used.
// Platforms reported by the model are checked against the default table.
func NewAnalyzer(llm LLMClient, logger *zap.Logger) *Analyzer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Analyzer{llm: llm, profiles: DefaultProfileTable(), logger: logger.Named("analyzer")}
}

// UseProfiles replaces the table model-reported platforms are checked against.
func (a *Analyzer) UseProfiles(t *ProfileTable) *Analyzer {
	if t != nil {
		a.profiles = t
	}
	return a
}

func (a *Analyzer) Analyze(ctx context.Context, command string) CommandIntent {
	intent, err := a.analyzeWithModel(ctx, command)
	if err != nil {
		a.logger.Warn("command analysis failed, using keyword fallback", zap.Error(err))
		return KeywordIntent(command)
	}
	a.logger.Info("command analyzed",
		zap.Strings("platforms", intent.PlatformIDs()),
		zap.Bool("needs_image", intent.NeedsImage))
	return intent
}

type rawIntent struct {
	Platforms   []string `json:"platforms"`
	Title       string   `json:"title"`
	Content     string   `json:"content"`
	NeedsImage  *bool    `json:"needs_image"`
	ImagePrompt string   `json:"image_prompt"`
}

func (a *Analyzer) analyzeWithModel(ctx context.Context, command string) (CommandIntent, error) {
	if a.llm == nil {
		return CommandIntent{}, errors.New("no model configured")
	}
	raw, err := a.llm.Complete(ctx, BuildAnalyzerPrompt(command))
	if err != nil {
		return CommandIntent{}, err
	}

	var ri rawIntent
	if err := json.Unmarshal([]byte(ExtractJSON(raw)), &ri); err != nil {
		return CommandIntent{}, &MalformedResponseError{Platform: "command", Reason: "invalid JSON", Err: err}
	}

	platforms, unknown := a.knownPlatforms(ri.Platforms)
	if len(unknown) > 0 {
		a.logger.Debug("ignoring unknown platforms from analysis", zap.Strings("platforms", unknown))
	}
	if len(platforms) == 0 {
		return CommandIntent{}, &MalformedResponseError{Platform: "command", Reason: "no known platforms in analysis"}
	}

	intent := CommandIntent{
		Platforms:   platforms,
		Title:       strings.TrimSpace(ri.Title),
		Content:     strings.TrimSpace(ri.Content),
		ImagePrompt: strings.TrimSpace(ri.ImagePrompt),
		Source:      SourceModel,
	}
	if intent.Content == "" {
		intent.Content = command
	}
	if ri.NeedsImage != nil {
		intent.NeedsImage = *ri.NeedsImage
	} else {
		intent.NeedsImage = wantsImage(platforms)
	}
	if intent.NeedsImage && intent.ImagePrompt == "" {
		intent.ImagePrompt = fallbackImagePrompt
	}
	return intent, nil
}

// KeywordIntent is the deterministic reading of a command used when the model
// cannot be consulted. Matching is case-insensitive substring search.
func KeywordIntent(command string) CommandIntent {
	lower := strings.ToLower(command)
	var platforms []Platform

	if strings.Contains(lower, "instagram") || strings.Contains(lower, "insta") {
		platforms = append(platforms, Instagram)
	}
	if strings.Contains(lower, "facebook") || strings.Contains(lower, "fb") {
		platforms = append(platforms, Facebook)
	}
	if strings.Contains(lower, "linkedin") {
		platforms = append(platforms, LinkedIn)
	}

	switch {
	case strings.Contains(lower, "todas las redes") || strings.Contains(lower, "all platforms"):
		platforms = []Platform{Facebook, Instagram, LinkedIn}
	case len(platforms) == 0:
		platforms = []Platform{Facebook, Instagram}
	}

	return CommandIntent{
		Platforms:   platforms,
		Title:       fallbackTitle,
		Content:     command,
		NeedsImage:  wantsImage(platforms),
		ImagePrompt: fallbackImagePrompt,
		Source:      SourceKeywords,
	}
}

func wantsImage(platforms []Platform) bool {
	for _, p := range platforms {
		if p == Instagram || p == LinkedIn {
			return true
		}
	}
	return false
}

// knownPlatforms normalizes and dedupes ids, splitting off those missing from
// the profile table.
func (a *Analyzer) knownPlatforms(ids []string) (known []Platform, unknown []string) {
	seen := make(map[Platform]bool, len(ids))
	for _, id := range ids {
		p := Platform(strings.ToLower(strings.TrimSpace(id)))
		if p == "" || seen[p] {
			continue
		}
		seen[p] = true
		if _, err := a.profiles.Lookup(string(p)); err != nil {
			unknown = append(unknown, string(p))
			continue
		}
		known = append(known, p)
	}
	return known, unknown
}

// String renders the intent for logs and CLI output.
func (c CommandIntent) String() string {
	return fmt.Sprintf("%s platforms=%v image=%t title=%q", c.Source, c.Platforms, c.NeedsImage, c.Title)
}
