package generator

// Content is the part of a generated post shared by every platform.
type Content struct {
	Text     string   `json:"text"`
	Hashtags []string `json:"hashtags"`
	// CharacterCount is always recomputed from Text, never taken from the model.
	CharacterCount int    `json:"character_count"`
	Tone           string `json:"tone"`
}

// Post is a generated post for one platform. The concrete type tells which
// platform-only fields exist: StandardPost, ImagePost (instagram) or VideoPost (tiktok).
type Post interface {
	Body() Content
	isPost()
}

// StandardPost is used for platforms without media suggestions.
type StandardPost struct {
	Content
}

// ImagePost carries the model's suggestion for an accompanying image.
type ImagePost struct {
	Content
	SuggestedImagePrompt string `json:"suggested_image_prompt,omitempty"`
}

// VideoPost carries the model's suggestion for an accompanying video.
type VideoPost struct {
	Content
	SuggestedVideoPrompt string `json:"suggested_video_prompt,omitempty"`
}

func (p StandardPost) Body() Content { return p.Content }
func (p ImagePost) Body() Content    { return p.Content }
func (p VideoPost) Body() Content    { return p.Content }

func (StandardPost) isPost() {}
func (ImagePost) isPost()    {}
func (VideoPost) isPost()    {}

// ImagePrompt returns the suggested image prompt, if the post has one.
func ImagePrompt(p Post) (string, bool) {
	ip, ok := p.(ImagePost)
	if !ok || ip.SuggestedImagePrompt == "" {
		return "", false
	}
	return ip.SuggestedImagePrompt, true
}

// VideoPrompt returns the suggested video prompt, if the post has one.
func VideoPrompt(p Post) (string, bool) {
	vp, ok := p.(VideoPost)
	if !ok || vp.SuggestedVideoPrompt == "" {
		return "", false
	}
	return vp.SuggestedVideoPrompt, true
}

// Result is the outcome of a multi-platform transformation.
//
// Every distinct requested platform id appears in exactly one of Successes or
// Errors. Unsupported ids are reported in Errors, so callers that only read
// Successes will not see them. Warnings annotates entries of Successes (for
// example a soft character-limit violation).
type Result struct {
	Successes map[string]Post     `json:"successes"`
	Errors    map[string]string   `json:"errors"`
	Warnings  map[string][]string `json:"warnings,omitempty"`
}

func newResult() Result {
	return Result{
		Successes: make(map[string]Post),
		Errors:    make(map[string]string),
		Warnings:  make(map[string][]string),
	}
}

// Intent sources.
const (
	SourceModel    = "model"
	SourceKeywords = "keywords"
)

// CommandIntent is the structured reading of a free-text publishing command.
type CommandIntent struct {
	Platforms   []Platform `json:"platforms"`
	Title       string     `json:"title"`
	Content     string     `json:"content"`
	NeedsImage  bool       `json:"needs_image"`
	ImagePrompt string     `json:"image_prompt"`
	Source      string     `json:"source"`
}

// PlatformIDs returns the intent platforms as raw ids.
func (c CommandIntent) PlatformIDs() []string {
	ids := make([]string, len(c.Platforms))
	for i, p := range c.Platforms {
		ids[i] = string(p)
	}
	return ids
}
