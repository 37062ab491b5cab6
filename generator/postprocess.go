package generator

import (
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"
)

const fence = "```"

// ExtractJSON pulls the JSON object out of a model reply. A ```json block wins
// over an earlier bare ``` block; without one the first fence is unwrapped. An
// unterminated fence keeps everything after the opening marker. The span from
// the first '{' to the last '}' is then taken as the candidate.
func ExtractJSON(raw string) string {
	text := strings.TrimSpace(raw)
	start, skip := jsonFence(text), len(fence)+4
	if start < 0 {
		start, skip = strings.Index(text, fence), len(fence)
	}
	if start >= 0 {
		body := text[start+skip:]
		if end := strings.Index(body, fence); end >= 0 {
			body = body[:end]
		}
		text = strings.TrimSpace(body)
	}
	open := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if open >= 0 && end > open {
		text = text[open : end+1]
	}
	return text
}

// jsonFence returns the offset of the first ```json marker, any letter case.
func jsonFence(text string) int {
	for i := 0; ; {
		j := strings.Index(text[i:], fence)
		if j < 0 {
			return -1
		}
		at := i + j
		tag := text[at+len(fence):]
		if len(tag) >= 4 && strings.EqualFold(tag[:4], "json") {
			return at
		}
		i = at + len(fence)
	}
}

type rawPost struct {
	Text                 *string         `json:"text"`
	Hashtags             json.RawMessage `json:"hashtags"`
	Tone                 string          `json:"tone"`
	SuggestedImagePrompt string          `json:"suggested_image_prompt"`
	SuggestedVideoPrompt string          `json:"suggested_video_prompt"`
}

// Normalize parses a model reply into the platform's Post variant.
// CharacterCount is recomputed from the text. Exceeding the platform limit only
// yields a warning; a missing "text" key is a MalformedResponseError.
func Normalize(raw string, profile Profile) (Post, []string, error) {
	platform := string(profile.Platform)
	candidate := ExtractJSON(raw)
	if candidate == "" {
		return nil, nil, &MalformedResponseError{Platform: platform, Reason: "empty reply"}
	}

	var rp rawPost
	if err := json.Unmarshal([]byte(candidate), &rp); err != nil {
		return nil, nil, &MalformedResponseError{Platform: platform, Reason: "invalid JSON", Err: err}
	}
	if rp.Text == nil {
		return nil, nil, &MalformedResponseError{Platform: platform, Reason: `missing "text" field`}
	}
	hashtags, err := parseHashtags(rp.Hashtags)
	if err != nil {
		return nil, nil, &MalformedResponseError{Platform: platform, Reason: "invalid hashtags", Err: err}
	}

	content := Content{
		Text:           *rp.Text,
		Hashtags:       hashtags,
		CharacterCount: utf8.RuneCountInString(*rp.Text),
		Tone:           rp.Tone,
	}

	var warnings []string
	if content.CharacterCount > profile.CharacterLimit {
		warnings = append(warnings, fmt.Sprintf("content exceeds %s limit: %d > %d characters",
			platform, content.CharacterCount, profile.CharacterLimit))
	}

	switch profile.Platform {
	case Instagram:
		return ImagePost{Content: content, SuggestedImagePrompt: rp.SuggestedImagePrompt}, warnings, nil
	case TikTok:
		return VideoPost{Content: content, SuggestedVideoPrompt: rp.SuggestedVideoPrompt}, warnings, nil
	default:
		return StandardPost{Content: content}, warnings, nil
	}
}

// Models sometimes return hashtags as one space separated string.
func parseHashtags(raw json.RawMessage) ([]string, error) {
	tags := []string{}
	if len(raw) == 0 || string(raw) == "null" {
		return tags, nil
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		for _, t := range list {
			if t = strings.TrimSpace(t); t != "" {
				tags = append(tags, t)
			}
		}
		return tags, nil
	}
	var single string
	if err := json.Unmarshal(raw, &single); err != nil {
		return nil, err
	}
	return append(tags, strings.Fields(single)...), nil
}
