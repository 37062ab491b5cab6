package config

import "strings"

// Diagnostics is the credential check served by /diagnostics. Secrets are
// reported by length and a short prefix only.
type Diagnostics struct {
	Status             string            `json:"status"`
	Meta               MetaDiagnostics   `json:"facebook_instagram"`
	LinkedIn           LinkedInDiag      `json:"linkedin"`
	OpenAIConfigured   bool              `json:"openai_api_key_configured"`
	TestURLs           map[string]string `json:"test_urls"`
	SupportedPlatforms []string          `json:"supported_platforms"`
}

type MetaDiagnostics struct {
	PageID           string `json:"page_id"`
	IGUserID         string `json:"ig_user_id"`
	IGUserIDValid    bool   `json:"ig_user_id_valid"`
	IGUserIDNote     string `json:"ig_user_id_note"`
	PageTokenLength  int    `json:"page_access_token_length"`
	PageTokenPreview string `json:"page_access_token_preview"`
}

type LinkedInDiag struct {
	ClientIDPreview    string `json:"client_id_preview"`
	AccessTokenLength  int    `json:"access_token_length"`
	AccessTokenPreview string `json:"access_token_preview"`
	PersonalID         string `json:"personal_id"`
}

// Diagnostics reports what is configured without leaking secrets.
func (c Config) Diagnostics(publishable []string) Diagnostics {
	valid := ValidIGUserID(c.Meta.IGUserID)
	note := "valid"
	if !valid {
		note = "must start with '17' and have 17 digits"
	}
	base := c.Meta.BaseURL()
	return Diagnostics{
		Status: "ok",
		Meta: MetaDiagnostics{
			PageID:           c.Meta.PageID,
			IGUserID:         c.Meta.IGUserID,
			IGUserIDValid:    valid,
			IGUserIDNote:     note,
			PageTokenLength:  len(c.Meta.PageAccessToken),
			PageTokenPreview: preview(c.Meta.PageAccessToken),
		},
		LinkedIn: LinkedInDiag{
			ClientIDPreview:    preview(c.LinkedIn.ClientID),
			AccessTokenLength:  len(c.LinkedIn.AccessToken),
			AccessTokenPreview: preview(c.LinkedIn.AccessToken),
			PersonalID:         c.LinkedIn.PersonalID,
		},
		OpenAIConfigured: c.LLM.APIKey != "",
		TestURLs: map[string]string{
			"instagram_create": base + "/" + c.Meta.IGUserID + "/media",
			"facebook_feed":    base + "/" + c.Meta.PageID + "/feed",
			"linkedin_posts":   strings.TrimRight(c.LinkedIn.APIURL, "/") + "/ugcPosts",
		},
		SupportedPlatforms: publishable,
	}
}

// ValidIGUserID applies the Instagram business id shape check.
func ValidIGUserID(id string) bool {
	if len(id) != 17 || !strings.HasPrefix(id, "17") {
		return false
	}
	for _, r := range id {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func preview(secret string) string {
	if secret == "" {
		return "not set"
	}
	if len(secret) <= 10 {
		return strings.Repeat("*", len(secret))
	}
	return secret[:10] + "..."
}
