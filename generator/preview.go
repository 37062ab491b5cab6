package generator

import (
	"bytes"
	"strings"

	"github.com/yuin/goldmark"
)

// RenderPreviewHTML renders a post as it would read once published: the text,
// the hashtags line and, when present, the media suggestion as a quote.
func RenderPreviewHTML(p Post) (string, error) {
	body := p.Body()
	var md strings.Builder
	md.WriteString(body.Text)
	if len(body.Hashtags) > 0 {
		md.WriteString("\n\n")
		md.WriteString(strings.Join(body.Hashtags, " "))
	}
	if prompt, ok := ImagePrompt(p); ok {
		md.WriteString("\n\n> Imagen sugerida: ")
		md.WriteString(prompt)
	}
	if prompt, ok := VideoPrompt(p); ok {
		md.WriteString("\n\n> Video sugerido: ")
		md.WriteString(prompt)
	}

	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(md.String()), &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}
