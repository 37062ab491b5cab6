package generator

import (
	"encoding/json"
	"fmt"
	"strings"
)

const (
	defaultMaxTokens  = 1000
	analyzerMaxTokens = 500
	// AnalyzerCreativity is the fixed temperature of command analysis.
	AnalyzerCreativity = 0.3
)

// Prompt is one model request: System carries the persona, User the task.
type Prompt struct {
	System      string
	User        string
	Temperature float64
	// MaxTokens of 0 leaves the limit to the client.
	MaxTokens int
}

type persona struct {
	role      string
	style     string
	length    string
	emojis    string
	hashtags  string
	goal      string
	structure string
	extra     []string
}

// Adding a platform means one entry in DefaultProfiles and one here.
var personas = map[Platform]persona{
	Facebook: {
		role:      "Eres un especialista en marketing digital para Facebook.",
		style:     "Conversacional y cercano, sin perder credibilidad",
		length:    "Alrededor de 500 caracteres para un mejor alcance",
		emojis:    "Moderados, entre 1 y 3 por publicación",
		hashtags:  "Máximo 5, relevantes y con buen engagement",
		goal:      "Provocar interacción y comentarios",
		structure: "Texto fluido con saltos de línea naturales",
	},
	Instagram: {
		role:      "Eres un creador de contenido especializado en Instagram.",
		style:     "Inspirador, visual y actual",
		length:    "Máximo 2200 caracteres",
		emojis:    "Abundantes, para enriquecer visualmente el texto",
		hashtags:  "Entre 5 y 10, mezclando populares y específicas",
		goal:      "Contar una historia visual y generar engagement",
		structure: "Párrafos cortos pensados para móvil",
		extra: []string{
			"Visual: incluye suggested_image_prompt con una descripción detallada de la imagen",
			"Elementos: estética, paleta de colores y composición que capten la atención",
		},
	},
	LinkedIn: {
		role:      "Eres un consultor de comunicación corporativa para LinkedIn.",
		style:     "Profesional, informativo y con ideas de valor",
		length:    "Máximo 3000 caracteres",
		emojis:    "Mínimos, solo para énfasis puntual",
		hashtags:  "Entre 3 y 5, orientadas al sector profesional",
		goal:      "Compartir conocimiento, hacer networking y aportar valor corporativo",
		structure: "Organización clara, con viñetas cuando ayuden",
	},
	TikTok: {
		role:      "Eres un creador de contenido viral especializado en TikTok.",
		style:     "Dinámico, entretenido y alineado con las tendencias",
		length:    "Máximo 4000 caracteres",
		emojis:    "Expresivos y abundantes",
		hashtags:  "Entre 3 y 8, incluyendo tendencias y challenges",
		goal:      "Entretener y buscar viralidad",
		structure: "Ritmo rápido y llamadas a la acción directas",
		extra: []string{
			"Audiovisual: incluye suggested_video_prompt con una descripción detallada del video",
			"Elementos: transiciones, efectos, música en tendencia y ganchos visuales",
		},
	},
	WhatsApp: {
		role:      "Eres un comunicador especializado en mensajería directa por WhatsApp.",
		style:     "Personal, directo, como una conversación natural",
		length:    "Máximo 4000 caracteres, preferiblemente conciso",
		emojis:    "Naturales, como en una charla real",
		hashtags:  "Evítalas o usa 1-2 como máximo",
		goal:      "Comunicación directa e información práctica",
		structure: "Como un mensaje personal, fácil de reenviar",
	},
}

// SystemInstruction returns the persona for a platform; unknown platforms get
// the facebook persona.
func SystemInstruction(p Platform) string {
	pr, ok := personas[p]
	if !ok {
		pr = personas[Facebook]
	}
	var sb strings.Builder
	sb.WriteString(pr.role)
	sb.WriteString(" Transforma el contenido siguiendo estas pautas:\n")
	fmt.Fprintf(&sb, "- Estilo: %s\n", pr.style)
	fmt.Fprintf(&sb, "- Extensión: %s\n", pr.length)
	fmt.Fprintf(&sb, "- Emojis: %s\n", pr.emojis)
	fmt.Fprintf(&sb, "- Etiquetas: %s\n", pr.hashtags)
	fmt.Fprintf(&sb, "- Objetivo: %s\n", pr.goal)
	fmt.Fprintf(&sb, "- Estructura: %s\n", pr.structure)
	for _, e := range pr.extra {
		fmt.Fprintf(&sb, "- %s\n", e)
	}
	return sb.String()
}

type responseSchema struct {
	Text                 string   `json:"text"`
	Hashtags             []string `json:"hashtags"`
	CharacterCount       string   `json:"character_count"`
	Tone                 string   `json:"tone"`
	SuggestedImagePrompt string   `json:"suggested_image_prompt,omitempty"`
	SuggestedVideoPrompt string   `json:"suggested_video_prompt,omitempty"`
}

func schemaFor(p Platform) string {
	s := responseSchema{
		Text:           "contenido transformado aquí",
		Hashtags:       []string{"#etiqueta1", "#etiqueta2"},
		CharacterCount: "número_de_caracteres",
		Tone:           "descripción_del_estilo",
	}
	switch p {
	case Instagram:
		s.SuggestedImagePrompt = "descripción para contenido visual sugerido"
	case TikTok:
		s.SuggestedVideoPrompt = "descripción para contenido audiovisual sugerido"
	}
	b, _ := json.MarshalIndent(s, "", "    ")
	return string(b)
}

// UserInstruction embeds heading and material verbatim and asks for the JSON
// object of the platform's schema.
func UserInstruction(heading, material string, profile Profile) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Transforma el siguiente material para %s:\n\n", profile.Platform)
	fmt.Fprintf(&sb, "ENCABEZADO: %s\n", heading)
	fmt.Fprintf(&sb, "MATERIAL: %s\n\n", material)
	sb.WriteString("Genera ÚNICAMENTE un objeto JSON con esta estructura exacta:\n")
	sb.WriteString(schemaFor(profile.Platform))
	sb.WriteString("\n\nCRÍTICO:\n")
	fmt.Fprintf(&sb, "- El texto debe estar optimizado para %s\n", profile.Platform)
	fmt.Fprintf(&sb, "- Respeta el límite de %d caracteres\n", profile.CharacterLimit)
	sb.WriteString("- El character_count debe ser un número entero\n")
	sb.WriteString("- NO incluyas explicaciones, bloques de código ni texto fuera del JSON\n")
	sb.WriteString("- Responde exclusivamente con el JSON válido\n")
	return sb.String()
}

// BuildPlatformPrompt builds the rewrite prompt for one platform; the
// temperature comes from the profile.
func BuildPlatformPrompt(heading, material string, profile Profile) Prompt {
	return Prompt{
		System:      SystemInstruction(profile.Platform),
		User:        UserInstruction(heading, material, profile),
		Temperature: profile.Creativity,
		MaxTokens:   defaultMaxTokens,
	}
}

const analyzerSystemPrompt = `Eres un asistente que analiza comandos para publicar en redes sociales.

Del comando del usuario extrae:
1. Plataformas donde publicar (facebook, instagram, linkedin o combinaciones)
2. Título o encabezado del contenido
3. Tema o contenido principal
4. Si necesita imagen (true/false)
5. Descripción para generar la imagen

Responde SOLO con un JSON válido con esta estructura:
{
    "platforms": ["facebook", "instagram", "linkedin"],
    "title": "título extraído",
    "content": "contenido principal",
    "needs_image": true,
    "image_prompt": "descripción detallada para generar la imagen"
}

Ejemplos:
- "Publica en Instagram sobre nuestro café" → platforms: ["instagram"], needs_image: true
- "Post en Facebook e Instagram sobre el evento" → platforms: ["facebook", "instagram"]
- "Publica en LinkedIn sobre nuestra empresa" → platforms: ["linkedin"], needs_image: false
- "Quiero publicar en todas las redes sobre tecnología" → platforms: ["facebook", "instagram", "linkedin"]
- "Quiero publicar en redes sobre tecnología" → platforms: ["facebook", "instagram"] (LinkedIn solo si se menciona)
`

// BuildAnalyzerPrompt wraps a raw command for intent extraction.
func BuildAnalyzerPrompt(command string) Prompt {
	return Prompt{
		System:      analyzerSystemPrompt,
		User:        command,
		Temperature: AnalyzerCreativity,
		MaxTokens:   analyzerMaxTokens,
	}
}
