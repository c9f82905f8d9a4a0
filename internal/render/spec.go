// Package render implements the video generation pipeline: request
// validation, content-addressed caching, concurrency-limited admission,
// filter-graph compilation, encoder execution, and result delivery.
package render

// Canvas and encode presets. One output profile only; the renderer is
// not a general-purpose transcoder.
const (
	CanvasWidth  = 1280
	CanvasHeight = 720
	OutputFPS    = 30

	// MaxTextLength bounds the quote text after trimming.
	MaxTextLength = 420
)

// Style holds the normalized, clamped style parameters for a job.
type Style struct {
	FontFamily     string  `json:"fontFamily"`
	FontSize       int     `json:"fontSize"`
	TextColor      string  `json:"textColor"` // #RRGGBB or #RRGGBBAA
	Alignment      string  `json:"alignment"` // left, center, right
	OverlayOpacity float64 `json:"overlayOpacity"`
	Brightness     float64 `json:"brightness"` // -0.5..0.5, 0 neutral
	Blur           float64 `json:"blur"`       // box blur radius, 0 off
	KenBurns       bool    `json:"kenBurns"`
	FadeIn         bool    `json:"fadeIn"`
	LineSpacing    int     `json:"lineSpacing"`
}

// Spec is the immutable job specification derived once per request.
// It fully determines the rendered output; nothing else may influence
// pixels. The canonical serialization of this struct is the cache key.
type Spec struct {
	AssetID  string  `json:"assetId"`
	Text     string  `json:"text"`
	Template string  `json:"template"`
	Style    Style   `json:"style"`
	Persist  bool    `json:"persist"`
	Duration float64 `json:"duration"` // seconds, resolved from template
}

// Template describes a layout preset. Unknown template names fall back
// to DefaultTemplate rather than erroring.
type Template struct {
	Name           string
	FontFamily     string
	FontSize       int
	Alignment      string
	TextYExpr      string // drawtext y expression
	OverlayStyle   string // "flat", "gradient", or "" for none
	OverlayOpacity float64
	KenBurns       bool
	FadeIn         bool
	Duration       float64
	LineSpacing    int
}

// DefaultTemplate is used when the request omits or misspells the template.
const DefaultTemplate = "classic"

var templates = map[string]Template{
	"classic": {
		Name:           "classic",
		FontFamily:     "Montserrat",
		FontSize:       56,
		Alignment:      "center",
		TextYExpr:      "(h-text_h)/2",
		OverlayStyle:   "flat",
		OverlayOpacity: 0.45,
		KenBurns:       true,
		FadeIn:         true,
		Duration:       8,
		LineSpacing:    14,
	},
	"minimal": {
		Name:        "minimal",
		FontFamily:  "Inter",
		FontSize:    44,
		Alignment:   "left",
		TextYExpr:   "h-text_h-120",
		KenBurns:    false,
		FadeIn:      true,
		Duration:    6,
		LineSpacing: 10,
	},
	"bold": {
		Name:           "bold",
		FontFamily:     "Oswald",
		FontSize:       72,
		Alignment:      "center",
		TextYExpr:      "(h-text_h)/2",
		OverlayStyle:   "gradient",
		OverlayOpacity: 0.6,
		KenBurns:       true,
		FadeIn:         false,
		Duration:       8,
		LineSpacing:    18,
	},
	"caption": {
		Name:           "caption",
		FontFamily:     "Lora",
		FontSize:       40,
		Alignment:      "right",
		TextYExpr:      "h-text_h-90",
		OverlayStyle:   "gradient",
		OverlayOpacity: 0.5,
		KenBurns:       false,
		FadeIn:         true,
		Duration:       6,
		LineSpacing:    12,
	},
}

// TemplateByName resolves a template, falling back to the default.
func TemplateByName(name string) Template {
	if t, ok := templates[name]; ok {
		return t
	}
	return templates[DefaultTemplate]
}

// TemplateNames lists the known templates (for the status endpoint).
func TemplateNames() []string {
	names := make([]string, 0, len(templates))
	for name := range templates {
		names = append(names, name)
	}
	return names
}
