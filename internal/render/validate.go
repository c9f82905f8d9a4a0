package render

import (
	"regexp"
	"strings"

	"quotereel/internal/pkg/errors"
)

// Request is the raw render payload before normalization.
type Request struct {
	AssetID  string        `json:"assetId"`
	Text     string        `json:"text"`
	Template string        `json:"template,omitempty"`
	Style    *RequestStyle `json:"style,omitempty"`
	Persist  bool          `json:"persist,omitempty"`
}

// RequestStyle carries optional style overrides; nil pointers mean
// "use the template default".
type RequestStyle struct {
	FontFamily     *string  `json:"fontFamily,omitempty"`
	FontSize       *int     `json:"fontSize,omitempty"`
	TextColor      *string  `json:"textColor,omitempty"`
	Alignment      *string  `json:"alignment,omitempty"`
	OverlayOpacity *float64 `json:"overlayOpacity,omitempty"`
	Brightness     *float64 `json:"brightness,omitempty"`
	Blur           *float64 `json:"blur,omitempty"`
	KenBurns       *bool    `json:"kenBurns,omitempty"`
	FadeIn         *bool    `json:"fadeIn,omitempty"`
	LineSpacing    *int     `json:"lineSpacing,omitempty"`
}

// assetIDPattern matches provider photo identifiers (URL-safe slug).
var assetIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{3,64}$`)

var colorPattern = regexp.MustCompile(`^#[0-9a-fA-F]{6}([0-9a-fA-F]{2})?$`)

// Validate normalizes a raw request into a fully-defaulted Spec.
// It has no side effects; an INVALID_INPUT error names the offending field.
func Validate(req Request) (Spec, error) {
	assetID := strings.TrimSpace(req.AssetID)
	if assetID == "" {
		return Spec{}, errors.InvalidInput("assetId", "assetId is required")
	}
	if !assetIDPattern.MatchString(assetID) {
		return Spec{}, errors.InvalidInput("assetId", "assetId must be a URL-safe identifier")
	}

	text := strings.TrimSpace(req.Text)
	if text == "" {
		return Spec{}, errors.InvalidInput("text", "text is required")
	}
	if len(text) > MaxTextLength {
		return Spec{}, errors.InvalidInput("text", "text exceeds maximum length")
	}

	// Unknown templates fall back rather than erroring; clients may ship
	// presets ahead of the server.
	tpl := TemplateByName(strings.ToLower(strings.TrimSpace(req.Template)))

	style := Style{
		FontFamily:     tpl.FontFamily,
		FontSize:       tpl.FontSize,
		TextColor:      "#FFFFFF",
		Alignment:      tpl.Alignment,
		OverlayOpacity: tpl.OverlayOpacity,
		KenBurns:       tpl.KenBurns,
		FadeIn:         tpl.FadeIn,
		LineSpacing:    tpl.LineSpacing,
	}

	if s := req.Style; s != nil {
		if s.FontFamily != nil {
			if fam := strings.TrimSpace(*s.FontFamily); fam != "" {
				style.FontFamily = fam
			}
		}
		if s.FontSize != nil {
			style.FontSize = clampInt(*s.FontSize, 24, 128)
		}
		if s.TextColor != nil {
			color := strings.TrimSpace(*s.TextColor)
			if !colorPattern.MatchString(color) {
				return Spec{}, errors.InvalidInput("style.textColor", "textColor must be #RRGGBB or #RRGGBBAA")
			}
			style.TextColor = strings.ToUpper(color)
		}
		if s.Alignment != nil {
			switch align := strings.ToLower(strings.TrimSpace(*s.Alignment)); align {
			case "left", "center", "right":
				style.Alignment = align
			case "":
				// keep template default
			default:
				return Spec{}, errors.InvalidInput("style.alignment", "alignment must be left, center, or right")
			}
		}
		if s.OverlayOpacity != nil {
			style.OverlayOpacity = clampFloat(*s.OverlayOpacity, 0, 1)
		}
		if s.Brightness != nil {
			style.Brightness = clampFloat(*s.Brightness, -0.5, 0.5)
		}
		if s.Blur != nil {
			style.Blur = clampFloat(*s.Blur, 0, 10)
		}
		if s.KenBurns != nil {
			style.KenBurns = *s.KenBurns
		}
		if s.FadeIn != nil {
			style.FadeIn = *s.FadeIn
		}
		if s.LineSpacing != nil {
			style.LineSpacing = clampInt(*s.LineSpacing, 0, 60)
		}
	}

	return Spec{
		AssetID:  assetID,
		Text:     text,
		Template: tpl.Name,
		Style:    style,
		Persist:  req.Persist,
		Duration: tpl.Duration,
	}, nil
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
