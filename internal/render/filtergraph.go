package render

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	// kenBurnsMaxZoom is the final zoom factor of the pan/zoom stage.
	kenBurnsMaxZoom = 1.12
	// fadeInSeconds is the text-layer fade duration.
	fadeInSeconds = 0.6
	// textMargin is the horizontal offset for left/right alignment.
	textMargin = 96
	// wrapColumn is the soft line-wrap width in runes.
	wrapColumn = 30
)

// Graph is a compiled filter graph: the filter_complex expression, the
// label of its final output stream, and the escaped text payload that
// was baked into the drawtext stage.
type Graph struct {
	FilterComplex string
	OutputLabel   string
	EscapedText   string
}

// graphBuilder tracks stage inputs/outputs by index so the final
// argument renders in one pass and escaping stays centralized here.
type graphBuilder struct {
	stages []string
	label  string
	next   int
}

func newGraphBuilder(input string) *graphBuilder {
	return &graphBuilder{label: input}
}

func (b *graphBuilder) add(filter string) {
	out := fmt.Sprintf("v%d", b.next)
	b.next++
	b.stages = append(b.stages, fmt.Sprintf("[%s]%s[%s]", b.label, filter, out))
	b.label = out
}

func (b *graphBuilder) build() (filterComplex, outputLabel string) {
	return strings.Join(b.stages, ";"), b.label
}

// Compile translates a spec into the ordered filter graph. It is a pure
// function of the spec plus the font directory; stages with no effect
// are omitted entirely so ffmpeg never burns time on no-ops.
func Compile(spec Spec, fontDir string) Graph {
	b := newGraphBuilder("0:v")

	// 1. Scale/crop to the canvas with cover semantics.
	b.add(fmt.Sprintf(
		"scale=%d:%d:force_original_aspect_ratio=increase,crop=%d:%d",
		CanvasWidth, CanvasHeight, CanvasWidth, CanvasHeight,
	))

	// 2. Ken Burns pan/zoom, interpolated per frame over the full clip.
	if spec.Style.KenBurns {
		frames := int(spec.Duration * OutputFPS)
		if frames < 1 {
			frames = 1
		}
		zoomStep := (kenBurnsMaxZoom - 1.0) / float64(frames)
		b.add(fmt.Sprintf(
			"zoompan=z='min(zoom+%.6f,%.2f)':x='iw/2-(iw/zoom/2)':y='ih/2-(ih/zoom/2)':d=%d:s=%dx%d:fps=%d",
			zoomStep, kenBurnsMaxZoom, frames, CanvasWidth, CanvasHeight, OutputFPS,
		))
	}

	// 3. Brightness.
	if spec.Style.Brightness != 0 {
		b.add(fmt.Sprintf("eq=brightness=%.3f", spec.Style.Brightness))
	}

	// 4. Blur.
	if spec.Style.Blur > 0 {
		b.add(fmt.Sprintf("boxblur=%.2f:1", spec.Style.Blur))
	}

	// 5. Darkening overlay for text legibility.
	tpl := TemplateByName(spec.Template)
	if op := spec.Style.OverlayOpacity; op > 0 && tpl.OverlayStyle != "" {
		switch tpl.OverlayStyle {
		case "gradient":
			// Approximated with three stacked bands of increasing alpha
			// over the lower half of the frame.
			b.add(fmt.Sprintf("drawbox=x=0:y=ih/2:w=iw:h=ih/6:color=black@%.3f:t=fill", op*0.33))
			b.add(fmt.Sprintf("drawbox=x=0:y=2*ih/3:w=iw:h=ih/6:color=black@%.3f:t=fill", op*0.66))
			b.add(fmt.Sprintf("drawbox=x=0:y=5*ih/6:w=iw:h=ih/6:color=black@%.3f:t=fill", op))
		default:
			b.add(fmt.Sprintf("drawbox=x=0:y=0:w=iw:h=ih:color=black@%.3f:t=fill", op))
		}
	}

	// 6. Pixel-format normalization required by libx264.
	b.add("format=yuv420p")

	// 7. Text rendering.
	escaped := EscapeText(wrapText(spec.Text, wrapColumn))
	b.add(drawtextFilter(spec, tpl, escaped, fontDir))

	filterComplex, outputLabel := b.build()
	return Graph{
		FilterComplex: filterComplex,
		OutputLabel:   outputLabel,
		EscapedText:   escaped,
	}
}

func drawtextFilter(spec Spec, tpl Template, escapedText, fontDir string) string {
	var opts []string

	font := ResolveFont(spec.Style.FontFamily, fontDir)
	if font.File != "" {
		opts = append(opts, "fontfile='"+font.File+"'")
	} else {
		opts = append(opts, "font='"+font.Family+"'")
	}

	opts = append(opts, "text='"+escapedText+"'")

	rgb, alpha := splitColor(spec.Style.TextColor)
	if spec.Style.FadeIn {
		// 8. Text-layer fade-in, expressed as a drawtext alpha ramp so
		// only the text fades, not the background.
		opts = append(opts, "fontcolor="+rgb)
		opts = append(opts, fmt.Sprintf("alpha='%.2f*min(t/%.2f,1)'", alpha, fadeInSeconds))
	} else {
		opts = append(opts, fmt.Sprintf("fontcolor=%s@%.2f", rgb, alpha))
	}

	opts = append(opts,
		"fontsize="+strconv.Itoa(spec.Style.FontSize),
		"line_spacing="+strconv.Itoa(spec.Style.LineSpacing),
		"shadowcolor=black@0.55",
		"shadowx=2",
		"shadowy=2",
	)

	switch spec.Style.Alignment {
	case "left":
		opts = append(opts, fmt.Sprintf("x=%d", textMargin))
	case "right":
		opts = append(opts, fmt.Sprintf("x=w-text_w-%d", textMargin))
	default:
		opts = append(opts, "x=(w-text_w)/2")
	}
	opts = append(opts, "y="+tpl.TextYExpr)

	return "drawtext=" + strings.Join(opts, ":")
}

// splitColor converts #RRGGBB or #RRGGBBAA into ffmpeg's 0xRRGGBB hex
// convention plus a 0-1 alpha.
func splitColor(c string) (string, float64) {
	c = strings.TrimPrefix(c, "#")
	if len(c) != 6 && len(c) != 8 {
		return "0xFFFFFF", 1.0
	}
	rgb := "0x" + strings.ToUpper(c[:6])
	alpha := 1.0
	if len(c) == 8 {
		if v, err := strconv.ParseUint(c[6:8], 16, 8); err == nil {
			alpha = float64(v) / 255.0
		}
	}
	return rgb, alpha
}

// wrapText soft-wraps at the given rune column, preserving explicit
// newlines. Long unbreakable words are left intact.
func wrapText(s string, col int) string {
	var out []string
	for _, line := range strings.Split(s, "\n") {
		out = append(out, wrapLine(line, col))
	}
	return strings.Join(out, "\n")
}

func wrapLine(line string, col int) string {
	words := strings.Fields(line)
	if len(words) == 0 {
		return line
	}

	var b strings.Builder
	lineLen := 0
	for i, w := range words {
		wl := len([]rune(w))
		if i == 0 {
			b.WriteString(w)
			lineLen = wl
			continue
		}
		if lineLen+1+wl > col {
			b.WriteByte('\n')
			b.WriteString(w)
			lineLen = wl
		} else {
			b.WriteByte(' ')
			b.WriteString(w)
			lineLen += 1 + wl
		}
	}
	return b.String()
}

// BuildArgs renders the final encoder argument list for a compiled graph.
func BuildArgs(spec Spec, g Graph, inputPath, outputPath string) []string {
	return []string{
		"-y",
		"-loop", "1",
		"-i", inputPath,
		"-filter_complex", g.FilterComplex,
		"-map", "[" + g.OutputLabel + "]",
		"-c:v", "libx264",
		"-preset", "medium",
		"-crf", "23",
		"-movflags", "+faststart",
		"-t", strconv.FormatFloat(spec.Duration, 'f', 2, 64),
		"-r", strconv.Itoa(OutputFPS),
		"-an",
		outputPath,
	}
}
