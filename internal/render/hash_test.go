package render

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func baseSpec() Spec {
	return Spec{
		AssetID:  "abc123",
		Text:     "stay hungry",
		Template: "classic",
		Style: Style{
			FontFamily:     "Montserrat",
			FontSize:       56,
			TextColor:      "#FFFFFF",
			Alignment:      "center",
			OverlayOpacity: 0.45,
			KenBurns:       true,
			FadeIn:         true,
			LineSpacing:    14,
		},
		Duration: 8,
	}
}

func TestHashDeterministic(t *testing.T) {
	a := Hash(baseSpec())
	b := Hash(baseSpec())
	assert.Equal(t, a, b)
	assert.Len(t, a, 32)
	assert.Regexp(t, "^[0-9a-f]{32}$", a)
}

func TestHashDelimiterInjection(t *testing.T) {
	// Free-form fields may contain anything a hand-rolled canonical
	// string would use as structure. Two field-wise distinct specs whose
	// concatenations line up must still hash differently.
	a := baseSpec()
	a.Text = "quote|tpl=classic|font=Foo"
	a.Style.FontFamily = "Bar"

	b := baseSpec()
	b.Text = "quote"
	b.Style.FontFamily = "Foo|tpl=classic|font=Bar"

	assert.NotEqual(t, Hash(a), Hash(b))

	c := baseSpec()
	c.Text = `quote","template":"bold`
	d := baseSpec()
	d.Text = "quote"
	d.Template = "bold"
	assert.NotEqual(t, Hash(c), Hash(d))
}

func TestHashSensitivity(t *testing.T) {
	base := Hash(baseSpec())

	mutations := map[string]func(*Spec){
		"asset":    func(s *Spec) { s.AssetID = "other" },
		"text":     func(s *Spec) { s.Text = "stay foolish" },
		"template": func(s *Spec) { s.Template = "bold" },
		"fontSize": func(s *Spec) { s.Style.FontSize = 72 },
		"color":    func(s *Spec) { s.Style.TextColor = "#FF0000" },
		"align":    func(s *Spec) { s.Style.Alignment = "left" },
		"overlay":  func(s *Spec) { s.Style.OverlayOpacity = 0.5 },
		"kenBurns": func(s *Spec) { s.Style.KenBurns = false },
		"persist":  func(s *Spec) { s.Persist = true },
		"duration": func(s *Spec) { s.Duration = 6 },
	}
	for name, mutate := range mutations {
		t.Run(name, func(t *testing.T) {
			s := baseSpec()
			mutate(&s)
			assert.NotEqual(t, base, Hash(s))
		})
	}
}
