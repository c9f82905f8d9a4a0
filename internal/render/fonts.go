package render

import (
	"os"
	"path/filepath"
	"strings"
)

// fontFiles maps font-family names to bundled font files under the
// configured font directory. Families without a bundled file fall back
// to a platform font resolved by name through fontconfig.
var fontFiles = map[string]string{
	"montserrat": "Montserrat-Bold.ttf",
	"inter":      "Inter-SemiBold.ttf",
	"oswald":     "Oswald-Bold.ttf",
	"lora":       "Lora-Medium.ttf",
}

// platformFallbacks names substitute system fonts for families we know
// about but cannot bundle.
var platformFallbacks = map[string]string{
	"montserrat": "DejaVu Sans",
	"inter":      "DejaVu Sans",
	"oswald":     "DejaVu Sans",
	"lora":       "DejaVu Serif",
}

// FontSpec is the resolved drawtext font argument: either a concrete
// file or a family name for fontconfig to resolve.
type FontSpec struct {
	File   string
	Family string
}

// ResolveFont consults the lookup table once per compilation. The only
// filesystem access is an existence check on the bundled file.
func ResolveFont(family, fontDir string) FontSpec {
	key := strings.ToLower(strings.TrimSpace(family))

	if file, ok := fontFiles[key]; ok && fontDir != "" {
		path := filepath.Join(fontDir, file)
		if _, err := os.Stat(path); err == nil {
			return FontSpec{File: path}
		}
	}

	if fallback, ok := platformFallbacks[key]; ok {
		return FontSpec{Family: fallback}
	}

	// Unknown family: let fontconfig try the literal name.
	if key != "" {
		return FontSpec{Family: family}
	}
	return FontSpec{Family: "DejaVu Sans"}
}
