//go:build gui

package gui

import (
	"image/color"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/theme"
)

// fontTheme is the default theme with a chosen font family and text size.
// Families other than the built-in styles are loaded from fontFiles.
type fontTheme struct {
	family string
	size   float32
	custom fyne.Resource
}

func newFontTheme(family string, size int, fontFiles map[string]string) *fontTheme {
	t := &fontTheme{family: family, size: float32(size)}
	if path, ok := fontFiles[family]; ok {
		res, err := fyne.LoadResourceFromPath(path)
		if err == nil {
			t.custom = res
		}
	}
	return t
}

func (t *fontTheme) Color(name fyne.ThemeColorName, variant fyne.ThemeVariant) color.Color {
	return theme.DefaultTheme().Color(name, variant)
}

func (t *fontTheme) Font(style fyne.TextStyle) fyne.Resource {
	if t.custom != nil && !style.Monospace && !style.Symbol {
		return t.custom
	}
	switch t.family {
	case "Monospace":
		style.Monospace = true
	case "Bold":
		style.Bold = true
	case "Italic":
		style.Italic = true
	}
	return theme.DefaultTheme().Font(style)
}

func (t *fontTheme) Icon(name fyne.ThemeIconName) fyne.Resource {
	return theme.DefaultTheme().Icon(name)
}

func (t *fontTheme) Size(name fyne.ThemeSizeName) float32 {
	if name == theme.SizeNameText && t.size > 0 {
		return t.size
	}
	return theme.DefaultTheme().Size(name)
}
