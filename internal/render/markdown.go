package render

import (
	"strings"

	"github.com/charmbracelet/glamour"
)

const defaultWordWrap = 100

// Markdown renders text for the terminal, falling back to the raw text when
// the renderer cannot be built or fails.
func Markdown(text string, width int) string {
	if width <= 0 {
		width = defaultWordWrap
	}
	renderer, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(width))
	if err != nil {
		return text
	}
	rendered, err := renderer.Render(text)
	if err != nil {
		return text
	}
	return strings.TrimRight(rendered, "\n") + "\n"
}
