package report

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/glamour"
	"github.com/muesli/termenv"
	"golang.org/x/term"
)

const defaultWrap = 100

// Renderer writes Markdown to an output. On a terminal the Markdown is
// styled with glamour; anywhere else it is written as is so it can be
// piped or saved.
type Renderer struct {
	w        io.Writer
	styled   bool
	width    int
	render   func(string) (string, error)
	colorOut *termenv.Output
}

// NewRenderer inspects w. Pass styled=false to force plain Markdown.
func NewRenderer(w io.Writer, styled bool) *Renderer {
	r := &Renderer{w: w, width: defaultWrap, colorOut: termenv.NewOutput(w)}

	f, ok := w.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return r
	}
	if width, _, err := term.GetSize(int(f.Fd())); err == nil && width > 20 {
		r.width = width - 2
	}
	r.styled = styled
	return r
}

// Styled reports whether output goes through glamour.
func (r *Renderer) Styled() bool {
	return r.styled
}

// Render writes markdown to the output.
func (r *Renderer) Render(markdown string) error {
	out := markdown
	if r.styled {
		styled, err := r.styledRender(markdown)
		if err != nil {
			return err
		}
		out = styled
	}
	_, err := io.WriteString(r.w, out)
	return err
}

func (r *Renderer) styledRender(markdown string) (string, error) {
	if r.render == nil {
		tr, err := glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(r.width),
		)
		if err != nil {
			return "", fmt.Errorf("creating markdown renderer: %w", err)
		}
		r.render = tr.Render
	}
	return r.render(markdown)
}

// Status prints a one-line outcome, green for success and red otherwise.
// Colors are dropped when the output does not support them.
func (r *Renderer) Status(ok bool, format string, args ...any) {
	color := "#22c55e"
	if !ok {
		color = "#ef4444"
	}
	msg := r.colorOut.String(fmt.Sprintf(format, args...)).Foreground(r.colorOut.Color(color)).Bold()
	fmt.Fprintln(r.w, msg)
}
