// Package preview prints search hits and note bodies for the terminal.
// Output is styled only when it goes to a terminal.
package preview

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/term"
	"github.com/mattn/go-isatty"

	"github.com/starford/notedex/internal/document"
)

// DefaultWidth is used when the terminal width cannot be detected.
const DefaultWidth = 100

var (
	accent     = lipgloss.NewStyle().Foreground(lipgloss.Color("#A78BFA"))
	accentBold = accent.Bold(true)
	muted      = lipgloss.NewStyle().Foreground(lipgloss.Color("#6C7086"))
)

// Printer writes previews to w.
type Printer struct {
	w      io.Writer
	styled bool
	width  int
}

// New returns a Printer for w, detecting whether w is a terminal and its width.
func New(w io.Writer) *Printer {
	p := &Printer{w: w, width: DefaultWidth}
	if f, ok := w.(*os.File); ok && isatty.IsTerminal(f.Fd()) {
		p.styled = true
		if width, _, err := term.GetSize(f.Fd()); err == nil && width > 0 {
			p.width = width
		}
	}
	return p
}

// NewWithWidth returns a Printer with fixed settings (for testing).
func NewWithWidth(w io.Writer, styled bool, width int) *Printer {
	if width <= 0 {
		width = DefaultWidth
	}
	return &Printer{w: w, styled: styled, width: width}
}

// Styled reports whether output is styled.
func (p *Printer) Styled() bool { return p.styled }

// Hits lists search hits, one block per hit.
func (p *Printer) Hits(hits []document.Document) error {
	if len(hits) == 0 {
		_, err := fmt.Fprintln(p.w, p.muted("no matches"))
		return err
	}
	for i, d := range hits {
		var b strings.Builder
		fmt.Fprintf(&b, "%s %s", p.muted(fmt.Sprintf("%2d.", i+1)), p.title(d.Title))
		if d.Subtitle != "" {
			fmt.Fprintf(&b, " %s", p.muted("· "+d.Subtitle))
		}
		b.WriteByte('\n')

		var meta []string
		if len(d.Authors) > 0 {
			meta = append(meta, strings.Join(d.Authors, ", "))
		}
		if d.Date != 0 {
			meta = append(meta, d.Date.Time().Format("2006-01-02"))
		}
		if len(d.Tags) > 0 {
			meta = append(meta, "#"+strings.Join(d.Tags, " #"))
		}
		meta = append(meta, d.ID)
		fmt.Fprintf(&b, "    %s\n", p.muted(strings.Join(meta, "  ")))

		if _, err := io.WriteString(p.w, b.String()); err != nil {
			return err
		}
	}
	return nil
}

// Body writes the human rendering of d: glamour markdown when styled,
// the raw body otherwise.
func (p *Printer) Body(d document.Document) error {
	text, err := d.WithMode(document.ModeHuman).Render()
	if err != nil {
		return err
	}
	if !p.styled {
		_, err := io.WriteString(p.w, text)
		return err
	}

	header := accentBold.Render(d.Title) + "\n"
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(p.width-4),
	)
	if err != nil {
		return fmt.Errorf("preview: %w", err)
	}
	out, err := r.Render(text)
	if err != nil {
		return fmt.Errorf("preview: render markdown: %w", err)
	}
	// glamour pads with blank lines
	_, err = io.WriteString(p.w, header+strings.TrimRight(out, "\n")+"\n")
	return err
}

func (p *Printer) title(s string) string {
	if !p.styled {
		return s
	}
	return accentBold.Render(s)
}

func (p *Printer) muted(s string) string {
	if !p.styled {
		return s
	}
	return muted.Render(s)
}
