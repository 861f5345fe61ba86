package cli

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"weave/internal/core/app"
	"weave/internal/core/config"
	coreerrors "weave/internal/core/errors"
	"weave/internal/engine/linker"
	"weave/internal/engine/source"

	"github.com/charmbracelet/lipgloss"
)

var (
	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F87171")).
			Bold(true)

	caretStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FBBF24")).
			Bold(true)

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#10B981")).
			Bold(true)

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#64748B")).
			Italic(true)
)

// renderError formats a build error for the terminal. A source diagnostic
// anywhere in the chain is shown with its line and caret.
func renderError(err error) string {
	var diag *source.Error
	hasDiag := errors.As(err, &diag)
	de, hasDomain := coreerrors.As(err)

	var b strings.Builder
	switch {
	case hasDomain && hasDiag:
		b.WriteString(errorStyle.Render(fmt.Sprintf("error[%s]: %s", de.Code, de.Message)))
		b.WriteByte('\n')
		b.WriteString(renderDiagnostic(diag))
	case hasDiag:
		b.WriteString(errorStyle.Render("error: ") + renderDiagnostic(diag))
	case hasDomain:
		b.WriteString(errorStyle.Render(fmt.Sprintf("error[%s]: ", de.Code)))
		b.WriteString(de.Detail())
	default:
		b.WriteString(errorStyle.Render("error: ") + err.Error())
	}
	return b.String()
}

func renderDiagnostic(diag *source.Error) string {
	lines := strings.Split(diag.Render(), "\n")
	for i, line := range lines {
		switch {
		case i == 0:
		case strings.HasPrefix(line, "  at "):
			lines[i] = statusStyle.Render(line)
		case i == len(lines)-1 && strings.HasSuffix(line, "^"):
			lines[i] = caretStyle.Render(line)
		}
	}
	return strings.Join(lines, "\n")
}

func renderBuild(paths config.ResolvedPaths, res *linker.Result) string {
	out := paths.Output
	if rel, err := filepath.Rel(paths.Root, out); err == nil {
		out = rel
	}
	summary := fmt.Sprintf("built %s (%d namespaces, %d bytes", out, len(res.Namespaces), len(res.Code))
	if res.PrunePasses > 0 {
		summary += fmt.Sprintf(", %d prune passes", res.PrunePasses)
	}
	if len(res.Symbols) > 0 {
		summary += fmt.Sprintf(", %d mangled", len(res.Symbols))
	}
	return successStyle.Render(summary + ")")
}

func renderUpdate(u app.Update) string {
	return successStyle.Render(fmt.Sprintf("rebuilt after %d change(s)", len(u.Changed))) +
		" " + statusStyle.Render(fmt.Sprintf("%s in %s", u.BuildID, u.Duration.Round(time.Millisecond)))
}
