package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/fatih/color"
)

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#7C3AED")).
			Bold(true).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#7C3AED")).
			Padding(0, 1)

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Width(24)

	passStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("120")).Bold(true)
	failStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)

	chunkStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("86")).
			MarginLeft(2)
)

// Report is a titled list of label/value rows.
type Report struct {
	title string
	rows  [][2]string
}

func NewReport(title string) *Report {
	return &Report{title: title}
}

func (r *Report) Add(label, value string) *Report {
	r.rows = append(r.rows, [2]string{label, value})
	return r
}

func (r *Report) Addf(label, format string, args ...any) *Report {
	return r.Add(label, fmt.Sprintf(format, args...))
}

func (r *Report) String() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(r.title))
	b.WriteString("\n")
	for _, row := range r.rows {
		b.WriteString(labelStyle.Render(row[0]))
		b.WriteString(row[1])
		b.WriteString("\n")
	}
	return b.String()
}

// Verdict renders PASS or FAIL.
func Verdict(ok bool) string {
	if ok {
		return passStyle.Render("PASS")
	}
	return failStyle.Render("FAIL")
}

// Chunk renders a chunk of text, truncated to max characters when max > 0.
func Chunk(text string, max int) string {
	runes := []rune(strings.TrimSpace(text))
	if max > 0 && len(runes) > max {
		text = string(runes[:max]) + "…"
	} else {
		text = string(runes)
	}
	return chunkStyle.Render(text)
}

// Printer writes status lines. Results go to stdout through fmt; Printer is
// for everything around them.
type Printer struct {
	out   io.Writer
	debug bool

	infoColor  *color.Color
	warnColor  *color.Color
	errorColor *color.Color
	debugColor *color.Color
}

func NewPrinter(out io.Writer, debug bool) *Printer {
	return &Printer{
		out:        out,
		debug:      debug,
		infoColor:  color.New(color.FgBlue),
		warnColor:  color.New(color.FgYellow),
		errorColor: color.New(color.FgRed, color.Bold),
		debugColor: color.New(color.FgHiBlack),
	}
}

func (p *Printer) Infof(format string, args ...any) {
	p.infoColor.Fprintf(p.out, format+"\n", args...)
}

func (p *Printer) Warnf(format string, args ...any) {
	p.warnColor.Fprintf(p.out, "Warning: "+format+"\n", args...)
}

func (p *Printer) Errorf(format string, args ...any) {
	p.errorColor.Fprintf(p.out, "Error: "+format+"\n", args...)
}

// Debugf prints only when debug output is enabled.
func (p *Printer) Debugf(format string, args ...any) {
	if !p.debug {
		return
	}
	p.debugColor.Fprintf(p.out, "[DEBUG] "+format+"\n", args...)
}
