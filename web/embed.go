package web

import (
	"embed"
	"html/template"
	"io/fs"
	"strings"
	"time"
)

// TimeLayout renders entry submission times.
const TimeLayout = "2006-01-02 15:04:05"

//go:embed templates/*.tmpl
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

// Templates parses the embedded page templates. html/template escapes every
// interpolated value for its context, which keeps visitor input inert.
func Templates() (*template.Template, error) {
	return template.New("").Funcs(Funcs()).ParseFS(templateFS, "templates/*.tmpl")
}

// Funcs are the helpers available to the page templates.
func Funcs() template.FuncMap {
	return template.FuncMap{
		"lines":      Lines,
		"formatTime": FormatTime,
	}
}

// Static returns the stylesheet and script assets served under /static.
func Static() (fs.FS, error) {
	return fs.Sub(staticFS, "static")
}

// Lines splits text on any newline convention so templates can emit one
// escaped segment per line.
func Lines(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	return strings.Split(text, "\n")
}

// FormatTime renders t in UTC using TimeLayout.
func FormatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(TimeLayout)
}
