// Package templates embeds the HTML pages rendered by the blog.
package templates

import (
	"embed"
	"html/template"
	"time"
)

//go:embed *.html
var files embed.FS

// New parses every page together with the shared layout partials.
func New() (*template.Template, error) {
	return template.New("pages").Funcs(template.FuncMap{
		"date": func(t time.Time) string {
			return t.Format("January 2, 2006")
		},
		"datetime": func(t time.Time) string {
			return t.Format("2006-01-02 15:04")
		},
		"add": func(a, b int) int {
			return a + b
		},
	}).ParseFS(files, "*.html")
}
