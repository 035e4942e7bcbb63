// Package web renders the single chat page.
package web

import (
	"bytes"
	_ "embed"
	"fmt"
	"html/template"
)

//go:embed index.html.tmpl
var indexTemplate string

var pageTemplate = template.Must(template.New("index").Parse(indexTemplate))

// Render executes the page template once; the result is served as-is for every GET /.
func Render(s Settings) ([]byte, error) {
	var buf bytes.Buffer
	if err := pageTemplate.Execute(&buf, s); err != nil {
		return nil, fmt.Errorf("render page: %w", err)
	}
	return buf.Bytes(), nil
}
