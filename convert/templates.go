package convert

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"
	"text/template"
	"time"

	sprig "github.com/go-task/slim-sprig/v3"
)

// Values is a struct that holds variables we make available for output name
// template expansion
type Values struct {
	Title      string
	SourceFile string
	DocumentID string
	Schema     string
	Date       string
	Widgets    int
	Fallbacks  int
}

func buildValues(name string, res *Result) Values {
	base := filepath.Base(name)
	v := Values{
		SourceFile: strings.TrimSuffix(base, filepath.Ext(base)),
		Date:       time.Now().Format("2006-01-02"),
	}
	if res.Document != nil {
		v.Title = res.Document.Title
		v.DocumentID = res.Document.ID
	}
	v.Schema = "elementor"
	v.Widgets = res.Stats.NativeWidgets
	v.Fallbacks = res.Stats.Fallbacks
	return v
}

// expandOutputName renders the configured output name template. The result
// is a bare name without extension; path separators are stripped so a
// template cannot escape the destination directory.
func expandOutputName(field string, values Values) (string, error) {
	funcMap := sprig.FuncMap()

	tmpl, err := template.New("output_name").Funcs(funcMap).Parse(field)
	if err != nil {
		return "", fmt.Errorf("unable to parse output name template: %w", err)
	}

	buf := new(bytes.Buffer)
	if err := tmpl.Execute(buf, values); err != nil {
		return "", err
	}

	name := buf.String()
	name = strings.ReplaceAll(name, "/", "-")
	name = strings.ReplaceAll(name, `\`, "-")
	name = strings.TrimSpace(name)
	if name == "" {
		return "", fmt.Errorf("output name template produced empty name")
	}
	return name, nil
}
