package report

import (
	"bytes"
	"fmt"
	htmltemplate "html/template"
	"path/filepath"
	"sort"
	"strings"
	"text/template"

	"github.com/dnswlt/stixmerge/internal/merge"
	"github.com/dnswlt/stixmerge/internal/store"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

// Config controls the content of merge reports.
type Config struct {
	Title string `yaml:"title"`
	// MaxListed limits the number of IDs listed per section. Zero means no limit.
	MaxListed int `yaml:"maxListed"`
}

func DefaultConfig() Config {
	return Config{
		Title: "ATT&CK dataset merge report",
	}
}

// Inputs names the files a merge was run on.
type Inputs struct {
	Baseline  string
	Extension string
	Output    string
}

// List is a possibly truncated list of IDs.
type List struct {
	Items []string
	More  int // Number of items left out.
}

// Len returns the length of the list before truncation.
func (l List) Len() int {
	return len(l.Items) + l.More
}

type TypeCount struct {
	Type  string
	Count int
}

// Report holds everything rendered into a merge report.
type Report struct {
	Title     string
	Timestamp string
	Inputs    Inputs

	BaselineCount   int
	ExtensionMerged int
	SkippedNoID     int
	ObjectCount     int

	CollectionID      string
	CollectionName    string
	CollectionVersion string
	Synthesized       bool
	ContentCount      int

	Types              []TypeCount
	Replaced           List
	Added              List
	DroppedCollections List
	InvalidIDs         List
}

func New(cfg Config, res *merge.Result, in Inputs) *Report {
	r := &Report{
		Title:             cfg.Title,
		Timestamp:         res.Timestamp,
		Inputs:            in,
		BaselineCount:     res.BaselineCount,
		ExtensionMerged:   res.ExtensionMerged,
		SkippedNoID:       res.SkippedNoID,
		ObjectCount:       res.ObjectCount(),
		CollectionID:      res.Collection.ID(),
		CollectionName:    res.CollectionName(),
		CollectionVersion: res.CollectionVersion(),
		Synthesized:       res.Synthesized,
		ContentCount:      len(res.Contents()),
	}
	r.Replaced = truncate(res.Replaced, cfg.MaxListed)
	r.Added = truncate(res.Added, cfg.MaxListed)
	r.DroppedCollections = truncate(res.DroppedCollections, cfg.MaxListed)
	invalid := make([]string, len(res.InvalidIDs))
	for i, err := range res.InvalidIDs {
		invalid[i] = err.Error()
	}
	r.InvalidIDs = truncate(invalid, cfg.MaxListed)

	counts := make(map[string]int)
	for _, o := range res.Bundle.Objects {
		counts[o.Type()]++
	}
	for t, n := range counts {
		r.Types = append(r.Types, TypeCount{Type: t, Count: n})
	}
	sort.Slice(r.Types, func(i, j int) bool {
		return r.Types[i].Type < r.Types[j].Type
	})
	return r
}

func truncate(items []string, max int) List {
	if max <= 0 || len(items) <= max {
		return List{Items: items}
	}
	return List{Items: items[:max], More: len(items) - max}
}

// Markdown renders the report as Markdown.
func (r *Report) Markdown() ([]byte, error) {
	var buf bytes.Buffer
	if err := markdownTemplate.Execute(&buf, r); err != nil {
		return nil, fmt.Errorf("failed to execute report template: %w", err)
	}
	return buf.Bytes(), nil
}

// HTML renders the report as a standalone HTML page.
func (r *Report) HTML() ([]byte, error) {
	md, err := r.Markdown()
	if err != nil {
		return nil, err
	}
	var body bytes.Buffer
	if err := markdown.Convert(md, &body); err != nil {
		return nil, fmt.Errorf("failed to process markdown: %v", err)
	}
	var buf bytes.Buffer
	err = htmlTemplate.Execute(&buf, struct {
		Title string
		Body  htmltemplate.HTML
	}{
		Title: r.Title,
		Body:  htmltemplate.HTML(body.String()),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to execute HTML template: %w", err)
	}
	return buf.Bytes(), nil
}

// Write renders the report to path. Paths ending in .html or .htm
// get HTML, anything else Markdown.
func Write(st store.Store, path string, r *Report) error {
	var render func() ([]byte, error)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".html", ".htm":
		render = r.HTML
	default:
		render = r.Markdown
	}
	bs, err := render()
	if err != nil {
		return err
	}
	if err := st.WriteFile(path, bs); err != nil {
		return fmt.Errorf("failed to write report to %s: %w", path, err)
	}
	return nil
}

var markdown = goldmark.New(
	goldmark.WithExtensions(extension.Table),
)

var markdownTemplate = template.Must(template.New("report").Parse(`# {{.Title}}

Generated at {{.Timestamp}}.

| Input | Path |
|---|---|
| Baseline | ` + "`{{.Inputs.Baseline}}`" + ` |
| Extension | ` + "`{{.Inputs.Extension}}`" + ` |
| Output | ` + "`{{.Inputs.Output}}`" + ` |

## Summary

- Baseline objects: {{.BaselineCount}}
- Extension objects merged: {{.ExtensionMerged}}
- Baseline objects replaced: {{.Replaced.Len}}
- Objects added: {{.Added.Len}}
- Objects skipped without ID: {{.SkippedNoID}}
- Final object count: {{.ObjectCount}}

## Collection

- ID: ` + "`{{.CollectionID}}`" + `{{if .Synthesized}} (synthesized){{end}}
- Name: {{.CollectionName}}
- Version: {{.CollectionVersion}}
- Indexed objects: {{.ContentCount}}

## Objects by type

| Type | Objects |
|---|---:|
{{range .Types}}| {{.Type}} | {{.Count}} |
{{end}}
{{- with .Replaced.Items}}
## Replaced objects
{{template "list" $.Replaced}}{{end}}
{{- with .Added.Items}}
## Added objects
{{template "list" $.Added}}{{end}}
{{- with .DroppedCollections.Items}}
## Dropped collections
{{template "list" $.DroppedCollections}}{{end}}
{{- with .InvalidIDs.Items}}
## Invalid identifiers
{{template "list" $.InvalidIDs}}{{end}}
{{- define "list"}}
{{range .Items}}- ` + "`{{.}}`" + `
{{end}}{{if .More}}- ... and {{.More}} more
{{end}}{{end}}`))

var htmlTemplate = htmltemplate.Must(htmltemplate.New("page").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
</head>
<body>
{{.Body}}
</body>
</html>
`))
