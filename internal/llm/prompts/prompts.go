package prompts

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"sync"
	"text/template"

	"github.com/pavelanni/toetsgen/internal/model"
	"github.com/pavelanni/toetsgen/internal/taxonomy"
)

// Templates holds the built-in prompt templates.
//
//go:embed templates/*.txt
var Templates embed.FS

var (
	loadOnce          sync.Once
	loadErr           error
	generateTemplates map[model.TaxonomyID]*template.Template
	suggestTemplate   *template.Template
)

var funcs = template.FuncMap{"join": strings.Join}

// WeightLine is one category of the requested distribution.
type WeightLine struct {
	Label   string
	Name    string
	Percent int
}

// GenerateData holds template data for generation prompts.
type GenerateData struct {
	Config  model.TestConfiguration
	Scheme  taxonomy.Scheme
	Weights []WeightLine
}

// SuggestData holds template data for the topic suggestion prompt.
type SuggestData struct {
	Subject string
	Level   string
}

func generateFile(id model.TaxonomyID) string {
	return "generate_" + strings.ToLower(string(id)) + ".txt"
}

// Load parses the prompt templates from fsys.
// It uses sync.Once to ensure templates are loaded only once.
func Load(fsys fs.FS) error {
	loadOnce.Do(func() {
		generateTemplates = make(map[model.TaxonomyID]*template.Template)

		for _, s := range taxonomy.Schemes() {
			name := generateFile(s.ID)
			tmpl, err := template.New(name).Funcs(funcs).ParseFS(fsys, "templates/"+name, "templates/config.txt")
			if err != nil {
				loadErr = fmt.Errorf("parse prompt template %s: %w", name, err)
				return
			}
			generateTemplates[s.ID] = tmpl
		}

		tmpl, err := template.New("suggest.txt").ParseFS(fsys, "templates/suggest.txt")
		if err != nil {
			loadErr = fmt.Errorf("parse prompt template suggest.txt: %w", err)
			return
		}
		suggestTemplate = tmpl
	})
	return loadErr
}

// BuildGeneratePrompt renders the generation prompt for the configuration's scheme.
func BuildGeneratePrompt(cfg model.TestConfiguration) (string, error) {
	if generateTemplates == nil {
		return "", errors.New("templates not initialized: call Load first")
	}
	tmpl, ok := generateTemplates[cfg.Taxonomy]
	if !ok {
		if loadErr != nil {
			return "", fmt.Errorf("templates load failed: %w", loadErr)
		}
		return "", errors.New("unknown taxonomy: " + string(cfg.Taxonomy))
	}

	scheme := taxonomy.MustLookup(cfg.Taxonomy)
	data := GenerateData{Config: cfg, Scheme: scheme}
	for _, w := range cfg.Distribution {
		data.Weights = append(data.Weights, WeightLine{
			Label:   w.Label,
			Name:    scheme.CategoryName(w.Label),
			Percent: w.Percent,
		})
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, generateFile(cfg.Taxonomy), data); err != nil {
		return "", err
	}
	return strings.TrimSpace(buf.String()), nil
}

// BuildSuggestPrompt renders the topic research prompt.
func BuildSuggestPrompt(subject, level string) (string, error) {
	if suggestTemplate == nil {
		return "", errors.New("templates not initialized: call Load first")
	}
	var buf bytes.Buffer
	if err := suggestTemplate.Execute(&buf, SuggestData{Subject: subject, Level: level}); err != nil {
		return "", err
	}
	return buf.String(), nil
}
