package llm

import (
	"github.com/sashabaranov/go-openai/jsonschema"

	"github.com/pavelanni/toetsgen/internal/model"
	"github.com/pavelanni/toetsgen/internal/taxonomy"
)

// ExamSchema returns the response schema for a test in the given taxonomy.
// Question labels and matrix count columns follow the scheme's labels.
func ExamSchema(id model.TaxonomyID) jsonschema.Definition {
	scheme := taxonomy.MustLookup(id)
	labels := scheme.Labels()

	counts := make(map[string]jsonschema.Definition, len(labels))
	for _, l := range labels {
		counts[l] = jsonschema.Definition{Type: jsonschema.Integer}
	}

	str := jsonschema.Definition{Type: jsonschema.String}
	integer := jsonschema.Definition{Type: jsonschema.Integer}

	return jsonschema.Definition{
		Type: jsonschema.Object,
		Properties: map[string]jsonschema.Definition{
			"title":        str,
			"taxonomy":     {Type: jsonschema.String, Enum: []string{string(scheme.ID)}},
			"introduction": str,
			"questions": {
				Type: jsonschema.Array,
				Items: &jsonschema.Definition{
					Type: jsonschema.Object,
					Properties: map[string]jsonschema.Definition{
						"id":            integer,
						"text":          str,
						"taxonomyLabel": {Type: jsonschema.String, Enum: labels},
						"type": {Type: jsonschema.String, Enum: []string{
							string(model.QuestionMultipleChoice),
							string(model.QuestionOpen),
							string(model.QuestionOther),
						}},
						"options": {Type: jsonschema.Array, Items: &str},
						"points":  integer,
					},
					Required: []string{"id", "text", "taxonomyLabel", "type", "points"},
				},
			},
			"matrix": {
				Type: jsonschema.Array,
				Items: &jsonschema.Definition{
					Type: jsonschema.Object,
					Properties: map[string]jsonschema.Definition{
						"topic": str,
						"counts": {
							Type:       jsonschema.Object,
							Properties: counts,
							Required:   labels,
						},
					},
					Required: []string{"topic", "counts"},
				},
			},
			"answers": {
				Type: jsonschema.Array,
				Items: &jsonschema.Definition{
					Type: jsonschema.Object,
					Properties: map[string]jsonschema.Definition{
						"questionId":  integer,
						"answer":      str,
						"criteria":    str,
						"explanation": str,
					},
					Required: []string{"questionId", "answer", "explanation"},
				},
			},
			"goalMapping": {
				Type: jsonschema.Array,
				Items: &jsonschema.Definition{
					Type: jsonschema.Object,
					Properties: map[string]jsonschema.Definition{
						"goal":        str,
						"questionIds": {Type: jsonschema.Array, Items: &integer},
					},
					Required: []string{"goal", "questionIds"},
				},
			},
			"analysisInstructions": str,
		},
		Required: []string{"title", "taxonomy", "questions", "matrix", "answers", "goalMapping", "analysisInstructions"},
	}
}
