// Package testconfig holds the editable exam configuration form and assembles
// it into the immutable configuration sent to the generator.
package testconfig

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/pavelanni/toetsgen/internal/model"
	"github.com/pavelanni/toetsgen/internal/qtype"
	"github.com/pavelanni/toetsgen/internal/taxonomy"
)

// Language register choices.
var LanguageLevels = []string{
	"Laag (Korte zinnen, makkelijke woorden)",
	"Normaal",
	"Hoog (Academisch)",
}

const (
	DefaultLanguageLevel = "Normaal"
	DefaultDuration      = 60
	DefaultQuestionCount = 15
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Fields are the free-text and numeric inputs of the form.
type Fields struct {
	Subject           string `json:"subject" validate:"required"`
	Level             string `json:"level"`
	Topics            string `json:"topics" validate:"required"`
	LearningGoals     string `json:"learning_goals"`
	Duration          int    `json:"duration" validate:"min=1,max=600"`
	QuestionCount     int    `json:"question_count" validate:"min=1,max=100"`
	LanguageLevel     string `json:"language_level" validate:"required"`
	ExtraRequirements string `json:"extra_requirements"`
}

// Draft is the mutable configuration a teacher edits before generating.
type Draft struct {
	Fields
	Distribution *taxonomy.Distribution
	Types        *qtype.Allocation
}

// New returns a draft with the documented defaults.
func New() *Draft {
	return &Draft{
		Fields: Fields{
			Duration:      DefaultDuration,
			QuestionCount: DefaultQuestionCount,
			LanguageLevel: DefaultLanguageLevel,
		},
		Distribution: taxonomy.NewDistribution(taxonomy.RTTI),
		Types:        qtype.NewAllocation(),
	}
}

// Problem identifies one reason a draft cannot be submitted.
type Problem struct {
	Code  string
	Field string
}

// Problem codes.
const (
	ProblemDistribution = "distribution"
	ProblemTypes        = "question_types"
	ProblemNoTypes      = "no_question_types"
	ProblemField        = "field"
)

// ValidationError lists every problem found in a draft.
type ValidationError struct {
	Problems []Problem
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Problems))
	for i, p := range e.Problems {
		if p.Field != "" {
			parts[i] = p.Code + ":" + p.Field
		} else {
			parts[i] = p.Code
		}
	}
	return "invalid configuration: " + strings.Join(parts, ", ")
}

// Has reports whether the error contains a problem with the given code.
func (e *ValidationError) Has(code string) bool {
	for _, p := range e.Problems {
		if p.Code == code {
			return true
		}
	}
	return false
}

// Submittable reports whether both percentage models are valid. Required
// fields are checked separately by Validate.
func (d *Draft) Submittable() bool {
	return d.Distribution.Valid() && d.Types.Valid()
}

// Validate checks the draft as it is right now.
func (d *Draft) Validate() error {
	var problems []Problem
	if !d.Distribution.Valid() {
		problems = append(problems, Problem{Code: ProblemDistribution})
	}
	switch {
	case d.Types.Empty():
		problems = append(problems, Problem{Code: ProblemNoTypes})
	case !d.Types.Valid():
		problems = append(problems, Problem{Code: ProblemTypes})
	}
	if err := validate.Struct(d.Fields); err != nil {
		var ve validator.ValidationErrors
		if !errors.As(err, &ve) {
			return fmt.Errorf("validate fields: %w", err)
		}
		for _, fe := range ve {
			problems = append(problems, Problem{Code: ProblemField, Field: fe.Field()})
		}
	}
	if len(problems) > 0 {
		return &ValidationError{Problems: problems}
	}
	return nil
}

// Assemble re-validates the draft and returns the configuration snapshot.
func (d *Draft) Assemble() (model.TestConfiguration, error) {
	if err := d.Validate(); err != nil {
		return model.TestConfiguration{}, err
	}
	return model.TestConfiguration{
		Taxonomy:          d.Distribution.Scheme().ID,
		Subject:           d.Subject,
		Level:             d.Level,
		Topics:            d.Topics,
		LearningGoals:     d.LearningGoals,
		Distribution:      d.Distribution.Weights(),
		Duration:          d.Duration,
		QuestionCount:     d.QuestionCount,
		QuestionTypes:     d.Types.Describe(),
		LanguageLevel:     d.LanguageLevel,
		ExtraRequirements: d.ExtraRequirements,
	}, nil
}

// stored is the persisted form of a draft.
type stored struct {
	Fields
	Taxonomy     model.TaxonomyID `json:"taxonomy"`
	Distribution []model.Weight   `json:"distribution"`
	Types        []model.Weight   `json:"question_types"`
	NextType     string           `json:"next_type"`
}

// Encode serialises a draft for storage.
func Encode(d *Draft) ([]byte, error) {
	return json.Marshal(stored{
		Fields:       d.Fields,
		Taxonomy:     d.Distribution.Scheme().ID,
		Distribution: d.Distribution.Weights(),
		Types:        d.Types.Entries(),
		NextType:     d.Types.Next(),
	})
}

// Decode restores a draft written by Encode.
func Decode(data []byte) (*Draft, error) {
	var s stored
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decode draft: %w", err)
	}
	return &Draft{
		Fields:       s.Fields,
		Distribution: taxonomy.FromWeights(taxonomy.MustLookup(s.Taxonomy), s.Distribution),
		Types:        qtype.FromWeights(s.Types, s.NextType),
	}, nil
}
