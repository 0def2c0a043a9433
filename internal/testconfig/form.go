package testconfig

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/pavelanni/toetsgen/internal/model"
	"github.com/pavelanni/toetsgen/internal/qtype"
	"github.com/pavelanni/toetsgen/internal/taxonomy"
)

// Action is a button on the configuration form.
type Action string

const (
	ActionSave         Action = "save"
	ActionAddType      Action = "add_type"
	ActionRemoveType   Action = "remove_type"
	ActionSwitchScheme Action = "switch_scheme"
	ActionSuggest      Action = "suggest"
	ActionGenerate     Action = "generate"
)

// Form field names.
const (
	FieldAction        = "action"
	FieldTarget        = "target"
	FieldTaxonomy      = "taxonomy"
	FieldNewTaxonomy   = "new_taxonomy"
	FieldDistPrefix    = "dist_"
	FieldTypeLabel     = "qt_label"
	FieldTypePercent   = "qt_percent"
	FieldNextType      = "next_type"
	FieldSubject       = "subject"
	FieldLevel         = "level"
	FieldTopics        = "topics"
	FieldLearningGoals = "learning_goals"
	FieldDuration      = "duration"
	FieldQuestionCount = "question_count"
	FieldLanguageLevel = "language_level"
	FieldExtra         = "extra_requirements"
)

// ParseForm rebuilds a draft from submitted form values. Unparseable numbers
// become zero, which the validity checks then surface.
func ParseForm(form url.Values) *Draft {
	scheme := taxonomy.MustLookup(model.TaxonomyID(form.Get(FieldTaxonomy)))
	weights := make([]model.Weight, 0, len(scheme.Categories))
	for _, label := range scheme.Labels() {
		weights = append(weights, model.Weight{Label: label, Percent: atoi(form.Get(FieldDistPrefix + label))})
	}

	labels := form[FieldTypeLabel]
	percents := form[FieldTypePercent]
	types := make([]model.Weight, 0, len(labels))
	for i, label := range labels {
		p := 0
		if i < len(percents) {
			p = atoi(percents[i])
		}
		types = append(types, model.Weight{Label: label, Percent: p})
	}

	languageLevel := form.Get(FieldLanguageLevel)
	if languageLevel == "" {
		languageLevel = DefaultLanguageLevel
	}

	return &Draft{
		Fields: Fields{
			Subject:           form.Get(FieldSubject),
			Level:             form.Get(FieldLevel),
			Topics:            form.Get(FieldTopics),
			LearningGoals:     form.Get(FieldLearningGoals),
			Duration:          atoi(form.Get(FieldDuration)),
			QuestionCount:     atoi(form.Get(FieldQuestionCount)),
			LanguageLevel:     languageLevel,
			ExtraRequirements: form.Get(FieldExtra),
		},
		Distribution: taxonomy.FromWeights(scheme, weights),
		Types:        qtype.FromWeights(types, form.Get(FieldNextType)),
	}
}

// ParseAction returns the requested action and its target. The remove button
// carries its label in the value as "remove_type:<label>".
func ParseAction(form url.Values) (Action, string) {
	raw := form.Get(FieldAction)
	if name, target, ok := strings.Cut(raw, ":"); ok {
		return Action(name), target
	}
	return Action(raw), form.Get(FieldTarget)
}

// Apply performs the in-place form actions. Suggest and generate need the
// network and are handled by the caller.
func (d *Draft) Apply(action Action, target string, form url.Values) {
	switch action {
	case ActionAddType:
		d.Types.Add(d.Types.Next())
	case ActionRemoveType:
		d.Types.Remove(target)
	case ActionSwitchScheme:
		if s, ok := taxonomy.Lookup(model.TaxonomyID(form.Get(FieldNewTaxonomy))); ok {
			d.Distribution.SwitchScheme(s)
		}
	}
}

func atoi(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0
	}
	return n
}
