// Package taxonomy describes the cognitive classification schemes used to
// label exam questions and the percentage distribution over their categories.
package taxonomy

import "github.com/pavelanni/toetsgen/internal/model"

// Category is one level of a scheme.
type Category struct {
	Label string
	Name  string
}

// Scheme is a tagged taxonomy: its ordered categories and default weights.
type Scheme struct {
	ID         model.TaxonomyID
	Title      string
	Categories []Category
	Defaults   map[string]int
}

// Labels returns the category labels in display order.
func (s Scheme) Labels() []string {
	labels := make([]string, len(s.Categories))
	for i, c := range s.Categories {
		labels[i] = c.Label
	}
	return labels
}

// Has reports whether label belongs to the scheme.
func (s Scheme) Has(label string) bool {
	for _, c := range s.Categories {
		if c.Label == label {
			return true
		}
	}
	return false
}

// CategoryName returns the long name of a label, or the label itself.
func (s Scheme) CategoryName(label string) string {
	for _, c := range s.Categories {
		if c.Label == label {
			return c.Name
		}
	}
	return label
}

var (
	// RTTI is the four-level scheme: reproduction, two training levels, insight.
	RTTI = Scheme{
		ID:    model.TaxonomyRTTI,
		Title: "RTTI",
		Categories: []Category{
			{Label: "R", Name: "Reproductie"},
			{Label: "T1", Name: "Training 1"},
			{Label: "T2", Name: "Training 2"},
			{Label: "I", Name: "Inzicht"},
		},
		Defaults: map[string]int{"R": 25, "T1": 40, "T2": 25, "I": 10},
	}

	// KTI is the three-level scheme: knowledge, application, insight.
	KTI = Scheme{
		ID:    model.TaxonomyKTI,
		Title: "KTI",
		Categories: []Category{
			{Label: "K", Name: "Kennis"},
			{Label: "T", Name: "Toepassen"},
			{Label: "I", Name: "Inzicht"},
		},
		Defaults: map[string]int{"K": 30, "T": 50, "I": 20},
	}
)

// Schemes lists every registered scheme in menu order.
func Schemes() []Scheme {
	return []Scheme{RTTI, KTI}
}

// Lookup returns the scheme with the given id and whether it exists.
func Lookup(id model.TaxonomyID) (Scheme, bool) {
	for _, s := range Schemes() {
		if s.ID == id {
			return s, true
		}
	}
	return Scheme{}, false
}

// MustLookup returns the scheme with the given id, falling back to RTTI.
func MustLookup(id model.TaxonomyID) Scheme {
	if s, ok := Lookup(id); ok {
		return s
	}
	return RTTI
}
