// Package qtype models the mix of question types requested for an exam.
package qtype

import (
	"fmt"
	"slices"
	"strings"

	"github.com/pavelanni/toetsgen/internal/model"
)

const (
	MultipleChoice = "Meerkeuze"
	OpenAnswer     = "Open vraag / korte antwoord"
)

// Catalog is the fixed list of selectable question types.
var Catalog = []string{
	MultipleChoice,
	OpenAnswer,
	"Invultekst / invuloefening",
	"Waar/Niet waar",
	"Matchen / koppelen",
	"Ordenen / sorteren",
	"Tekening / diagram maken",
	"Casus / contextvraag",
	"Redeneringsvraag / verklaring geven",
	"Simulatie / experiment / praktijkopdracht",
}

// Fallback describes an allocation without any entries.
const Fallback = "Gevarieerd (Open en Gesloten vragen)"

// Allocation is an ordered set of question types with percentages.
type Allocation struct {
	entries []model.Weight
	next    string
}

// NewAllocation returns the seeded 50/50 multiple-choice and open-answer split.
func NewAllocation() *Allocation {
	a := &Allocation{entries: []model.Weight{
		{Label: MultipleChoice, Percent: 50},
		{Label: OpenAnswer, Percent: 50},
	}}
	a.repairNext()
	return a
}

// FromWeights rebuilds an allocation, dropping unknown and duplicate labels.
func FromWeights(weights []model.Weight, next string) *Allocation {
	a := &Allocation{}
	for _, w := range weights {
		if !inCatalog(w.Label) || a.index(w.Label) >= 0 {
			continue
		}
		a.entries = append(a.entries, w)
	}
	a.next = next
	a.repairNext()
	return a
}

// Add appends label at 0% if it is a catalog entry that is not yet selected.
func (a *Allocation) Add(label string) {
	if !inCatalog(label) || a.index(label) >= 0 || len(a.Available()) == 0 {
		return
	}
	a.entries = append(a.entries, model.Weight{Label: label, Percent: 0})
	a.repairNext()
}

// Remove deletes label from the allocation.
func (a *Allocation) Remove(label string) {
	i := a.index(label)
	if i < 0 {
		return
	}
	a.entries = slices.Delete(a.entries, i, i+1)
	a.repairNext()
}

// Update replaces the percentage of a selected label.
func (a *Allocation) Update(label string, percent int) {
	if i := a.index(label); i >= 0 {
		a.entries[i].Percent = percent
	}
}

// Total returns the sum of all percentages.
func (a *Allocation) Total() int {
	total := 0
	for _, e := range a.entries {
		total += e.Percent
	}
	return total
}

// Valid reports whether at least one type is selected and the percentages add up to 100.
func (a *Allocation) Valid() bool {
	return len(a.entries) > 0 && a.Total() == 100
}

// Empty reports whether no type is selected.
func (a *Allocation) Empty() bool {
	return len(a.entries) == 0
}

// Entries returns a copy of the selected types in order.
func (a *Allocation) Entries() []model.Weight {
	return slices.Clone(a.entries)
}

// Available returns the catalog entries not yet selected, in catalog order.
func (a *Allocation) Available() []string {
	var out []string
	for _, label := range Catalog {
		if a.index(label) < 0 {
			out = append(out, label)
		}
	}
	return out
}

// Next returns the label the add control points at.
func (a *Allocation) Next() string {
	return a.next
}

// SetNext moves the add pointer and repairs it if label is not available.
func (a *Allocation) SetNext(label string) {
	a.next = label
	a.repairNext()
}

// Describe renders the allocation as "50% Meerkeuze, 50% Open vraag / korte antwoord".
func (a *Allocation) Describe() string {
	if len(a.entries) == 0 {
		return Fallback
	}
	parts := make([]string, len(a.entries))
	for i, e := range a.entries {
		parts[i] = fmt.Sprintf("%d%% %s", e.Percent, e.Label)
	}
	return strings.Join(parts, ", ")
}

// repairNext keeps the pointer on an available label. With nothing left it
// keeps the stale value.
func (a *Allocation) repairNext() {
	avail := a.Available()
	if slices.Contains(avail, a.next) {
		return
	}
	if len(avail) > 0 {
		a.next = avail[0]
	}
}

func (a *Allocation) index(label string) int {
	return slices.IndexFunc(a.entries, func(w model.Weight) bool { return w.Label == label })
}

func inCatalog(label string) bool {
	return slices.Contains(Catalog, label)
}
