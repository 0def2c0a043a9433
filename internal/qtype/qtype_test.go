package qtype

import (
	"slices"
	"testing"

	"github.com/pavelanni/toetsgen/internal/model"
)

func TestNewAllocation(t *testing.T) {
	a := NewAllocation()
	if !a.Valid() {
		t.Fatalf("seeded allocation should be valid, total %d", a.Total())
	}
	want := "50% Meerkeuze, 50% Open vraag / korte antwoord"
	if got := a.Describe(); got != want {
		t.Errorf("Describe() = %q, want %q", got, want)
	}
	if a.Next() != Catalog[2] {
		t.Errorf("Next() = %q, want first available %q", a.Next(), Catalog[2])
	}
}

func TestAddRemoveNoops(t *testing.T) {
	a := NewAllocation()
	before := a.Entries()

	a.Add(MultipleChoice)
	if !slices.Equal(a.Entries(), before) {
		t.Errorf("adding a present label changed entries: %v", a.Entries())
	}

	a.Add("Essay")
	if !slices.Equal(a.Entries(), before) {
		t.Errorf("adding a label outside the catalog changed entries: %v", a.Entries())
	}

	a.Remove("Waar/Niet waar")
	if !slices.Equal(a.Entries(), before) {
		t.Errorf("removing an absent label changed entries: %v", a.Entries())
	}

	a.Update("Waar/Niet waar", 40)
	if !slices.Equal(a.Entries(), before) {
		t.Errorf("updating an absent label changed entries: %v", a.Entries())
	}
}

func TestAddAppendsAtZero(t *testing.T) {
	a := NewAllocation()
	a.Add("Waar/Niet waar")
	entries := a.Entries()
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}
	if entries[2] != (model.Weight{Label: "Waar/Niet waar", Percent: 0}) {
		t.Errorf("appended entry = %v", entries[2])
	}
	if !a.Valid() {
		t.Error("a 0% entry should keep the total at 100")
	}
}

func TestCatalogExhausted(t *testing.T) {
	a := NewAllocation()
	for _, label := range Catalog {
		a.Add(label)
	}
	if len(a.Entries()) != len(Catalog) {
		t.Fatalf("expected %d entries, got %d", len(Catalog), len(a.Entries()))
	}
	if len(a.Available()) != 0 {
		t.Errorf("Available() = %v, want none", a.Available())
	}
	last := a.Next()
	if last == "" {
		t.Error("pointer should be left dangling, not cleared")
	}
	a.Add(last)
	if len(a.Entries()) != len(Catalog) {
		t.Error("adding with an exhausted catalog should be a no-op")
	}
}

func TestPointerRepair(t *testing.T) {
	a := NewAllocation()
	a.SetNext("Ordenen / sorteren")
	if a.Next() != "Ordenen / sorteren" {
		t.Fatalf("Next() = %q", a.Next())
	}

	a.Add("Ordenen / sorteren")
	if a.Next() != Catalog[2] {
		t.Errorf("pointer should advance to first available, got %q", a.Next())
	}

	a.SetNext(MultipleChoice)
	if a.Next() != Catalog[2] {
		t.Errorf("pointing at a selected label should be repaired, got %q", a.Next())
	}

	a.Remove(MultipleChoice)
	a.SetNext(MultipleChoice)
	if a.Next() != MultipleChoice {
		t.Errorf("removed label should become available, got %q", a.Next())
	}
}

func TestValidity(t *testing.T) {
	tests := []struct {
		name    string
		weights []model.Weight
		valid   bool
	}{
		{"empty", nil, false},
		{"single 100", []model.Weight{{Label: MultipleChoice, Percent: 100}}, true},
		{"under", []model.Weight{{Label: MultipleChoice, Percent: 30}, {Label: OpenAnswer, Percent: 30}}, false},
		{"over", []model.Weight{{Label: MultipleChoice, Percent: 70}, {Label: OpenAnswer, Percent: 40}}, false},
		{"three way", []model.Weight{{Label: MultipleChoice, Percent: 20}, {Label: OpenAnswer, Percent: 30}, {Label: "Waar/Niet waar", Percent: 50}}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := FromWeights(tt.weights, "")
			if a.Valid() != tt.valid {
				t.Errorf("Valid() = %v, want %v (total %d)", a.Valid(), tt.valid, a.Total())
			}
		})
	}
}

func TestDescribe(t *testing.T) {
	a := FromWeights([]model.Weight{{Label: OpenAnswer, Percent: 70}, {Label: MultipleChoice, Percent: 30}}, "")
	want := "70% Open vraag / korte antwoord, 30% Meerkeuze"
	if got := a.Describe(); got != want {
		t.Errorf("Describe() = %q, want %q", got, want)
	}
	if a.Describe() != a.Describe() {
		t.Error("Describe() should be deterministic")
	}

	a.Remove(OpenAnswer)
	a.Remove(MultipleChoice)
	if got := a.Describe(); got != Fallback {
		t.Errorf("empty Describe() = %q, want fallback", got)
	}
}

func TestFromWeightsDropsDuplicates(t *testing.T) {
	a := FromWeights([]model.Weight{{Label: MultipleChoice, Percent: 40}, {Label: MultipleChoice, Percent: 60}, {Label: "Essay", Percent: 10}}, "")
	entries := a.Entries()
	if len(entries) != 1 || entries[0].Percent != 40 {
		t.Errorf("Entries() = %v, want only the first Meerkeuze", entries)
	}
}
