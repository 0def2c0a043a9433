package taxonomy

import (
	"testing"

	"github.com/pavelanni/toetsgen/internal/model"
)

func TestDefaults(t *testing.T) {
	tests := []struct {
		scheme Scheme
		want   []model.Weight
	}{
		{RTTI, []model.Weight{{Label: "R", Percent: 25}, {Label: "T1", Percent: 40}, {Label: "T2", Percent: 25}, {Label: "I", Percent: 10}}},
		{KTI, []model.Weight{{Label: "K", Percent: 30}, {Label: "T", Percent: 50}, {Label: "I", Percent: 20}}},
	}
	for _, tt := range tests {
		t.Run(tt.scheme.Title, func(t *testing.T) {
			d := NewDistribution(tt.scheme)
			got := d.Weights()
			if len(got) != len(tt.want) {
				t.Fatalf("Weights() = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("Weights()[%d] = %v, want %v", i, got[i], tt.want[i])
				}
			}
			if !d.Valid() {
				t.Errorf("default distribution should be valid, total %d", d.Total())
			}
		})
	}
}

func TestValidIffSumIs100(t *testing.T) {
	tests := []struct {
		name   string
		values map[string]int
		total  int
	}{
		{"scenario B", map[string]int{"R": 30, "T1": 40, "T2": 25, "I": 10}, 105},
		{"exact", map[string]int{"R": 10, "T1": 20, "T2": 30, "I": 40}, 100},
		{"all zero", map[string]int{"R": 0, "T1": 0, "T2": 0, "I": 0}, 0},
		{"negative allowed", map[string]int{"R": -10, "T1": 60, "T2": 40, "I": 10}, 100},
		{"over range", map[string]int{"R": 150, "T1": 0, "T2": 0, "I": 0}, 150},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := NewDistribution(RTTI)
			for label, v := range tt.values {
				d.SetValue(label, v)
			}
			if d.Total() != tt.total {
				t.Errorf("Total() = %d, want %d", d.Total(), tt.total)
			}
			if d.Valid() != (tt.total == 100) {
				t.Errorf("Valid() = %v with total %d", d.Valid(), tt.total)
			}
		})
	}
}

func TestSetValueIgnoresForeignLabel(t *testing.T) {
	d := NewDistribution(KTI)
	d.SetValue("T1", 99)
	if d.Total() != 100 {
		t.Errorf("foreign label changed total to %d", d.Total())
	}
	if d.Value("T1") != 0 {
		t.Errorf("Value(T1) = %d, want 0", d.Value("T1"))
	}
}

func TestSwitchSchemeResets(t *testing.T) {
	d := NewDistribution(RTTI)
	d.SetValue("R", 70)

	d.SwitchScheme(KTI)
	if d.Scheme().ID != model.TaxonomyKTI {
		t.Fatalf("scheme = %s, want KTI", d.Scheme().ID)
	}
	if d.Value("K") != 30 || d.Value("T") != 50 || d.Value("I") != 20 {
		t.Errorf("KTI defaults not applied: %v", d.Weights())
	}

	d.SetValue("K", 0)
	d.SwitchScheme(KTI)
	d.SwitchScheme(KTI)
	if d.Value("K") != 30 {
		t.Errorf("repeated switch should reset to defaults, got K=%d", d.Value("K"))
	}

	d.SwitchScheme(RTTI)
	if d.Value("R") != 25 {
		t.Errorf("switch back should not carry over prior values, got R=%d", d.Value("R"))
	}
}

func TestFromWeights(t *testing.T) {
	d := FromWeights(KTI, []model.Weight{{Label: "K", Percent: 40}, {Label: "R", Percent: 10}, {Label: "I", Percent: 60}})
	if d.Value("T") != 0 {
		t.Errorf("missing label should be zero, got %d", d.Value("T"))
	}
	if d.Total() != 100 {
		t.Errorf("Total() = %d, want 100", d.Total())
	}
}

func TestLookup(t *testing.T) {
	if s, ok := Lookup("KTI"); !ok || s.Title != "KTI" {
		t.Errorf("Lookup(KTI) = %v, %v", s.Title, ok)
	}
	if _, ok := Lookup("BLOOM"); ok {
		t.Error("Lookup(BLOOM) should fail")
	}
	if s := MustLookup("BLOOM"); s.ID != model.TaxonomyRTTI {
		t.Errorf("MustLookup fallback = %s, want RTTI", s.ID)
	}
	if got := RTTI.CategoryName("T2"); got != "Training 2" {
		t.Errorf("CategoryName(T2) = %q", got)
	}
}
