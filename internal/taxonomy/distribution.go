package taxonomy

import "github.com/pavelanni/toetsgen/internal/model"

// Distribution holds the percentage weight of each category of the active scheme.
// Values are not clamped; invalid totals are a normal transient editing state.
type Distribution struct {
	scheme Scheme
	values map[string]int
}

// NewDistribution returns the default distribution of a scheme.
func NewDistribution(s Scheme) *Distribution {
	d := &Distribution{}
	d.SwitchScheme(s)
	return d
}

// FromWeights builds a distribution for s from stored weights. Labels outside
// the scheme are dropped and missing labels are zero.
func FromWeights(s Scheme, weights []model.Weight) *Distribution {
	d := &Distribution{scheme: s, values: make(map[string]int, len(s.Categories))}
	for _, c := range s.Categories {
		d.values[c.Label] = 0
	}
	for _, w := range weights {
		d.SetValue(w.Label, w.Percent)
	}
	return d
}

// Scheme returns the active scheme.
func (d *Distribution) Scheme() Scheme {
	return d.scheme
}

// SetValue replaces one category's weight. Labels outside the scheme are ignored.
func (d *Distribution) SetValue(label string, percent int) {
	if !d.scheme.Has(label) {
		return
	}
	d.values[label] = percent
}

// Value returns the weight of label.
func (d *Distribution) Value(label string) int {
	return d.values[label]
}

// Total returns the sum over the active scheme's categories.
func (d *Distribution) Total() int {
	total := 0
	for _, c := range d.scheme.Categories {
		total += d.values[c.Label]
	}
	return total
}

// Valid reports whether the weights add up to exactly 100.
func (d *Distribution) Valid() bool {
	return d.Total() == 100
}

// SwitchScheme replaces the whole distribution with s's defaults.
func (d *Distribution) SwitchScheme(s Scheme) {
	d.scheme = s
	d.values = make(map[string]int, len(s.Categories))
	for _, c := range s.Categories {
		d.values[c.Label] = s.Defaults[c.Label]
	}
}

// Weights returns the weights in scheme order.
func (d *Distribution) Weights() []model.Weight {
	out := make([]model.Weight, len(d.scheme.Categories))
	for i, c := range d.scheme.Categories {
		out[i] = model.Weight{Label: c.Label, Percent: d.values[c.Label]}
	}
	return out
}
