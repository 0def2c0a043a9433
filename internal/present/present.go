// Package present turns a generated test into view data and plain text.
package present

import (
	"net/url"
	"slices"
	"strconv"

	"github.com/pavelanni/toetsgen/internal/model"
	"github.com/pavelanni/toetsgen/internal/taxonomy"
)

// View selects one part of a generated test.
type View string

const (
	ViewTest     View = "test"
	ViewAnswers  View = "answers"
	ViewMatrix   View = "matrix"
	ViewAnalysis View = "analysis"
)

// Views lists every view in display order.
var Views = []View{ViewTest, ViewAnswers, ViewMatrix, ViewAnalysis}

// Layout chooses between one view at a time and the whole document.
type Layout string

const (
	LayoutTabbed Layout = "tabbed"
	LayoutFull   Layout = "full"
)

// Query parameter names used by ParseState and State.Query.
const (
	ParamView   = "view"
	ParamLayout = "layout"
	ParamMenu   = "menu"
)

// State is the result page's view selector.
type State struct {
	View     View
	Layout   Layout
	MenuOpen bool
}

// DefaultState shows the student test in tabbed layout.
func DefaultState() State {
	return State{View: ViewTest, Layout: LayoutTabbed}
}

// ParseState reads the selector from query values. Unknown values fall back
// to the defaults.
func ParseState(q url.Values) State {
	s := DefaultState()
	s.Select(View(q.Get(ParamView)))
	if Layout(q.Get(ParamLayout)) == LayoutFull {
		s.Layout = LayoutFull
	}
	s.MenuOpen = q.Get(ParamMenu) == "1"
	return s
}

// Select activates v if it is a known view.
func (s *State) Select(v View) {
	if slices.Contains(Views, v) {
		s.View = v
	}
}

// ToggleLayout switches between tabbed and full layout.
func (s *State) ToggleLayout() {
	if s.Layout == LayoutFull {
		s.Layout = LayoutTabbed
		return
	}
	s.Layout = LayoutFull
}

// ToggleMenu opens or closes the export menu.
func (s *State) ToggleMenu() {
	s.MenuOpen = !s.MenuOpen
}

// Sections returns the views to render: the active one, or all in full layout.
func (s State) Sections() []View {
	if s.Layout == LayoutFull {
		return Views
	}
	return []View{s.View}
}

// Query encodes the state for links.
func (s State) Query() url.Values {
	q := url.Values{}
	q.Set(ParamView, string(s.View))
	q.Set(ParamLayout, string(s.Layout))
	if s.MenuOpen {
		q.Set(ParamMenu, "1")
	}
	return q
}

// Question is a question with its display number.
type Question struct {
	model.Question
	Number int
	// Letters holds "A", "B", ... for each option.
	Letters []string
}

// Answer is an answer key entry joined with its question.
type Answer struct {
	model.AnswerKeyItem
	Number        int
	TaxonomyLabel string
}

// MatrixRow is a matrix row with counts in scheme order.
type MatrixRow struct {
	Topic  string
	Counts []int
	Total  int
}

// Goal is a learning goal with the numbers of the questions covering it.
// Unknown question ids render as "?".
type Goal struct {
	Goal    string
	Numbers []string
}

// Document is everything the result views need.
type Document struct {
	Title        string
	Introduction string
	Scheme       taxonomy.Scheme
	Questions    []Question
	Answers      []Answer
	Labels       []string
	Matrix       []MatrixRow
	ColumnTotals []int
	GrandTotal   int
	Goals        []Goal
	Analysis     string
}

// NewDocument derives view data from a generated test.
func NewDocument(t *model.GeneratedTest) *Document {
	scheme := taxonomy.MustLookup(t.Taxonomy)
	labels := scheme.Labels()

	d := &Document{
		Title:        t.Title,
		Introduction: t.Introduction,
		Scheme:       scheme,
		Labels:       labels,
		ColumnTotals: make([]int, len(labels)),
		Analysis:     t.AnalysisInstructions,
	}

	numbers := make(map[int]int, len(t.Questions))
	byID := make(map[int]model.Question, len(t.Questions))
	for i, q := range t.Questions {
		n := i + 1
		numbers[q.ID] = n
		byID[q.ID] = q
		letters := make([]string, len(q.Options))
		for j := range q.Options {
			letters[j] = optionLetter(j)
		}
		d.Questions = append(d.Questions, Question{Question: q, Number: n, Letters: letters})
	}

	for _, a := range t.Answers {
		ans := Answer{AnswerKeyItem: a, Number: numbers[a.QuestionID]}
		if q, ok := byID[a.QuestionID]; ok {
			ans.TaxonomyLabel = q.TaxonomyLabel
		}
		if ans.Number == 0 {
			ans.Number = a.QuestionID
		}
		d.Answers = append(d.Answers, ans)
	}

	for _, row := range t.Matrix {
		r := MatrixRow{Topic: row.Topic, Counts: make([]int, len(labels))}
		for i, l := range labels {
			n := row.Counts[l]
			r.Counts[i] = n
			r.Total += n
			d.ColumnTotals[i] += n
		}
		d.GrandTotal += r.Total
		d.Matrix = append(d.Matrix, r)
	}

	for _, gm := range t.GoalMapping {
		g := Goal{Goal: gm.Goal}
		for _, id := range gm.QuestionIDs {
			if n, ok := numbers[id]; ok {
				g.Numbers = append(g.Numbers, strconv.Itoa(n))
			} else {
				g.Numbers = append(g.Numbers, "?")
			}
		}
		d.Goals = append(d.Goals, g)
	}

	return d
}

func optionLetter(i int) string {
	if i < 26 {
		return string(rune('A' + i))
	}
	return strconv.Itoa(i + 1)
}
