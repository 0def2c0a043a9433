package present

import (
	"fmt"
	"strings"
)

// Section headers of the plain-text export, in document order.
const (
	HeaderTest     = "TOETS"
	HeaderAnswers  = "ANTWOORDMODEL"
	HeaderMatrix   = "TOETSMATRIJS"
	HeaderGoals    = "DEKKING LEERDOELEN"
	HeaderAnalysis = "TOETSANALYSE"
)

const rule = "========================================"

// ExportText serialises the active view, or the whole document in full
// layout, as plain text. The output depends only on doc and s.
func ExportText(doc *Document, s State) string {
	var b strings.Builder
	b.WriteString(doc.Title)
	b.WriteString("\n")

	for _, v := range s.Sections() {
		switch v {
		case ViewTest:
			writeTest(&b, doc)
		case ViewAnswers:
			writeAnswers(&b, doc)
		case ViewMatrix:
			writeMatrix(&b, doc)
			writeGoals(&b, doc)
		case ViewAnalysis:
			writeAnalysis(&b, doc)
		}
	}
	return b.String()
}

func header(b *strings.Builder, title string) {
	fmt.Fprintf(b, "\n%s\n%s\n\n", title, rule)
}

func writeTest(b *strings.Builder, doc *Document) {
	header(b, HeaderTest)
	if doc.Introduction != "" {
		b.WriteString(doc.Introduction)
		b.WriteString("\n\n")
	}
	for _, q := range doc.Questions {
		fmt.Fprintf(b, "%d. %s (%d pt)\n", q.Number, q.Text, q.Points)
		for i, opt := range q.Options {
			fmt.Fprintf(b, "   %s. %s\n", q.Letters[i], opt)
		}
		b.WriteString("\n")
	}
}

func writeAnswers(b *strings.Builder, doc *Document) {
	header(b, HeaderAnswers)
	for _, a := range doc.Answers {
		fmt.Fprintf(b, "%d. [%s] %s\n", a.Number, a.TaxonomyLabel, a.Answer)
		if a.Criteria != "" {
			fmt.Fprintf(b, "   Criteria: %s\n", a.Criteria)
		}
		if a.Explanation != "" {
			fmt.Fprintf(b, "   Toelichting: %s\n", a.Explanation)
		}
	}
}

func writeMatrix(b *strings.Builder, doc *Document) {
	header(b, HeaderMatrix)
	cols := append([]string{"Onderwerp"}, doc.Labels...)
	cols = append(cols, "Totaal")
	b.WriteString(strings.Join(cols, "\t"))
	b.WriteString("\n")

	for _, r := range doc.Matrix {
		cells := []string{r.Topic}
		for _, n := range r.Counts {
			cells = append(cells, fmt.Sprint(n))
		}
		cells = append(cells, fmt.Sprint(r.Total))
		b.WriteString(strings.Join(cells, "\t"))
		b.WriteString("\n")
	}

	cells := []string{"Totaal"}
	for _, n := range doc.ColumnTotals {
		cells = append(cells, fmt.Sprint(n))
	}
	cells = append(cells, fmt.Sprint(doc.GrandTotal))
	b.WriteString(strings.Join(cells, "\t"))
	b.WriteString("\n")
}

func writeGoals(b *strings.Builder, doc *Document) {
	header(b, HeaderGoals)
	for _, g := range doc.Goals {
		fmt.Fprintf(b, "- %s: vraag %s\n", g.Goal, strings.Join(g.Numbers, ", "))
	}
}

func writeAnalysis(b *strings.Builder, doc *Document) {
	header(b, HeaderAnalysis)
	b.WriteString(doc.Analysis)
	b.WriteString("\n")
}
