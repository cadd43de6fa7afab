package scoring

// Scoring modes recorded in an Evaluation.
const (
	ModeDocumentOnly      = "resume_only"
	ModeDocumentAndTarget = "resume_plus_match"
)

// Breakdown records the inputs of a combined score.
type Breakdown map[string]float64

// Combine blends the document and alignment totals using the overall
// sub-table of weights.
func Combine(doc, alignment Report, weights Table) (float64, Breakdown) {
	w, _ := weights.Weights(KindOverall)

	docWeight := w["document"]
	alignWeight := w["alignment"]

	score := clamp(doc.Total*docWeight + alignment.Total*alignWeight)

	return round(score), Breakdown{
		"document_total":   doc.Total,
		"document_weight":  docWeight,
		"alignment_total":  alignment.Total,
		"alignment_weight": alignWeight,
	}
}
