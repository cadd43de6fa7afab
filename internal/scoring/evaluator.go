package scoring

import (
	"go.uber.org/zap"

	"github.com/spigell/ats-tuner/internal/resume"
)

// Evaluation is the scalar the optimizer maximizes together with the
// reports it was derived from.
type Evaluation struct {
	Score     float64   `json:"score"`
	Mode      string    `json:"mode"`
	Document  Report    `json:"document"`
	Alignment *Report   `json:"alignment,omitempty"`
	Breakdown Breakdown `json:"breakdown,omitempty"`
	Cached    bool      `json:"-"`
}

// Reports lists the underlying reports, document first.
func (e Evaluation) Reports() []Report {
	if e.Alignment == nil {
		return []Report{e.Document}
	}
	return []Report{e.Document, *e.Alignment}
}

// Evaluator scores documents with a fixed weights table and an optional cache.
type Evaluator struct {
	weights     Table
	weightsHash string
	cache       *Cache
	opts        []Option
	logger      *zap.Logger
}

// NewEvaluator binds a weights table. Warnings about the table are logged once here.
func NewEvaluator(weights Table, cache *Cache, logger *zap.Logger, opts ...Option) *Evaluator {
	if logger == nil {
		logger = zap.NewNop()
	}
	if weights == nil {
		weights = Table{}
	}

	for _, kind := range []Kind{KindDocument, KindAlignment, KindOverall} {
		if _, warnings := weights.Weights(kind); len(warnings) > 0 {
			for _, w := range warnings {
				logger.Warn("weights fallback", zap.String("detail", w))
			}
		}
	}

	return &Evaluator{
		weights:     weights,
		weightsHash: weights.Hash(),
		cache:       cache,
		opts:        opts,
		logger:      logger,
	}
}

func (e *Evaluator) Weights() Table { return e.weights }

func (e *Evaluator) WeightsHash() string { return e.weightsHash }

// Evaluate returns the document score alone when target is nil, otherwise
// the document and alignment totals blended by Combine.
func (e *Evaluator) Evaluate(doc resume.Document, target *Target) Evaluation {
	key := CacheKey{Document: doc.Hash(), Weights: e.weightsHash}
	if target != nil {
		key.Target = target.Hash()
	}

	if ev, ok := e.cache.Get(key); ok {
		ev.Cached = true
		return ev
	}

	docReport := ScoreDocument(doc, e.weights)
	ev := Evaluation{Score: docReport.Total, Mode: ModeDocumentOnly, Document: docReport}

	if target != nil {
		alignment := ScoreAlignment(doc, *target, e.weights, e.opts...)
		ev.Alignment = &alignment
		ev.Score, ev.Breakdown = Combine(docReport, alignment, e.weights)
		ev.Mode = ModeDocumentAndTarget
	}

	e.cache.Add(key, ev)
	e.logger.Debug("scored document",
		zap.String("mode", ev.Mode),
		zap.Float64("score", ev.Score),
		zap.Float64("document_total", docReport.Total),
	)
	return ev
}
