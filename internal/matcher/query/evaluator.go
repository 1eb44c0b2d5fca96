// Package query turns a product's manufacturer and model into a conjunctive
// plan and evaluates it against the listing index.
package query

import (
	"log/slog"

	"github.com/Adithya-Monish-Kumar-K/listing-matcher/internal/matcher/index"
	apperrors "github.com/Adithya-Monish-Kumar-K/listing-matcher/pkg/errors"
)

type Evaluator struct {
	idx    *index.Index
	logger *slog.Logger
}

func NewEvaluator(idx *index.Index) *Evaluator {
	return &Evaluator{
		idx:    idx,
		logger: slog.Default().With("component", "query-evaluator"),
	}
}

// Evaluate returns the live listing ids, ascending, whose manufacturer
// field contains every manufacturer term and whose title contains every
// model term.
func (e *Evaluator) Evaluate(plan *Plan) ([]int, error) {
	if e.idx == nil || !e.idx.Built() {
		return nil, apperrors.New(apperrors.ErrIndexNotBuilt, "evaluate", "listing index queried before build")
	}
	if !plan.Satisfiable() {
		e.logger.Debug("unsatisfiable plan",
			"manufacturer", plan.Manufacturer,
			"model", plan.Model,
		)
		return []int{}, nil
	}
	byManufacturer := e.idx.QueryManufacturerTerms(plan.ManufacturerTerms)
	if len(byManufacturer) == 0 {
		return []int{}, nil
	}
	byTitle := e.idx.QueryTitlePhrase(plan.ModelTerms)
	return intersectSorted(byManufacturer, byTitle), nil
}

// intersectSorted merges two ascending id lists.
func intersectSorted(a, b []int) []int {
	result := make([]int, 0, min(len(a), len(b)))
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		switch {
		case a[i] == b[j]:
			result = append(result, a[i])
			i++
			j++
		case a[i] < b[j]:
			i++
		default:
			j++
		}
	}
	return result
}
