package query

import (
	"github.com/Adithya-Monish-Kumar-K/listing-matcher/internal/matcher/analyzer"
)

// Plan is the conjunctive constraint built for one product: every
// manufacturer term on the listing's manufacturer field AND every model
// term on the listing's title.
type Plan struct {
	Manufacturer      string
	Model             string
	ManufacturerTerms []string
	ModelTerms        []string
}

func Parse(manufacturer, model string) *Plan {
	return &Plan{
		Manufacturer:      manufacturer,
		Model:             model,
		ManufacturerTerms: analyzer.Analyze(manufacturer),
		ModelTerms:        analyzer.Analyze(model),
	}
}

// Satisfiable reports whether both sides of the plan carry at least one
// term. A blank side can never match.
func (p *Plan) Satisfiable() bool {
	return len(p.ManufacturerTerms) > 0 && len(p.ModelTerms) > 0
}
