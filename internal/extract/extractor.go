package extract

// Extractor turns one HTML document into product groups.
// Implementations must be deterministic and free of side effects.
type Extractor interface {
	Extract(input []byte, opts Options) []ProductGroup
}

// HeuristicExtractor is the table-based extractor implemented by FromHTML.
type HeuristicExtractor struct{}

func (HeuristicExtractor) Extract(input []byte, opts Options) []ProductGroup {
	return FromHTML(input, opts)
}
