package extract

import "github.com/joseph-ayodele/n42-extract/internal/entity"

// ContentExtractor turns the bytes of one document into a row. path only labels errors.
type ContentExtractor interface {
	ExtractContent(path string, content []byte, sigma float64) (entity.Row, error)
}

// N42 is the ContentExtractor for MicroStep-MIS N42 reports.
type N42 struct{}

func (N42) ExtractContent(path string, content []byte, sigma float64) (entity.Row, error) {
	return ExtractContent(path, content, sigma)
}
