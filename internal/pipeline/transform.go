package pipeline

import (
	"context"

	"github.com/couchcryptid/tsg-reader/internal/domain"
)

// LineTransformer implements Transformer with the domain line parser.
type LineTransformer struct{}

// NewTransformer creates a LineTransformer.
func NewTransformer() *LineTransformer {
	return &LineTransformer{}
}

func (t *LineTransformer) Transform(_ context.Context, raw domain.RawLine) (domain.Record, error) {
	return domain.ParseLine(raw.Text)
}
