package cli

import (
	"context"

	"github.com/semsearch/semsearch/internal/catalog"
	"github.com/semsearch/semsearch/internal/codec"
	"github.com/semsearch/semsearch/internal/search"
)

// The definition doubles as the session's data sources so queries can
// be compiled without a server. A loaded definition carries one flat
// field catalog, so the per-type filter is ignored.

var (
	_ search.FieldSource = (*Definition)(nil)
	_ search.TypeSource  = (*Definition)(nil)
	_ search.DateSource  = (*Definition)(nil)
)

// SearchableFields returns the definition's field catalog.
func (d *Definition) SearchableFields(ctx context.Context, forType string) ([]catalog.RemoteField, error) {
	fields := make([]catalog.RemoteField, len(d.Fields))
	copy(fields, d.Fields)
	return fields, nil
}

// AllTypes returns the definition's object type records.
func (d *Definition) AllTypes(ctx context.Context) ([]catalog.ObjectTypeRecord, error) {
	records := make([]catalog.ObjectTypeRecord, len(d.ObjectTypes))
	copy(records, d.ObjectTypes)
	return records, nil
}

// DateRanges returns the definition's configured date ranges.
func (d *Definition) DateRanges(ctx context.Context) ([]codec.DateRange, error) {
	ranges := make([]codec.DateRange, len(d.Ranges))
	copy(ranges, d.Ranges)
	return ranges, nil
}
