package search

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/semsearch/semsearch/internal/catalog"
	"github.com/semsearch/semsearch/internal/codec"
	"github.com/semsearch/semsearch/internal/criteria"
	"github.com/semsearch/semsearch/internal/solr"
	"github.com/semsearch/semsearch/internal/sparql"
)

// loadTaxonomy fetches and caches the object type taxonomy. Concurrent
// callers share one fetch.
func (s *Session) loadTaxonomy(ctx context.Context) (*catalog.Taxonomy, error) {
	s.cacheMu.Lock()
	if s.taxonomy != nil {
		t := s.taxonomy
		s.cacheMu.Unlock()
		return t, nil
	}
	s.cacheMu.Unlock()

	v, err, _ := s.flight.Do("taxonomy", func() (any, error) {
		records, err := s.cfg.Types.AllTypes(ctx)
		if err != nil {
			return nil, fmt.Errorf("load object types: %w", err)
		}
		t := catalog.BuildTaxonomy(records)
		return &t, nil
	})
	if err != nil {
		return nil, err
	}
	tax := v.(*catalog.Taxonomy)
	s.cacheMu.Lock()
	s.taxonomy = tax
	s.cacheMu.Unlock()
	return tax, nil
}

// loadDateRanges fetches and caches the date range configuration.
func (s *Session) loadDateRanges(ctx context.Context) ([]codec.DateRange, error) {
	s.cacheMu.Lock()
	if s.dateRanges != nil {
		r := s.dateRanges
		s.cacheMu.Unlock()
		return r, nil
	}
	s.cacheMu.Unlock()

	v, err, _ := s.flight.Do("dateRanges", func() (any, error) {
		ranges, err := s.cfg.Dates.DateRanges(ctx)
		if err != nil {
			return nil, fmt.Errorf("load date ranges: %w", err)
		}
		codec.SortDateRanges(ranges)
		return ranges, nil
	})
	if err != nil {
		return nil, err
	}
	ranges := v.([]codec.DateRange)
	s.cacheMu.Lock()
	s.dateRanges = ranges
	s.cacheMu.Unlock()
	return ranges, nil
}

// loadCatalog fetches and caches the field catalog of an object type.
func (s *Session) loadCatalog(ctx context.Context, objectType string, tax *catalog.Taxonomy) (*catalog.Catalog, error) {
	s.cacheMu.Lock()
	if c, ok := s.catalogs[objectType]; ok {
		s.cacheMu.Unlock()
		return c, nil
	}
	s.cacheMu.Unlock()

	v, err, _ := s.flight.Do("fields:"+objectType, func() (any, error) {
		forType := ""
		if objectType != catalog.ObjectTypeAll {
			forType = tax.ForType(objectType)
		}
		fields, err := s.cfg.Fields.SearchableFields(ctx, forType)
		if err != nil {
			return nil, fmt.Errorf("load fields for %s: %w", objectType, err)
		}
		return catalog.FromRemote(fields), nil
	})
	if err != nil {
		return nil, err
	}
	c := v.(*catalog.Catalog)
	s.cacheMu.Lock()
	s.catalogs[objectType] = c
	s.cacheMu.Unlock()
	return c, nil
}

// BuildSolrQuery compiles the current groups to a Solr filter query.
// A build superseded by a newer one returns ErrStale.
func (s *Session) BuildSolrQuery(ctx context.Context) (string, error) {
	gen := s.generation.Add(1)

	tax, err := s.loadTaxonomy(ctx)
	if err != nil {
		return "", err
	}
	ranges, err := s.loadDateRanges(ctx)
	if err != nil {
		return "", err
	}

	groups := s.Groups()
	queries := make([]string, 0, len(groups))
	for i, g := range groups {
		if g.ObjectType == "" {
			continue
		}
		cat, err := s.loadCatalog(ctx, g.ObjectType, tax)
		if err != nil {
			return "", err
		}
		normalized, err := criteria.Normalize(g.Criteria)
		if err != nil {
			return "", fmt.Errorf("group %d: %w", i, err)
		}
		compiler := &solr.Compiler{
			Catalog:    cat,
			DateRanges: ranges,
			Now:        s.cfg.Now,
			Logf:       s.cfg.Logf,
		}
		q, err := compiler.CompileGroup(g.ObjectType, normalized, tax)
		if err != nil {
			return "", fmt.Errorf("group %d: %w", i, err)
		}
		queries = append(queries, q)
	}

	if s.generation.Load() != gen {
		return "", ErrStale
	}
	return solr.Union(queries), nil
}

// BuildSPARQLQuery compiles the current groups to a full SPARQL query.
// Nested object-picker criteria compile first, one nesting level deeper,
// and splice into their relation criteria. A build superseded by a newer
// one returns ErrStale.
func (s *Session) BuildSPARQLQuery(ctx context.Context) (string, error) {
	gen := s.generation.Add(1)

	groups, err := s.BuildCriteria(true)
	if err != nil {
		return "", err
	}
	query, err := s.buildSPARQL(ctx, groups, 0)
	if err != nil {
		return "", err
	}
	if s.generation.Load() != gen {
		return "", ErrStale
	}
	return query, nil
}

// buildSPARQL compiles one level of group criteria. The nesting level
// feeds variable postfixes so inner and outer searches never share
// variables.
func (s *Session) buildSPARQL(ctx context.Context, groups []criteria.GroupCriteria, nestingLevel int) (string, error) {
	if len(groups) == 0 {
		return "", nil
	}
	ranges, err := s.loadDateRanges(ctx)
	if err != nil {
		return "", err
	}

	// Nested searches compile concurrently before their parents
	// assemble; each result is renamed by its position.
	eg, gctx := errgroup.WithContext(ctx)
	for gi, g := range groups {
		for ri, node := range g.Criteria {
			row, ok := node.(*criteria.Criterion)
			if !ok || row.DynamicCriteria == nil {
				continue
			}
			gi, ri, row := gi, ri, row
			eg.Go(func() error {
				inner, err := s.buildSPARQL(gctx, row.DynamicCriteria, nestingLevel+1)
				if err != nil {
					return err
				}
				postfix := fmt.Sprintf("%d_%d_%d", gi, ri, nestingLevel+1)
				row.DynamicQuery = sparql.ReplaceInnerInstanceNames(inner, postfix)
				return nil
			})
		}
	}
	if err := eg.Wait(); err != nil {
		return "", err
	}

	tax, err := s.loadTaxonomy(ctx)
	if err != nil {
		return "", err
	}

	groupQueries := make([]string, 0, len(groups))
	for gi, g := range groups {
		cat, err := s.loadCatalog(ctx, g.ObjectType, tax)
		if err != nil {
			return "", err
		}
		normalized, err := criteria.Normalize(g.Criteria)
		if err != nil {
			return "", fmt.Errorf("group %d: %w", gi, err)
		}
		compiler := &sparql.Compiler{
			Catalog:        cat,
			DateRanges:     ranges,
			Now:            s.cfg.Now,
			CurrentUserURI: s.cfg.CurrentUserURI,
			Breadcrumb:     s.cfg.Breadcrumb,
			DynamicQueries: s.snapshotDynamicQueries(),
			Logf:           s.cfg.Logf,
		}
		gq, err := compiler.CompileGroup(g.ObjectType, normalized, tax, gi, nestingLevel)
		if err != nil {
			return "", fmt.Errorf("group %d: %w", gi, err)
		}
		groupQueries = append(groupQueries, gq)
	}
	return sparql.BuildFullQuery(groupQueries), nil
}

func (s *Session) snapshotDynamicQueries() map[string]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]string, len(s.dynamicQueries))
	for k, v := range s.dynamicQueries {
		out[k] = v
	}
	return out
}
