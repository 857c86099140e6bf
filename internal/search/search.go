// Package search orchestrates advanced searches: it owns the search
// groups, fetches field catalogs, object types and date ranges from the
// configured sources, compiles nested object-picker searches, and drives
// the Solr and SPARQL compilers to produce the final queries.
package search

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/semsearch/semsearch/internal/catalog"
	"github.com/semsearch/semsearch/internal/codec"
	"github.com/semsearch/semsearch/internal/criteria"
	"github.com/semsearch/semsearch/internal/sparql"
)

// FieldSource supplies the searchable fields of an object type. The
// forType parameter uses the "<parent>_<type>" form produced by
// catalog.Taxonomy.ForType; empty means all fields.
type FieldSource interface {
	SearchableFields(ctx context.Context, forType string) ([]catalog.RemoteField, error)
}

// TypeSource supplies the ordered object type feed.
type TypeSource interface {
	AllTypes(ctx context.Context) ([]catalog.ObjectTypeRecord, error)
}

// DateSource supplies the configured relative date ranges.
type DateSource interface {
	DateRanges(ctx context.Context) ([]codec.DateRange, error)
}

// Config carries the collaborators and ambient state of a session.
type Config struct {
	Fields FieldSource
	Types  TypeSource
	Dates  DateSource

	// CurrentUserURI substitutes the current-user placeholder.
	CurrentUserURI string

	// Breadcrumb is the navigation path context placeholders resolve
	// against.
	Breadcrumb []sparql.ContextEntry

	// Now supplies the evaluation instant for date range macros.
	// Defaults to time.Now.
	Now func() time.Time

	// Logf receives compiler diagnostics. Defaults to discard.
	Logf func(format string, args ...any)
}

// Group is one search group: an object type restriction plus its
// criteria rows.
type Group struct {
	ObjectType string
	Criteria   criteria.Sequence
}

// ErrStale reports that a concurrent rebuild superseded this one before
// it finished; its result must be discarded.
var ErrStale = errors.New("search: build superseded by a newer one")

// ErrLastGroup reports an attempt to remove the only group.
var ErrLastGroup = errors.New("search: a search needs at least one group")

// Session is a live advanced search. It is safe for concurrent use; the
// remote catalogs it fetches are cached for the session's lifetime.
type Session struct {
	cfg   Config
	token uuid.UUID

	mu     sync.Mutex
	groups []*Group

	dynamicCounter atomic.Int64
	dynamicQueries map[string]string

	generation atomic.Int64

	flight     singleflight.Group
	cacheMu    sync.Mutex
	taxonomy   *catalog.Taxonomy
	dateRanges []codec.DateRange
	catalogs   map[string]*catalog.Catalog
}

// NewSession creates a session with one unrestricted group.
func NewSession(cfg Config) *Session {
	s := &Session{
		cfg:            cfg,
		token:          uuid.Must(uuid.NewV7()),
		dynamicQueries: make(map[string]string),
		catalogs:       make(map[string]*catalog.Catalog),
	}
	s.groups = []*Group{defaultGroup()}
	return s
}

// Token identifies the session. Tokens are time-ordered.
func (s *Session) Token() uuid.UUID { return s.token }

// defaultGroup returns a fresh unrestricted group with one empty keyword
// row, the state a new search opens with.
func defaultGroup() *Group {
	return &Group{
		ObjectType: catalog.ObjectTypeAll,
		Criteria: criteria.Sequence{
			&criteria.Criterion{Field: catalog.AnyField, Operator: criteria.OpContains, Values: []string{}},
		},
	}
}

// AddGroup appends a group for the given object type, seeded with one
// empty keyword row.
func (s *Session) AddGroup(objectType string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g := defaultGroup()
	g.ObjectType = objectType
	s.groups = append(s.groups, g)
}

// RemoveGroup deletes the group at index i. The last group cannot be
// removed; Reset clears it instead.
func (s *Session) RemoveGroup(i int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i < 0 || i >= len(s.groups) {
		return fmt.Errorf("search: no group at index %d", i)
	}
	if len(s.groups) == 1 {
		return ErrLastGroup
	}
	s.groups = append(s.groups[:i], s.groups[i+1:]...)
	return nil
}

// Reset restores the session to a single unrestricted group.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.groups = []*Group{defaultGroup()}
}

// SetCriteria replaces the criteria of the group at index i.
func (s *Session) SetCriteria(i int, seq criteria.Sequence) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i < 0 || i >= len(s.groups) {
		return fmt.Errorf("search: no group at index %d", i)
	}
	s.groups[i].Criteria = seq
	return nil
}

// Groups returns a deep copy of the current groups.
func (s *Session) Groups() []Group {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Group, len(s.groups))
	for i, g := range s.groups {
		out[i] = Group{ObjectType: g.ObjectType, Criteria: g.Criteria.Clone()}
	}
	return out
}

// MintDynamicKey issues a fresh key for a nested object-picker query.
func (s *Session) MintDynamicKey() string {
	n := s.dynamicCounter.Add(1)
	return codec.DynamicQueryPrefix + "_" + strconv.FormatInt(n, 10)
}

// RegisterDynamicQuery stores a compiled nested query under its key.
func (s *Session) RegisterDynamicQuery(key, query string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dynamicQueries[key] = query
}

// LoadCriteria replaces the session state with persisted criteria.
// Dynamic query keys inside loaded values are re-minted so a loaded
// filter can never collide with keys issued in this session.
func (s *Session) LoadCriteria(groups []criteria.GroupCriteria) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.groups = make([]*Group, 0, len(groups))
	for _, g := range groups {
		g = g.Clone()
		s.remintDynamicKeys(g.Criteria)
		s.groups = append(s.groups, &Group{ObjectType: g.ObjectType, Criteria: g.Criteria})
	}
	if len(s.groups) == 0 {
		s.groups = []*Group{defaultGroup()}
	}
}

func (s *Session) remintDynamicKeys(seq criteria.Sequence) {
	for _, n := range seq {
		switch v := n.(type) {
		case *criteria.Criterion:
			for i, val := range v.Values {
				if val == "" || !containsDynamicKey(val) {
					continue
				}
				key := codec.DynamicQueryPrefix + "_" + strconv.FormatInt(s.dynamicCounter.Add(1), 10)
				if q, ok := s.dynamicQueries[val]; ok {
					s.dynamicQueries[key] = q
					delete(s.dynamicQueries, val)
				}
				v.Values[i] = key
			}
			for i := range v.DynamicCriteria {
				s.remintDynamicKeys(v.DynamicCriteria[i].Criteria)
			}
		case *criteria.Group:
			s.remintDynamicKeys(v.Criteria)
		}
	}
}

func containsDynamicKey(v string) bool {
	return len(v) >= len(codec.DynamicQueryPrefix) &&
		v[:len(codec.DynamicQueryPrefix)] == codec.DynamicQueryPrefix
}

// BuildCriteria snapshots the current groups as persistable criteria.
// Bracket balance is validated per group unless ignoreValidation is set,
// which mirrors programmatic callers that assemble criteria themselves.
func (s *Session) BuildCriteria(ignoreValidation bool) ([]criteria.GroupCriteria, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]criteria.GroupCriteria, 0, len(s.groups))
	for i, g := range s.groups {
		if g.ObjectType == "" {
			continue
		}
		if !ignoreValidation {
			if err := criteria.ValidateBrackets(g.Criteria); err != nil {
				return nil, fmt.Errorf("group %d: %w", i, err)
			}
		}
		out = append(out, criteria.GroupCriteria{ObjectType: g.ObjectType, Criteria: g.Criteria.Clone()})
	}
	return out, nil
}

// BuildSanitizedCriteria is BuildCriteria with volatile state stripped,
// the form saved filters persist.
func (s *Session) BuildSanitizedCriteria(ignoreValidation bool) ([]criteria.GroupCriteria, error) {
	built, err := s.BuildCriteria(ignoreValidation)
	if err != nil {
		return nil, err
	}
	return criteria.Sanitize(built), nil
}

// BuildForType renders the comma-joined type selector of the current
// groups for catalog prefetching. Any unrestricted group widens the
// search to everything, collapsing the selector to empty.
func (s *Session) BuildForType(ctx context.Context) (string, error) {
	tax, err := s.loadTaxonomy(ctx)
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	parts := make([]string, 0, len(s.groups))
	for _, g := range s.groups {
		if g.ObjectType == catalog.ObjectTypeAll {
			return "", nil
		}
		if catalog.IsShortURI(g.ObjectType) {
			parts = append(parts, g.ObjectType)
			continue
		}
		parts = append(parts, tax.ForType(g.ObjectType))
	}
	return joinNonEmpty(parts, ","), nil
}

func joinNonEmpty(parts []string, sep string) string {
	out := ""
	for _, p := range parts {
		if p == "" {
			continue
		}
		if out != "" {
			out += sep
		}
		out += p
	}
	return out
}
