// Package harness holds shared test support for the query compilers:
// golden-file comparison for compiled query snapshots.
package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"
)

// AssertGoldenQuery compares a compiled query against a golden file.
// The golden file is stored in testdata/golden/{name}.golden
//
// To regenerate golden files, run:
//
//	go test ./... -update
//
// Golden files serve as the source of truth for the exact query grammar;
// any change to spacing, parenthesization or operator rendering shows up
// as a golden diff.
func AssertGoldenQuery(t *testing.T, name, query string) {
	t.Helper()

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, []byte(query))
}
