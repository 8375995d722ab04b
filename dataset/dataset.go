// Copyright 2026 churn Project Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package dataset

import (
	"math"
	"sort"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/juju/errors"
)

// Kind is the type of a column.
type Kind int

const (
	// String columns hold categorical values.
	String Kind = iota
	// Numeric columns hold float values.
	Numeric
)

// Column is a single named column. Exactly one of Strings and Floats is
// populated, depending on Kind. Missing marks cells that held a missing
// marker in the source file.
type Column struct {
	Name    string
	Kind    Kind
	Strings []string
	Floats  []float32
	Missing []bool
}

// Len returns the number of cells in the column.
func (c *Column) Len() int {
	if c.Kind == Numeric {
		return len(c.Floats)
	}
	return len(c.Strings)
}

// Table is a columnar dataset. All columns share the same length. Cleaning
// operations return a new table instead of mutating in place.
type Table struct {
	Columns []Column
}

// NumRows returns the number of rows.
func (t *Table) NumRows() int {
	if len(t.Columns) == 0 {
		return 0
	}
	return t.Columns[0].Len()
}

// NumColumns returns the number of columns.
func (t *Table) NumColumns() int {
	return len(t.Columns)
}

// Names returns column names in order.
func (t *Table) Names() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

// Column returns the column with the given name.
func (t *Table) Column(name string) (*Column, error) {
	for i := range t.Columns {
		if t.Columns[i].Name == name {
			return &t.Columns[i], nil
		}
	}
	return nil, errors.NotFoundf("column %s", name)
}

// Subset returns a new table holding the rows at indices, in order.
func (t *Table) Subset(indices []int) *Table {
	subset := &Table{Columns: make([]Column, len(t.Columns))}
	for i, c := range t.Columns {
		sub := Column{Name: c.Name, Kind: c.Kind}
		if len(c.Missing) > 0 {
			sub.Missing = make([]bool, len(indices))
			for j, index := range indices {
				sub.Missing[j] = c.Missing[index]
			}
		}
		if c.Kind == Numeric {
			sub.Floats = make([]float32, len(indices))
			for j, index := range indices {
				sub.Floats[j] = c.Floats[index]
			}
		} else {
			sub.Strings = make([]string, len(indices))
			for j, index := range indices {
				sub.Strings[j] = c.Strings[index]
			}
		}
		subset.Columns[i] = sub
	}
	return subset
}

// Drop returns a table without the named columns. Names absent from the
// table are ignored, so configured defaults may name columns a source does
// not carry.
func (t *Table) Drop(names ...string) *Table {
	dropped := mapset.NewSet(names...)
	result := &Table{}
	for _, c := range t.Columns {
		if !dropped.Contains(c.Name) {
			result.Columns = append(result.Columns, c)
		}
	}
	return result
}

// CategoricalColumns returns the names of string columns, excluding any in
// the exclude list.
func (t *Table) CategoricalColumns(exclude ...string) []string {
	return t.columnsOfKind(String, exclude)
}

// NumericColumns returns the names of numeric columns, excluding any in the
// exclude list.
func (t *Table) NumericColumns(exclude ...string) []string {
	return t.columnsOfKind(Numeric, exclude)
}

func (t *Table) columnsOfKind(kind Kind, exclude []string) []string {
	excluded := make(map[string]struct{}, len(exclude))
	for _, name := range exclude {
		excluded[name] = struct{}{}
	}
	var names []string
	for _, c := range t.Columns {
		if _, skip := excluded[c.Name]; c.Kind == kind && !skip {
			names = append(names, c.Name)
		}
	}
	return names
}

// ValueCounts returns the count of each distinct value in a string column.
func (t *Table) ValueCounts(name string) (map[string]int, error) {
	column, err := t.Column(name)
	if err != nil {
		return nil, errors.Trace(err)
	}
	if column.Kind != String {
		return nil, errors.NotValidf("column %s is not categorical", name)
	}
	counts := make(map[string]int)
	for _, v := range column.Strings {
		counts[v]++
	}
	return counts, nil
}

// Levels returns the sorted distinct values of a string column.
func (t *Table) Levels(name string) ([]string, error) {
	counts, err := t.ValueCounts(name)
	if err != nil {
		return nil, errors.Trace(err)
	}
	levels := make([]string, 0, len(counts))
	for level := range counts {
		levels = append(levels, level)
	}
	sort.Strings(levels)
	return levels, nil
}

// HasMissing reports whether the row at index holds a missing value in any
// column.
func (t *Table) HasMissing(index int) bool {
	for _, c := range t.Columns {
		if len(c.Missing) > 0 && c.Missing[index] {
			return true
		}
		if c.Kind == Numeric && math.IsNaN(float64(c.Floats[index])) {
			return true
		}
	}
	return false
}
