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
	"encoding/csv"
	"math"
	"os"
	"strings"

	"github.com/churn-io/churn/base/log"
	"github.com/churn-io/churn/common/util"
	"github.com/juju/errors"
	"go.uber.org/zap"
)

// isMissing reports whether a raw cell holds a missing marker. The Telco
// export leaves TotalCharges blank (a single space) for customers with zero
// tenure.
func isMissing(cell string) bool {
	switch strings.TrimSpace(cell) {
	case "", "NA", "N/A", "?":
		return true
	}
	return false
}

// LoadCSV reads a delimited text file with a header row into a table.
// Column types are inferred: a column is numeric if and only if every
// non-missing cell parses as a float. A path that does not resolve yields a
// not-found error; ragged rows yield a not-valid error before any modeling
// work begins.
func LoadCSV(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NotFoundf("file %s", path)
		}
		return nil, errors.Trace(err)
	}
	defer f.Close()
	reader := csv.NewReader(f)
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, errors.NotValidf("file %s: %s", path, err.Error())
	}
	if len(rows) < 1 {
		return nil, errors.NotValidf("file %s: missing header row", path)
	}
	header, records := rows[0], rows[1:]

	// infer column types
	numeric := make([]bool, len(header))
	for j := range header {
		numeric[j] = true
		for _, record := range records {
			if isMissing(record[j]) {
				continue
			}
			if _, err := util.ParseFloat[float32](record[j]); err != nil {
				numeric[j] = false
				break
			}
		}
	}

	// build columns
	table := &Table{Columns: make([]Column, len(header))}
	for j, name := range header {
		column := Column{Name: name, Missing: make([]bool, len(records))}
		if numeric[j] {
			column.Kind = Numeric
			column.Floats = make([]float32, len(records))
			for i, record := range records {
				if isMissing(record[j]) {
					column.Floats[i] = float32(math.NaN())
					column.Missing[i] = true
				} else {
					column.Floats[i], _ = util.ParseFloat[float32](record[j])
				}
			}
		} else {
			column.Kind = String
			column.Strings = make([]string, len(records))
			for i, record := range records {
				if isMissing(record[j]) {
					column.Missing[i] = true
				} else {
					column.Strings[i] = record[j]
				}
			}
		}
		table.Columns[j] = column
	}
	log.Logger().Info("load csv",
		zap.String("path", path),
		zap.Int("n_rows", table.NumRows()),
		zap.Int("n_columns", table.NumColumns()))
	return table, nil
}

// DropMissing returns a table without the rows that hold a missing value in
// any column. Dropped rows are documented information loss, no imputation is
// attempted.
func (t *Table) DropMissing() *Table {
	indices := make([]int, 0, t.NumRows())
	for i := 0; i < t.NumRows(); i++ {
		if !t.HasMissing(i) {
			indices = append(indices, i)
		}
	}
	if dropped := t.NumRows() - len(indices); dropped > 0 {
		log.Logger().Info("drop rows with missing values", zap.Int("n_dropped", dropped))
	}
	return t.Subset(indices)
}

// RecodeBinary converts a numeric 0/1 indicator column into a two-level
// categorical column (0 maps to negLevel, 1 maps to posLevel).
func (t *Table) RecodeBinary(name, negLevel, posLevel string) error {
	column, err := t.Column(name)
	if err != nil {
		return errors.Trace(err)
	}
	if column.Kind != Numeric {
		return errors.NotValidf("column %s is not numeric", name)
	}
	values := make([]string, len(column.Floats))
	for i, v := range column.Floats {
		switch v {
		case 0:
			values[i] = negLevel
		case 1:
			values[i] = posLevel
		default:
			if column.Missing[i] {
				continue
			}
			return errors.NotValidf("column %s: value %f is not binary", name, v)
		}
	}
	column.Kind = String
	column.Strings = values
	column.Floats = nil
	return nil
}

// ReplaceValues rewrites values of a string column through a fixed mapping.
// Values absent from the mapping are kept as-is.
func (t *Table) ReplaceValues(name string, mapping map[string]string) error {
	column, err := t.Column(name)
	if err != nil {
		return errors.Trace(err)
	}
	if column.Kind != String {
		return errors.NotValidf("column %s is not categorical", name)
	}
	for i, v := range column.Strings {
		if replacement, exist := mapping[v]; exist {
			column.Strings[i] = replacement
		}
	}
	return nil
}
