package scoring

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/aigoflow/quality-service/internal/models"
)

// LabelColumn names the outcome column of a training dataset.
const LabelColumn = "label"

// Dataset holds training examples in catalog feature order.
type Dataset struct {
	Features []string
	X        [][]float64
	Y        []int
}

func (ds *Dataset) validate() error {
	if len(ds.Features) == 0 {
		return errors.New("dataset has no features")
	}
	if len(ds.X) == 0 || len(ds.X) != len(ds.Y) {
		return fmt.Errorf("dataset has %d rows and %d labels", len(ds.X), len(ds.Y))
	}
	var seen [2]bool
	for i, row := range ds.X {
		if len(row) != len(ds.Features) {
			return fmt.Errorf("dataset row %d has %d values, want %d", i+1, len(row), len(ds.Features))
		}
		if ds.Y[i] != 0 && ds.Y[i] != 1 {
			return fmt.Errorf("dataset row %d has label %d", i+1, ds.Y[i])
		}
		seen[ds.Y[i]] = true
	}
	if !seen[0] || !seen[1] {
		return ErrSingleClass
	}
	return nil
}

// LoadDataset reads a CSV file whose header names every catalog parameter and
// a label column. Extra columns are ignored.
func LoadDataset(path string, catalog models.Catalog) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}
	defer f.Close()
	return ReadDataset(f, catalog)
}

// ReadDataset is LoadDataset over an arbitrary reader.
func ReadDataset(r io.Reader, catalog models.Catalog) (*Dataset, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read dataset header: %w", err)
	}
	pos := make(map[string]int, len(header))
	for i, h := range header {
		pos[strings.TrimSpace(h)] = i
	}
	names := catalog.Names()
	cols := make([]int, len(names))
	for i, name := range names {
		c, ok := pos[name]
		if !ok {
			return nil, fmt.Errorf("dataset is missing column %q", name)
		}
		cols[i] = c
	}
	labelCol, ok := pos[LabelColumn]
	if !ok {
		return nil, fmt.Errorf("dataset is missing column %q", LabelColumn)
	}

	ds := &Dataset{Features: names}
	line := 1
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("read dataset line %d: %w", line, err)
		}
		row := make([]float64, len(cols))
		for i, c := range cols {
			v, err := strconv.ParseFloat(strings.TrimSpace(rec[c]), 64)
			if err != nil {
				return nil, fmt.Errorf("dataset line %d column %q: %w", line, names[i], err)
			}
			row[i] = v
		}
		y, err := parseLabel(rec[labelCol])
		if err != nil {
			return nil, fmt.Errorf("dataset line %d: %w", line, err)
		}
		ds.X = append(ds.X, row)
		ds.Y = append(ds.Y, y)
	}
	if err := ds.validate(); err != nil {
		return nil, err
	}
	return ds, nil
}

func parseLabel(s string) (int, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "pass", "passed":
		return 1, nil
	case "0", "fail", "failed":
		return 0, nil
	}
	return 0, fmt.Errorf("label %q is not 1/0 or pass/fail", s)
}

// DummyDataset builds a small synthetic training set from the advisory
// ranges: batches with every parameter inside its range pass, batches with a
// single parameter outside it fail.
func DummyDataset(catalog models.Catalog) *Dataset {
	ds := &Dataset{Features: catalog.Names()}
	mid := make([]float64, len(catalog))
	for i, p := range catalog {
		mid[i] = p.Min + (p.Max-p.Min)/2
	}

	for _, frac := range []float64{0.1, 0.3, 0.5, 0.7, 0.9} {
		row := make([]float64, len(catalog))
		for i, p := range catalog {
			row[i] = p.Min + (p.Max-p.Min)*frac
		}
		ds.X = append(ds.X, row)
		ds.Y = append(ds.Y, 1)
	}

	for i, p := range catalog {
		width := p.Max - p.Min
		if width == 0 {
			width = math.Max(math.Abs(p.Max)*0.1, 0.1)
		}
		outside := []float64{p.Max + width}
		if p.Min < 0 || p.Min-width >= 0 {
			outside = append(outside, p.Min-width)
		}
		for _, v := range outside {
			row := append([]float64(nil), mid...)
			row[i] = v
			ds.X = append(ds.X, row)
			ds.Y = append(ds.Y, 0)
		}
	}
	return ds
}
