package dataset

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"dropoutlens/internal/config"
	apierrors "dropoutlens/internal/errors"
	"dropoutlens/pkg/contracts/domain"
)

// Schema names the source columns the preprocessor reads
type Schema struct {
	GranularityColumn string
	TargetGranularity string
	RegionColumn      string
	// LevelColumns are the SD, SMP, SMA and SMK count columns, in order
	LevelColumns [domain.FeatureCount]string
}

// DefaultSchema returns the column layout of the published dropout workbook
func DefaultSchema() Schema {
	return SchemaFromConfig(config.Default().Dataset)
}

// SchemaFromConfig builds a Schema from the dataset config section
func SchemaFromConfig(cfg config.DatasetConfig) Schema {
	s := Schema{
		GranularityColumn: cfg.GranularityColumn,
		TargetGranularity: cfg.TargetGranularity,
		RegionColumn:      cfg.RegionColumn,
	}
	copy(s.LevelColumns[:], cfg.LevelColumns)
	return s
}

type columnIndex struct {
	granularity int
	region      int
	levels      [domain.FeatureCount]int
}

// Preprocess keeps the rows at the target granularity and maps them to
// region records. An empty result is not an error here.
func Preprocess(t *Table, s Schema) ([]domain.RegionRecord, error) {
	idx, err := resolveColumns(t.Header, s)
	if err != nil {
		return nil, err
	}

	records := make([]domain.RegionRecord, 0, len(t.Rows))
	seen := make(map[string]int)

	for i := range t.Rows {
		if t.Cell(i, idx.granularity) != s.TargetGranularity {
			continue
		}

		sheetRow := t.SheetRow(i)
		rec := domain.RegionRecord{
			Region: t.Cell(i, idx.region),
			Row:    sheetRow,
		}
		if rec.Region == "" {
			return nil, cellError(sheetRow, s.RegionColumn, "region name is empty", nil)
		}
		if prev, dup := seen[rec.Region]; dup {
			return nil, cellError(sheetRow, s.RegionColumn,
				fmt.Sprintf("duplicate region %q (first seen on row %d)", rec.Region, prev), nil)
		}
		seen[rec.Region] = sheetRow

		for f, col := range idx.levels {
			v, err := parseCount(t.Cell(i, col))
			if err != nil {
				return nil, cellError(sheetRow, s.LevelColumns[f], "invalid dropout count", err)
			}
			rec.SetCount(domain.Feature(f), v)
		}

		records = append(records, rec)
	}

	return records, nil
}

func resolveColumns(header []string, s Schema) (columnIndex, error) {
	positions := make(map[string]int, len(header))
	for i, h := range header {
		name := strings.TrimSpace(h)
		if _, ok := positions[name]; !ok {
			positions[name] = i
		}
	}

	var missing []string
	lookup := func(name string) int {
		if i, ok := positions[name]; ok {
			return i
		}
		missing = append(missing, name)
		return -1
	}

	var idx columnIndex
	idx.granularity = lookup(s.GranularityColumn)
	idx.region = lookup(s.RegionColumn)
	for f, name := range s.LevelColumns {
		idx.levels[f] = lookup(name)
	}

	if len(missing) > 0 {
		return idx, apierrors.NewSchemaError(
			fmt.Sprintf("missing required columns: %s", strings.Join(missing, ", ")), nil).
			WithContext("missing", missing)
	}
	return idx, nil
}

// MaxCount bounds a single dropout count. Any row total and any cluster
// sum over fewer than two million regions stays inside int64, and every
// count below it is exact as a float64.
const MaxCount int64 = 1_000_000_000_000

// parseCount parses a whole number in [0, MaxCount]. Workbooks store
// counts as integers or as floats with a zero fraction.
func parseCount(raw string) (int64, error) {
	if raw == "" {
		return 0, fmt.Errorf("blank cell")
	}

	if v, err := strconv.ParseInt(raw, 10, 64); err == nil {
		if v < 0 {
			return 0, fmt.Errorf("negative count %d", v)
		}
		if v > MaxCount {
			return 0, fmt.Errorf("count %d exceeds %d", v, MaxCount)
		}
		return v, nil
	}

	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("%q is not a number", raw)
	}
	if f < 0 {
		return 0, fmt.Errorf("negative count %s", raw)
	}
	if f != math.Trunc(f) {
		return 0, fmt.Errorf("%q is not a whole number", raw)
	}
	if f > float64(MaxCount) {
		return 0, fmt.Errorf("count %s exceeds %d", raw, MaxCount)
	}
	return int64(f), nil
}

func cellError(row int, column, msg string, cause error) error {
	return apierrors.NewSchemaError(fmt.Sprintf("row %d, column %q: %s", row, column, msg), cause).
		WithContext("row", row).
		WithContext("column", column)
}
