// Package input loads compound tables from CSV and SDF files into raw
// records for the analysis pipeline.  Loaders stay permissive at the row
// level: structural file problems are errors, per-row problems surface as
// records the pipeline can validate and skip.
package input

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/turtacn/MolVista/internal/infrastructure/logging"
	"github.com/turtacn/MolVista/pkg/errors"
	mtypes "github.com/turtacn/MolVista/pkg/types/molecule"
)

// RawRecord is one data row as read from the source file, before SMILES
// validation.  Row is the 1-based data row number (header excluded).
type RawRecord struct {
	Row        int
	SMILES     string
	Name       string
	Properties map[string]float64
}

// GeneratedName returns the fallback compound name for a data row.
func GeneratedName(row int) string {
	return fmt.Sprintf("Compound_%d", row)
}

// CSVOptions selects the columns to read.  PropertyColumns empty means
// every column other than SMILES and name is treated as a candidate
// numeric property.
type CSVOptions struct {
	SMILESColumn    string
	NameColumn      string
	PropertyColumns []string
}

// ReadCSV loads the compound table at path.  The SMILES column is required;
// a missing name yields a generated Compound_<row> name.  Property cells
// that are empty or non-numeric are omitted from the record rather than
// stored as zero.
func ReadCSV(path string, opts CSVOptions, log logging.Logger) ([]RawRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInputUnreadable, "cannot open input file").
			WithDetail("path=" + path)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1 // tolerate ragged rows
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInputParse, "cannot read CSV header").
			WithDetail("path=" + path)
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	smilesIdx := columnIndex(header, opts.SMILESColumn)
	if smilesIdx < 0 {
		return nil, errors.New(errors.CodeInputParse, "SMILES column not found in CSV header").
			WithDetail(fmt.Sprintf("column=%s header=%v", opts.SMILESColumn, header))
	}
	nameIdx := columnIndex(header, opts.NameColumn)
	if nameIdx < 0 && opts.NameColumn != "" {
		log.Warn("name column not found, generating compound names",
			logging.String("column", opts.NameColumn))
	}

	propIdx := selectPropertyColumns(header, opts.PropertyColumns, smilesIdx, nameIdx, log)

	var records []RawRecord
	row := 0
	for {
		fields, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, errors.CodeInputParse, "malformed CSV row").
				WithDetail(fmt.Sprintf("path=%s row=%d", path, row+1))
		}
		row++

		rec := RawRecord{Row: row}
		if smilesIdx < len(fields) {
			rec.SMILES = strings.TrimSpace(fields[smilesIdx])
		}
		if nameIdx >= 0 && nameIdx < len(fields) {
			rec.Name = strings.TrimSpace(fields[nameIdx])
		}
		if rec.Name == "" {
			rec.Name = GeneratedName(row)
		}

		for key, idx := range propIdx {
			if idx >= len(fields) {
				continue
			}
			cell := strings.TrimSpace(fields[idx])
			if cell == "" {
				continue
			}
			v, err := strconv.ParseFloat(cell, 64)
			if err != nil {
				continue // non-numeric cells stay absent
			}
			if rec.Properties == nil {
				rec.Properties = make(map[string]float64, len(propIdx))
			}
			rec.Properties[key] = v
		}

		records = append(records, rec)
	}

	log.Info("loaded compound table",
		logging.String("path", path),
		logging.Int("rows", len(records)),
		logging.Int("property_columns", len(propIdx)))
	return records, nil
}

// columnIndex finds a header column by case-insensitive match.
func columnIndex(header []string, name string) int {
	if name == "" {
		return -1
	}
	for i, h := range header {
		if strings.EqualFold(h, name) {
			return i
		}
	}
	return -1
}

// selectPropertyColumns maps normalized property keys to column indices.
// Explicitly requested columns that are absent get a warning; with no
// explicit list, every remaining column is a candidate.
func selectPropertyColumns(header []string, requested []string, smilesIdx, nameIdx int, log logging.Logger) map[string]int {
	out := map[string]int{}
	if len(requested) > 0 {
		for _, name := range requested {
			idx := columnIndex(header, name)
			if idx < 0 {
				log.Warn("property column not found in CSV header", logging.String("column", name))
				continue
			}
			out[mtypes.NormalizeKey(name)] = idx
		}
		return out
	}
	for i, h := range header {
		if i == smilesIdx || i == nameIdx || h == "" {
			continue
		}
		out[mtypes.NormalizeKey(h)] = i
	}
	return out
}
