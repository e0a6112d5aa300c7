// Package dataset ingests uploaded CSV datasets: it infers a per-column
// schema, counts rows and hashes the content for upload dedup.
package dataset

import (
	"crypto/sha256"
	"encoding/csv"
	"encoding/hex"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Sayandip-Jana-1018/AutoML-sub000/core/apperrors"
	"github.com/Sayandip-Jana-1018/AutoML-sub000/core/models"
)

// typeSampleLimit bounds how many rows are inspected per column when
// inferring types; counting still covers the whole file.
const typeSampleLimit = 1000

var datetimeLayouts = []string{
	time.RFC3339,
	"2006-01-02",
	"2006-01-02 15:04:05",
	"01/02/2006",
	"02-01-2006",
}

// Ingest parses raw CSV content into a Dataset with an inferred schema
// and a fresh version id. The content hash identifies byte-identical
// re-uploads.
func Ingest(content []byte, filename string) (*models.Dataset, error) {
	reader := csv.NewReader(strings.NewReader(string(content)))
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, apperrors.Validation("dataset %q has no header row", filename)
	}

	samples := make([][]string, len(header))
	rowCount := 0
	for {
		record, err := reader.Read()
		if err != nil {
			break
		}
		rowCount++
		if rowCount <= typeSampleLimit {
			for i := range header {
				if i < len(record) {
					samples[i] = append(samples[i], record[i])
				}
			}
		}
	}

	columns := make([]models.Column, len(header))
	for i, name := range header {
		columns[i] = models.Column{
			Name: strings.TrimSpace(name),
			Type: inferColumnType(samples[i]),
		}
	}

	ds := &models.Dataset{
		VersionID:   uuid.New().String(),
		Filename:    filename,
		Columns:     columns,
		RowCount:    rowCount,
		ContentHash: hashContent(content),
		UploadedAt:  time.Now(),
	}

	if err := Validate(ds); err != nil {
		return nil, err
	}
	return ds, nil
}

// Validate rejects datasets that cannot drive a training run
func Validate(ds *models.Dataset) error {
	if ds.RowCount == 0 {
		return apperrors.Validation("dataset %q has no data rows", ds.Filename)
	}
	if len(ds.Columns) < 2 {
		return apperrors.Validation("dataset %q needs at least a feature column and a target column", ds.Filename)
	}
	for _, c := range ds.Columns {
		if c.Name == "" {
			return apperrors.Validation("dataset %q has an unnamed column", ds.Filename)
		}
	}
	return nil
}

// inferColumnType classifies a column from sampled values. Empty cells
// are skipped; a column with no usable values falls back to categorical.
func inferColumnType(values []string) models.ColumnType {
	numeric := 0
	datetime := 0
	seen := 0

	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		seen++
		if _, err := strconv.ParseFloat(v, 64); err == nil {
			numeric++
			continue
		}
		if isDatetime(v) {
			datetime++
		}
	}

	if seen == 0 {
		return models.ColumnCategorical
	}
	if numeric == seen {
		return models.ColumnNumeric
	}
	if datetime == seen {
		return models.ColumnDatetime
	}
	return models.ColumnCategorical
}

func isDatetime(v string) bool {
	for _, layout := range datetimeLayouts {
		if _, err := time.Parse(layout, v); err == nil {
			return true
		}
	}
	return false
}

func hashContent(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}
