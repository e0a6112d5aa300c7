package dataset

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sayandip-Jana-1018/AutoML-sub000/core/apperrors"
	"github.com/Sayandip-Jana-1018/AutoML-sub000/core/models"
)

const sampleCSV = `age,signup_date,city,churned
34,2023-01-15,berlin,0
27,2023-02-20,paris,1
45,2023-03-05,berlin,0
`

func TestIngestInfersSchema(t *testing.T) {
	ds, err := Ingest([]byte(sampleCSV), "customers.csv")
	require.NoError(t, err)

	assert.Equal(t, "customers.csv", ds.Filename)
	assert.Equal(t, 3, ds.RowCount)
	assert.NotEmpty(t, ds.VersionID)
	assert.NotEmpty(t, ds.ContentHash)

	require.Len(t, ds.Columns, 4)
	assert.Equal(t, models.Column{Name: "age", Type: models.ColumnNumeric}, ds.Columns[0])
	assert.Equal(t, models.Column{Name: "signup_date", Type: models.ColumnDatetime}, ds.Columns[1])
	assert.Equal(t, models.Column{Name: "city", Type: models.ColumnCategorical}, ds.Columns[2])
	assert.Equal(t, models.Column{Name: "churned", Type: models.ColumnNumeric}, ds.Columns[3])

	assert.Equal(t, []string{"age", "signup_date", "city", "churned"}, ds.FeatureColumns())
}

func TestIngestHashIsContentStable(t *testing.T) {
	a, err := Ingest([]byte(sampleCSV), "a.csv")
	require.NoError(t, err)
	b, err := Ingest([]byte(sampleCSV), "b.csv")
	require.NoError(t, err)

	assert.Equal(t, a.ContentHash, b.ContentHash)
	assert.NotEqual(t, a.VersionID, b.VersionID)

	c, err := Ingest([]byte(sampleCSV+"50,2023-04-01,rome,1\n"), "a.csv")
	require.NoError(t, err)
	assert.NotEqual(t, a.ContentHash, c.ContentHash)
}

func TestIngestRejectsHeaderOnly(t *testing.T) {
	_, err := Ingest([]byte("a,b\n"), "empty.csv")
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.KindValidation))
}

func TestIngestRejectsSingleColumn(t *testing.T) {
	_, err := Ingest([]byte("target\n1\n0\n"), "one.csv")
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.KindValidation))
}

func TestIngestRejectsUnnamedColumn(t *testing.T) {
	_, err := Ingest([]byte("a,,c\n1,2,3\n"), "gap.csv")
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.KindValidation))
}

func TestInferColumnType(t *testing.T) {
	cases := []struct {
		name   string
		values []string
		want   models.ColumnType
	}{
		{"integers", []string{"1", "2", "3"}, models.ColumnNumeric},
		{"floats", []string{"1.5", "-0.2", "3e4"}, models.ColumnNumeric},
		{"mixed numeric and text", []string{"1", "n/a", "3"}, models.ColumnCategorical},
		{"iso dates", []string{"2023-01-15", "2024-06-30"}, models.ColumnDatetime},
		{"text", []string{"red", "green"}, models.ColumnCategorical},
		{"empty cells skipped", []string{"", "2", ""}, models.ColumnNumeric},
		{"all empty", []string{"", ""}, models.ColumnCategorical},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, inferColumnType(tc.values))
		})
	}
}
