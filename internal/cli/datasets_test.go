package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteDatasets(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeDatasets(&buf, registry))

	out := buf.String()
	for _, want := range []string{
		"DATASET", "customers", "dim_customer", "customers_raw.csv",
		"cities", "(5 inline rows)",
		"staging_sales", "sales_raw.csv", "order_date",
	} {
		assert.Contains(t, out, want)
	}
}
