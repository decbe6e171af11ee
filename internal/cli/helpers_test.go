package cli

import (
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"

	"github.com/retail-sdw/sdwload/pkg/sdwload"
)

const dimensionSchema = `
CREATE TABLE dim_customer (customer_id INTEGER PRIMARY KEY, age INTEGER NOT NULL, gender TEXT NOT NULL);
CREATE TABLE dim_product (product_id INTEGER PRIMARY KEY, product_name TEXT, category TEXT, cost_price REAL, selling_price REAL);
CREATE TABLE dim_city (city_name TEXT, region TEXT);
CREATE TABLE staging_customers (customer_id INTEGER, customer_name TEXT, city TEXT);
CREATE TABLE staging_products (product_id INTEGER, product_name TEXT, category TEXT, price REAL);
CREATE TABLE staging_sales (order_id INTEGER PRIMARY KEY, customer_id INTEGER, product_id INTEGER, order_date TEXT, quantity INTEGER, amount REAL);
`

const (
	customersCSV = "customer_id,customer_name,age,gender,city\n1,Asha,34,M,Mumbai\n2,Ravi,29,F,Delhi\n"
	productsCSV  = "product_id,product_name,category,cost_price,selling_price,price\n10,Kettle,Home,12.5,19.99,19.99\n11,Lamp,Home,8,14.5,14.5\n"
	salesCSV     = "order_id,customer_id,product_id,order_date,quantity,amount\n100,1,10,2024-01-05,2,39.98\n"
)

// isolateEnv clears every variable the connection resolver reads and
// moves into an empty working directory so no sdwload.yaml or .env is
// picked up.
func isolateEnv(t *testing.T) string {
	t.Helper()
	for _, name := range []string{
		"SDWLOAD_CONNECTION_STRING", "DATABASE_URL",
		"SDWLOAD_DRIVER", "SDWLOAD_HOST", "SDWLOAD_PORT", "SDWLOAD_USER",
		"SDWLOAD_PASSWORD", "SDWLOAD_DATABASE", "SDWLOAD_SSLMODE",
		"PGHOST", "PGPORT", "PGUSER", "PGPASSWORD", "PGDATABASE", "PGSSLMODE",
		"AZURE_TENANT_ID", "AZURE_CLIENT_ID", "AZURE_CLIENT_SECRET", "AWS_REGION",
	} {
		t.Setenv(name, "")
	}
	dir := t.TempDir()
	t.Chdir(dir)
	return dir
}

// writeWarehouse creates data files under dir/data and a sqlite database
// with the retail tables. It returns the database path.
func writeWarehouse(t *testing.T, dir string, files map[string]string) string {
	t.Helper()

	dataDir := filepath.Join(dir, "data")
	require.NoError(t, os.MkdirAll(dataDir, 0o755))
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dataDir, name), []byte(content), 0o644))
	}

	dbPath := filepath.Join(dir, "retail_sdw.db")
	conn, err := sql.Open("sqlite", dbPath)
	require.NoError(t, err)
	defer conn.Close()
	_, err = conn.Exec(dimensionSchema)
	require.NoError(t, err)
	return dbPath
}

func countRows(t *testing.T, dbPath, table string) int {
	t.Helper()
	conn, err := sql.Open("sqlite", dbPath)
	require.NoError(t, err)
	defer conn.Close()

	var n int
	require.NoError(t, conn.QueryRow("SELECT COUNT(*) FROM "+table).Scan(&n))
	return n
}

// newRunCommand builds a throwaway command carrying the run flags.
func newRunCommand(t *testing.T, args ...string) (*cobra.Command, *runFlags) {
	t.Helper()
	var f runFlags
	cmd := &cobra.Command{Use: "load"}
	cmd.Flags().BoolP("verbose", "v", false, "")
	addRunFlags(cmd, &f)
	require.NoError(t, cmd.ParseFlags(args))
	return cmd, &f
}

func resetRunFlags(cmd *cobra.Command, f *runFlags) {
	*f = runFlags{timeout: sdwload.DefaultTimeout}
	// merges the persistent --verbose flag so getVerboseFlag finds it
	cmd.InheritedFlags()
}
