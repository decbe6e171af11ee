package fixtures

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing/fstest"
)

const (
	customersHeader = "customer_id,customer_name,age,gender,city"
	productsHeader  = "product_id,product_name,category,cost_price,selling_price,price"
	salesHeader     = "order_id,customer_id,product_id,order_date,quantity,amount"
)

// DataDirBuilder provides a fluent API for building the CSV files of a
// data directory.
//
// Example usage:
//
//	fsys := NewDataDirBuilder().
//	    AddCustomer("1", "Asha", "34", "M", "Mumbai").
//	    AddSale("100", "1", "10", "2024-01-05", "2", "39.98").
//	    Build()
type DataDirBuilder struct {
	files map[string][]string // file name -> lines, header first
}

// NewDataDirBuilder creates an empty builder.
func NewDataDirBuilder() *DataDirBuilder {
	return &DataDirBuilder{files: map[string][]string{}}
}

// AddFile adds an arbitrary file with the given raw lines.
func (b *DataDirBuilder) AddFile(name string, lines ...string) *DataDirBuilder {
	b.files[name] = append(b.files[name], lines...)
	return b
}

// AddCustomer appends a row to customers_raw.csv.
func (b *DataDirBuilder) AddCustomer(id, name, age, gender, city string) *DataDirBuilder {
	return b.addRow("customers_raw.csv", customersHeader, id, name, age, gender, city)
}

// AddProduct appends a row to products_raw.csv.
func (b *DataDirBuilder) AddProduct(id, name, category, cost, selling, price string) *DataDirBuilder {
	return b.addRow("products_raw.csv", productsHeader, id, name, category, cost, selling, price)
}

// AddSale appends a row to sales_raw.csv.
func (b *DataDirBuilder) AddSale(orderID, customerID, productID, date, quantity, amount string) *DataDirBuilder {
	return b.addRow("sales_raw.csv", salesHeader, orderID, customerID, productID, date, quantity, amount)
}

func (b *DataDirBuilder) addRow(file, header string, fields ...string) *DataDirBuilder {
	if len(b.files[file]) == 0 {
		b.files[file] = []string{header}
	}
	b.files[file] = append(b.files[file], strings.Join(fields, ","))
	return b
}

// Files returns the accumulated file contents keyed by name.
func (b *DataDirBuilder) Files() map[string]string {
	out := make(map[string]string, len(b.files))
	for name, lines := range b.files {
		out[name] = strings.Join(lines, "\n") + "\n"
	}
	return out
}

// Build returns the files as an in-memory filesystem.
func (b *DataDirBuilder) Build() fstest.MapFS {
	fsys := fstest.MapFS{}
	for name, content := range b.Files() {
		fsys[name] = &fstest.MapFile{Data: []byte(content), Mode: 0o644}
	}
	return fsys
}

// WriteTo writes the files into dir, creating it if needed.
func (b *DataDirBuilder) WriteTo(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}
	for name, content := range b.Files() {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			return fmt.Errorf("write %s: %w", name, err)
		}
	}
	return nil
}

// ============================================================================
// Pre-built Fixtures
// ============================================================================

// StandardRetail creates two customers, two products and two orders
// that reference them.
func StandardRetail() *DataDirBuilder {
	return NewDataDirBuilder().
		AddCustomer("1", "Asha", "34", "M", "Mumbai").
		AddCustomer("2", "Ravi", "29", "F", "Delhi").
		AddProduct("10", "Kettle", "Home", "12.5", "19.99", "19.99").
		AddProduct("11", "Lamp", "Home", "8", "14.5", "14.5").
		AddSale("100", "1", "10", "2024-01-05", "2", "39.98").
		AddSale("101", "2", "11", "2024-01-06", "1", "14.5")
}

// MalformedAge is StandardRetail with a non-numeric age on the last customer.
func MalformedAge() *DataDirBuilder {
	return StandardRetail().AddCustomer("3", "Meera", "thirty", "F", "Lucknow")
}

// DuplicateOrder is StandardRetail with order 100 repeated.
func DuplicateOrder() *DataDirBuilder {
	return StandardRetail().AddSale("100", "2", "10", "2024-01-07", "1", "19.99")
}
