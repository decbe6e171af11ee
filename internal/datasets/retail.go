package datasets

import "github.com/retail-sdw/sdwload/pkg/sdwload"

// Default source files, relative to the data directory.
const (
	CustomersSource = "customers_raw.csv"
	ProductsSource  = "products_raw.csv"
	SalesSource     = "sales_raw.csv"
)

// StagingMessage is reported once the whole staging group has committed.
const StagingMessage = "Staging data loaded successfully."

var (
	customerSchema = sdwload.Schema{
		{Name: "customer_id", Type: sdwload.Integer},
		{Name: "age", Type: sdwload.Integer},
		{Name: "gender", Type: sdwload.Text},
	}

	productSchema = sdwload.Schema{
		{Name: "product_id", Type: sdwload.Integer},
		{Name: "product_name", Type: sdwload.Text},
		{Name: "category", Type: sdwload.Text},
		{Name: "cost_price", Type: sdwload.Decimal},
		{Name: "selling_price", Type: sdwload.Decimal},
	}

	citySchema = sdwload.Schema{
		{Name: "city_name", Type: sdwload.Text},
		{Name: "region", Type: sdwload.Text},
	}

	stagingCustomerSchema = sdwload.Schema{
		{Name: "customer_id", Type: sdwload.Integer},
		{Name: "customer_name", Type: sdwload.Text},
		{Name: "city", Type: sdwload.Text},
	}

	stagingProductSchema = sdwload.Schema{
		{Name: "product_id", Type: sdwload.Integer},
		{Name: "product_name", Type: sdwload.Text},
		{Name: "category", Type: sdwload.Text},
		{Name: "price", Type: sdwload.Decimal},
	}

	// order_date lands as text; staging does no date parsing.
	stagingSalesSchema = sdwload.Schema{
		{Name: "order_id", Type: sdwload.Integer},
		{Name: "customer_id", Type: sdwload.Integer},
		{Name: "product_id", Type: sdwload.Integer},
		{Name: "order_date", Type: sdwload.Text},
		{Name: "quantity", Type: sdwload.Integer},
		{Name: "amount", Type: sdwload.Decimal},
	}
)

// Cities returns the fixed city list loaded into dim_city.
func Cities() []sdwload.Record {
	return []sdwload.Record{
		{"city_name": "Mumbai", "region": "West"},
		{"city_name": "Delhi", "region": "North"},
		{"city_name": "Bangalore", "region": "South"},
		{"city_name": "Hyderabad", "region": "South"},
		{"city_name": "Lucknow", "region": "North"},
	}
}

// Retail returns a registry holding the retail SDW datasets.
func Retail() *Registry {
	r := NewRegistry()

	r.MustRegister(Dataset{
		Name:    "customers",
		Table:   "dim_customer",
		Group:   GroupDimension,
		Order:   1,
		Schema:  customerSchema,
		Source:  CustomersSource,
		Message: "Customers loaded successfully.",
	})
	r.MustRegister(Dataset{
		Name:    "products",
		Table:   "dim_product",
		Group:   GroupDimension,
		Order:   2,
		Schema:  productSchema,
		Source:  ProductsSource,
		Message: "Products loaded successfully.",
	})
	r.MustRegister(Dataset{
		Name:    "cities",
		Table:   "dim_city",
		Group:   GroupDimension,
		Order:   3,
		Schema:  citySchema,
		Records: Cities(),
		Message: "Cities loaded successfully.",
	})

	r.MustRegister(Dataset{
		Name:   "staging_customers",
		Table:  "staging_customers",
		Group:  GroupStaging,
		Order:  1,
		Schema: stagingCustomerSchema,
		Source: CustomersSource,
	})
	r.MustRegister(Dataset{
		Name:   "staging_products",
		Table:  "staging_products",
		Group:  GroupStaging,
		Order:  2,
		Schema: stagingProductSchema,
		Source: ProductsSource,
	})
	r.MustRegister(Dataset{
		Name:   "staging_sales",
		Table:  "staging_sales",
		Group:  GroupStaging,
		Order:  3,
		Schema: stagingSalesSchema,
		Source: SalesSource,
	})

	return r
}
