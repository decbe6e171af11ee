// Package datasets names what can be loaded: a target table, where its
// rows come from, and the column schema they are coerced to.
package datasets

import (
	"fmt"
	"sort"
	"sync"

	"github.com/retail-sdw/sdwload/pkg/sdwload"
)

// Group tags datasets that are loaded together.
type Group string

const (
	// GroupDimension datasets are loaded independently, one session each.
	GroupDimension Group = "dimension"

	// GroupStaging datasets share a single session and a single commit.
	GroupStaging Group = "staging"
)

// Dataset is one {source, table, schema} load definition.
type Dataset struct {
	Name   string
	Table  string
	Group  Group
	Schema sdwload.Schema

	// Source is the CSV file name relative to the data directory.
	// Empty when Records is set.
	Source string

	// Records are inline rows used instead of a source file.
	Records []sdwload.Record

	// Message is reported once the dataset has been committed.
	Message string

	// Order positions the dataset within its group.
	Order int
}

// Inline reports whether the dataset is sourced from code rather than a file.
func (d Dataset) Inline() bool {
	return d.Source == "" && d.Records != nil
}

// Validate checks that the definition can be loaded.
func (d Dataset) Validate() error {
	if d.Name == "" {
		return fmt.Errorf("dataset has no name: %w", sdwload.ErrInvalidConfig)
	}
	if d.Table == "" {
		return fmt.Errorf("dataset %s has no table: %w", d.Name, sdwload.ErrInvalidConfig)
	}
	if d.Source == "" && d.Records == nil {
		return fmt.Errorf("dataset %s has neither a source file nor inline records: %w", d.Name, sdwload.ErrInvalidConfig)
	}
	if d.Source != "" && d.Records != nil {
		return fmt.Errorf("dataset %s has both a source file and inline records: %w", d.Name, sdwload.ErrInvalidConfig)
	}
	if err := d.Schema.Validate(); err != nil {
		return fmt.Errorf("dataset %s: %w", d.Name, err)
	}
	return nil
}

// Registry holds dataset definitions by name.
// Safe for concurrent use.
type Registry struct {
	mu       sync.RWMutex
	datasets map[string]Dataset
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{datasets: make(map[string]Dataset)}
}

// Register adds d. Registering an invalid definition or a name twice is an error.
func (r *Registry) Register(d Dataset) error {
	if err := d.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.datasets[d.Name]; exists {
		return fmt.Errorf("dataset %s already registered: %w", d.Name, sdwload.ErrInvalidConfig)
	}
	r.datasets[d.Name] = d
	return nil
}

// MustRegister is Register for static definitions; it panics on error.
func (r *Registry) MustRegister(d Dataset) {
	if err := r.Register(d); err != nil {
		panic(err)
	}
}

// Get returns the dataset called name.
func (r *Registry) Get(name string) (Dataset, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	d, ok := r.datasets[name]
	if !ok {
		return Dataset{}, fmt.Errorf("%q: %w", name, sdwload.ErrUnknownDataset)
	}
	return d, nil
}

// All returns every dataset sorted by group, then order, then name.
func (r *Registry) All() []Dataset {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Dataset, 0, len(r.datasets))
	for _, d := range r.datasets {
		result = append(result, d)
	}
	sortDatasets(result)
	return result
}

// ByGroup returns the datasets of group in load order.
func (r *Registry) ByGroup(group Group) []Dataset {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []Dataset
	for _, d := range r.datasets {
		if d.Group == group {
			result = append(result, d)
		}
	}
	sortDatasets(result)
	return result
}

// Names returns the names of the datasets of group in load order.
func (r *Registry) Names(group Group) []string {
	ds := r.ByGroup(group)
	names := make([]string, len(ds))
	for i, d := range ds {
		names[i] = d.Name
	}
	return names
}

func sortDatasets(ds []Dataset) {
	sort.Slice(ds, func(i, j int) bool {
		if ds[i].Group != ds[j].Group {
			return ds[i].Group < ds[j].Group
		}
		if ds[i].Order != ds[j].Order {
			return ds[i].Order < ds[j].Order
		}
		return ds[i].Name < ds[j].Name
	})
}
