package models

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Parameter describes one required numeric quality parameter and its advisory range.
type Parameter struct {
	Name     string  `yaml:"name" json:"name"`
	Label    string  `yaml:"label" json:"label"`
	Min      float64 `yaml:"min" json:"min"`
	Max      float64 `yaml:"max" json:"max"`
	Guidance string  `yaml:"guidance" json:"guidance"`
}

// InRange reports whether v lies inside the advisory range. Ranges are never
// enforced on requests; they only shape prompts and training data.
func (p Parameter) InRange(v float64) bool {
	return v >= p.Min && v <= p.Max
}

// Catalog is the ordered list of required parameters. The order fixes the
// feature vector layout and the result store columns.
type Catalog []Parameter

// DefaultCatalog returns the six batch-quality parameters.
func DefaultCatalog() Catalog {
	return Catalog{
		{Name: "chemical_stability", Label: "Chemical stability", Min: 0.85, Max: 1.0, Guidance: "where higher is better"},
		{Name: "contamination_level", Label: "Contamination level", Min: 0.0, Max: 0.05, Guidance: "where lower is better"},
		{Name: "ph_level", Label: "pH level", Min: 5.0, Max: 8.0, Guidance: "typically, depending on medicine type"},
		{Name: "sterility_index", Label: "Sterility index", Min: 0.95, Max: 1.0, Guidance: "where higher is better"},
		{Name: "temperature_exposure", Label: "Temperature exposure", Min: 0.0, Max: 0.2, Guidance: "where lower indicates less temperature fluctuation"},
		{Name: "moisture_content", Label: "Moisture content", Min: 0.0, Max: 0.1, Guidance: "where lower is typically better"},
	}
}

// Names returns the parameter names in catalog order.
func (c Catalog) Names() []string {
	names := make([]string, len(c))
	for i, p := range c {
		names[i] = p.Name
	}
	return names
}

func (c Catalog) validate() error {
	if len(c) == 0 {
		return fmt.Errorf("parameter catalog is empty")
	}
	seen := make(map[string]bool, len(c))
	for _, p := range c {
		if p.Name == "" {
			return fmt.Errorf("parameter catalog has an entry without a name")
		}
		if seen[p.Name] {
			return fmt.Errorf("parameter %q is listed twice", p.Name)
		}
		if _, reserved := reservedColumns[p.Name]; reserved {
			return fmt.Errorf("parameter %q collides with a result column", p.Name)
		}
		if p.Min > p.Max {
			return fmt.Errorf("parameter %q has min %v above max %v", p.Name, p.Min, p.Max)
		}
		seen[p.Name] = true
	}
	return nil
}

type catalogFile struct {
	Parameters Catalog `yaml:"parameters"`
}

// LoadCatalog reads a YAML catalog file of the form
//
//	parameters:
//	  - name: ph_level
//	    label: pH level
//	    min: 5.0
//	    max: 8.0
//	    guidance: typically, depending on medicine type
//
// An empty path returns DefaultCatalog.
func LoadCatalog(path string) (Catalog, error) {
	if path == "" {
		return DefaultCatalog(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read parameter catalog: %w", err)
	}
	var f catalogFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decode parameter catalog %s: %w", path, err)
	}
	for i := range f.Parameters {
		if f.Parameters[i].Label == "" {
			f.Parameters[i].Label = f.Parameters[i].Name
		}
	}
	if err := f.Parameters.validate(); err != nil {
		return nil, fmt.Errorf("invalid parameter catalog %s: %w", path, err)
	}
	return f.Parameters, nil
}
