package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// Params is the flat parameter mapping shared by all decision subroutines.
// Values are coerced once at load time: numeric if possible, otherwise kept
// as text, otherwise dropped with a warning. Coercion failures never abort
// construction.
type Params struct {
	floats  map[string]float64
	strings map[string]string
}

func NewParams() Params {
	return Params{
		floats:  map[string]float64{},
		strings: map[string]string{},
	}
}

// ParseParams coerces a raw decoded mapping into Params.
func ParseParams(raw map[string]any, log logrus.FieldLogger) Params {
	p := NewParams()
	for key, value := range raw {
		switch v := value.(type) {
		case int:
			p.floats[key] = float64(v)
		case int64:
			p.floats[key] = float64(v)
		case float64:
			p.floats[key] = v
		case bool:
			p.strings[key] = strconv.FormatBool(v)
		case string:
			if f, err := strconv.ParseFloat(v, 64); err == nil {
				p.floats[key] = f
			} else {
				p.strings[key] = v
			}
		case fmt.Stringer:
			p.strings[key] = v.String()
		default:
			log.Warnf("dropping parameter %q: cannot coerce %T", key, value)
		}
	}
	return p
}

// LoadParamsFile reads a YAML file of named parameters. A missing path yields
// empty Params and no error.
func LoadParamsFile(path string, log logrus.FieldLogger) (Params, error) {
	if path == "" {
		return NewParams(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return NewParams(), errors.Wrapf(err, "read params file %s", path)
	}
	raw := map[string]any{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return NewParams(), errors.Wrapf(err, "parse params file %s", path)
	}
	return ParseParams(raw, log), nil
}

// Float returns the numeric parameter for key, or def when absent.
func (p Params) Float(key string, def float64) float64 {
	if v, ok := p.floats[key]; ok {
		return v
	}
	return def
}

// String returns the text parameter for key, or def when absent.
func (p Params) String(key, def string) string {
	if v, ok := p.strings[key]; ok {
		return v
	}
	return def
}

func (p Params) Has(key string) bool {
	_, f := p.floats[key]
	_, s := p.strings[key]
	return f || s
}

// Set records a numeric parameter, mostly useful in tests and wiring code.
func (p Params) Set(key string, v float64) {
	p.floats[key] = v
}

// SetString records a text parameter.
func (p Params) SetString(key, v string) {
	p.strings[key] = v
}
