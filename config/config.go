// Package config loads the YAML device-node configuration this hub
// starts from, adapted directly from multiserver.ObjSetup/Config/
// LoadYaml: the same {Addr, Endpoint, Serial, Type, Args} stanza shape,
// keyed here by device category (spec.md §3's six categories) instead
// of the teacher's flat instrument list, since every node on this hub
// also needs a stable index within its category.
package config

import (
	"fmt"
	"os"

	"github.com/go-yaml/yaml"
)

// ObjSetup holds the typical triplet of args for constructing one
// device, mirroring multiserver.ObjSetup.
type ObjSetup struct {
	// Name is the device's human-readable Alpaca Name/Description.
	Name string `yaml:"Name"`

	// Addr is the serial device path (e.g. /dev/ttyUSB0) or vendor SDK
	// identifier this node is attached to.
	Addr string `yaml:"Addr"`

	// Endpoint is carried over from the teacher's ObjSetup for
	// continuity but unused here: Alpaca routes are fixed by category
	// and index rather than a configurable URL stem.
	Endpoint string `yaml:"Endpoint,omitempty"`

	// Serial determines if Addr names a local serial device (true) or
	// is interpreted by the node's Type-specific constructor some other
	// way (false), matching the teacher's Serial flag.
	Serial bool `yaml:"Serial"`

	// Type selects which constructor in cmd/alpacahubsrv builds this
	// node. Only camera nodes consult it, and "simulated" is the only
	// camera Type built in; the other categories ignore it.
	Type string `yaml:"Type"`

	// Baud is the serial baud rate for Serial nodes; 9600 or 115200 per
	// spec.md §4.3.
	Baud int `yaml:"Baud"`

	// Args holds any additional constructor arguments, the same
	// map[string]interface{} escape hatch multiserver.ObjSetup uses for
	// device-specific parameters (filter names, switch channel tables,
	// gain label lists, and so on).
	Args map[string]interface{} `yaml:"Args"`
}

// ServerInfo populates /management/v1/description.
type ServerInfo struct {
	ServerName          string `yaml:"ServerName"`
	Manufacturer        string `yaml:"Manufacturer"`
	ManufacturerVersion string `yaml:"ManufacturerVersion"`
	Location            string `yaml:"Location"`
}

// Config is the top-level YAML document this hub starts from.
type Config struct {
	// Addr is the address the Alpaca HTTP server listens on, e.g. ":11111".
	Addr string `yaml:"Addr"`

	Server ServerInfo `yaml:"Server"`

	// Devices maps a device category name (spec.md §3: camera,
	// telescope, focuser, filterwheel, switch, rotator) to the ordered
	// list of nodes registered under it. Order in the list is the
	// device's stable index.
	Devices map[string][]ObjSetup `yaml:"Devices"`
}

// LoadYaml reads and decodes path into a Config, matching
// multiserver.LoadYaml.
func LoadYaml(path string) (Config, error) {
	cfg := Config{}
	f, err := os.Open(path)
	if err != nil {
		return cfg, fmt.Errorf("config: open %s: %w", path, err)
	}
	defer f.Close()

	if err := yaml.NewDecoder(f).Decode(&cfg); err != nil {
		return cfg, fmt.Errorf("config: decode %s: %w", path, err)
	}
	return cfg, nil
}

// StringArg reads a string argument from Args, returning def if absent.
func (o ObjSetup) StringArg(key, def string) string {
	if v, ok := o.Args[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return def
}

// IntArg reads an integer argument from Args, returning def if absent or
// of the wrong type. YAML decodes bare integers as int, so both int and
// float64 (in case the value arrived as a float literal) are accepted.
func (o ObjSetup) IntArg(key string, def int) int {
	if v, ok := o.Args[key]; ok {
		switch n := v.(type) {
		case int:
			return n
		case float64:
			return int(n)
		}
	}
	return def
}

// FloatArg reads a float argument from Args, returning def if absent.
func (o ObjSetup) FloatArg(key string, def float64) float64 {
	if v, ok := o.Args[key]; ok {
		switch n := v.(type) {
		case float64:
			return n
		case int:
			return float64(n)
		}
	}
	return def
}

// BoolArg reads a boolean argument from Args, returning def if absent.
func (o ObjSetup) BoolArg(key string, def bool) bool {
	if v, ok := o.Args[key]; ok {
		if b, ok := v.(bool); ok {
			return b
		}
	}
	return def
}

// StringSliceArg reads a string-list argument from Args, returning nil
// if absent. YAML decodes a sequence of scalars as []interface{}.
func (o ObjSetup) StringSliceArg(key string) []string {
	v, ok := o.Args[key]
	if !ok {
		return nil
	}
	raw, ok := v.([]interface{})
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// IntSliceArg reads an integer-list argument from Args, returning nil if
// absent.
func (o ObjSetup) IntSliceArg(key string) []int32 {
	v, ok := o.Args[key]
	if !ok {
		return nil
	}
	raw, ok := v.([]interface{})
	if !ok {
		return nil
	}
	out := make([]int32, 0, len(raw))
	for _, item := range raw {
		switch n := item.(type) {
		case int:
			out = append(out, int32(n))
		case float64:
			out = append(out, int32(n))
		}
	}
	return out
}
