package config

import (
	"gopkg.in/ini.v1"
)

// readIni loads an ini file into a map suitable for viper; keys of a section nest
// under the section name, keys outside any section stay at the top level.
func readIni(path string) (map[string]any, error) {
	f, err := ini.Load(path)
	if err != nil {
		return nil, err
	}
	out := make(map[string]any)
	for _, sec := range f.Sections() {
		if sec.Name() == ini.DefaultSection {
			for _, k := range sec.Keys() {
				out[k.Name()] = k.Value()
			}
			continue
		}
		values := make(map[string]any, len(sec.Keys()))
		for _, k := range sec.Keys() {
			values[k.Name()] = k.Value()
		}
		out[sec.Name()] = values
	}
	return out, nil
}
