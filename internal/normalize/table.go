package normalize

import (
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// CorruptionTable maps known garbled substrings to their corrections. The
// table is hand-maintained configuration: extraction produces the same
// character-interleaving corruption for the same source cell every time, so
// exact-match replacement is safe where a human has confirmed the pair.
type CorruptionTable map[string]string

type corruptionFile struct {
	Replacements map[string]string `yaml:"replacements"`
}

// LoadCorruptionTable reads a YAML corruption table. A missing path yields
// an empty table: correction is optional configuration, not a requirement.
func LoadCorruptionTable(path string) (CorruptionTable, error) {
	if path == "" {
		return CorruptionTable{}, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return CorruptionTable{}, nil
		}
		return nil, eris.Wrapf(err, "normalize: read corruption table %s", path)
	}

	var f corruptionFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, eris.Wrapf(err, "normalize: parse corruption table %s", path)
	}
	if f.Replacements == nil {
		return CorruptionTable{}, nil
	}
	return CorruptionTable(f.Replacements), nil
}

// Apply replaces s if it has an exact-match entry, reporting whether a
// replacement happened.
func (t CorruptionTable) Apply(s string) (string, bool) {
	if fixed, ok := t[s]; ok {
		return fixed, true
	}
	return s, false
}
