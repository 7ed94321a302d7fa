package feeds

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Schedule maps a team name to its season of encoded opponent tokens.
// A null or empty token is a bye week.
type Schedule map[string][]string

// Remaining maps a picker name to the team names they have not yet picked.
type Remaining map[string][]string

// PickTypes maps a picker name to their remaining pick-type counts.
type PickTypes map[string][]int

// LoadSchedule reads a schedule file
func LoadSchedule(path string) (Schedule, error) {
	var raw map[string][]*string
	if err := decodeFile(path, &raw); err != nil {
		return nil, err
	}
	return Schedule(tokens(raw)), nil
}

// LoadRemaining reads a remaining-teams file. A null entry is kept as an
// empty name so it fails resolution instead of vanishing.
func LoadRemaining(path string) (Remaining, error) {
	var raw map[string][]*string
	if err := decodeFile(path, &raw); err != nil {
		return nil, err
	}
	return Remaining(tokens(raw)), nil
}

// LoadPickTypes reads a pick-types file. An empty path means no file, and
// every picker gets the default distribution.
func LoadPickTypes(path string) (PickTypes, error) {
	if path == "" {
		return nil, nil
	}
	var raw map[string][]*int
	if err := decodeFile(path, &raw); err != nil {
		return nil, err
	}

	p := make(PickTypes, len(raw))
	for name, counts := range raw {
		dist := make([]int, len(counts))
		for i, n := range counts {
			if n == nil {
				return nil, fmt.Errorf("failed to parse %s: pick types of %q: entry %d is null", path, name, i)
			}
			dist[i] = *n
		}
		p[name] = dist
	}
	return p, nil
}

// tokens flattens nullable sequence items. yaml.v3 skips null items when
// decoding into []string, so lists are decoded through pointers and null
// becomes "".
func tokens(raw map[string][]*string) map[string][]string {
	if raw == nil {
		return nil
	}
	out := make(map[string][]string, len(raw))
	for key, items := range raw {
		list := make([]string, len(items))
		for i, item := range items {
			if item != nil {
				list[i] = *item
			}
		}
		out[key] = list
	}
	return out
}

func decodeFile(path string, dst any) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	if err := decode(f, dst); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return nil
}

// decode strictly decodes one YAML document. An empty document leaves dst untouched.
func decode(r io.Reader, dst any) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	return dec.Decode(dst)
}
