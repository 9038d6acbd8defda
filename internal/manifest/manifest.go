// Package manifest parses the export.json document of an archive into
// entity-type buckets that keep the document order of their entries.
package manifest

import (
	"errors"
	"fmt"

	"github.com/tidwall/gjson"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// FileName is the archive entry holding the manifest.
const FileName = "export.json"

// ErrMalformed is returned for manifests that are not a JSON object of objects.
var ErrMalformed = errors.New("malformed manifest")

// Entity is one manifest entry: its archive UUID and field dictionary.
type Entity struct {
	UUID   string
	Fields Fields
}

// Manifest maps entity-type names to their entries in document order.
type Manifest struct {
	types   []string
	buckets map[string][]Entity
	index   map[string]map[string]int
}

// Empty returns a manifest without entries.
func Empty() *Manifest {
	return &Manifest{buckets: map[string][]Entity{}, index: map[string]map[string]int{}}
}

// Parse decodes raw manifest bytes. A UTF-8 byte order mark is tolerated.
func Parse(raw []byte) (*Manifest, error) {
	decoded, _, err := transform.Bytes(unicode.BOMOverride(unicode.UTF8.NewDecoder()), raw)
	if err != nil {
		return nil, fmt.Errorf("decode manifest: %w", err)
	}
	if !gjson.ValidBytes(decoded) {
		return nil, fmt.Errorf("%w: invalid json", ErrMalformed)
	}
	root := gjson.ParseBytes(decoded)
	if !root.IsObject() {
		return nil, fmt.Errorf("%w: top level must be an object", ErrMalformed)
	}
	m := Empty()
	var parseErr error
	root.ForEach(func(typeName, bucket gjson.Result) bool {
		if !bucket.IsObject() {
			parseErr = fmt.Errorf("%w: %s must map uuids to objects", ErrMalformed, typeName.String())
			return false
		}
		bucket.ForEach(func(uuid, fields gjson.Result) bool {
			if !fields.IsObject() {
				parseErr = fmt.Errorf("%w: %s %s is not an object", ErrMalformed, typeName.String(), uuid.String())
				return false
			}
			values, _ := fields.Value().(map[string]any)
			m.add(typeName.String(), Entity{UUID: uuid.String(), Fields: Fields(values)})
			return true
		})
		return parseErr == nil
	})
	if parseErr != nil {
		return nil, parseErr
	}
	return m, nil
}

func (m *Manifest) add(typeName string, e Entity) {
	if _, ok := m.buckets[typeName]; !ok {
		m.types = append(m.types, typeName)
		m.index[typeName] = map[string]int{}
	}
	if e.Fields == nil {
		e.Fields = Fields{}
	}
	if i, dup := m.index[typeName][e.UUID]; dup {
		m.buckets[typeName][i] = e
		return
	}
	m.index[typeName][e.UUID] = len(m.buckets[typeName])
	m.buckets[typeName] = append(m.buckets[typeName], e)
}

// Add appends or replaces an entry. It is used to build manifests in code.
func (m *Manifest) Add(typeName, uuid string, fields Fields) {
	m.add(typeName, Entity{UUID: uuid, Fields: fields})
}

// Types lists entity-type names in document order.
func (m *Manifest) Types() []string {
	out := make([]string, len(m.types))
	copy(out, m.types)
	return out
}

// Entities returns the entries of typeName in document order. Field maps
// are shared with the manifest so rewrites are visible to later readers.
func (m *Manifest) Entities(typeName string) []Entity {
	return m.buckets[typeName]
}

// Get returns a single entry.
func (m *Manifest) Get(typeName, uuid string) (Entity, bool) {
	i, ok := m.index[typeName][uuid]
	if !ok {
		return Entity{}, false
	}
	return m.buckets[typeName][i], true
}

// Len counts entries across every type.
func (m *Manifest) Len() int {
	n := 0
	for _, b := range m.buckets {
		n += len(b)
	}
	return n
}
