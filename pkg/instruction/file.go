package instruction

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// Test is one entry of an instruction file.
type Test struct {
	ID            string   `toml:"test_id"`
	Group         string   `toml:"test_group"`
	Priority      string   `toml:"test_priority"`
	Description   string   `toml:"test_description"`
	PassCondition string   `toml:"pass_condition"`
	Instructions  []string `toml:"instructions"`
	Authors       []string `toml:"test_authors_and_contact_persons"`
}

// Lines classifies the test's instructions.
func (t *Test) Lines() []Line {
	return Parse(t.Instructions)
}

// Group is a top-level table holding an array of tests.
type Group struct {
	Name  string
	Tests []Test
}

// File is a parsed instruction file with groups in file order.
type File struct {
	Path   string
	Groups []Group
}

type rawGroup struct {
	Test []Test `toml:"test"`
}

// LoadFile reads and parses a TOML instruction file.
func LoadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading instruction file %s: %w", path, err)
	}
	f, err := Decode(string(data))
	if err != nil {
		return nil, fmt.Errorf("parsing instruction file %s: %w", path, err)
	}
	f.Path = path
	return f, nil
}

// Decode parses instruction file content.
func Decode(content string) (*File, error) {
	raw := map[string]rawGroup{}
	md, err := toml.Decode(content, &raw)
	if err != nil {
		return nil, err
	}

	f := &File{}
	seen := map[string]bool{}
	for _, key := range md.Keys() {
		if len(key) == 0 || seen[key[0]] {
			continue
		}
		name := key[0]
		seen[name] = true
		g, ok := raw[name]
		if !ok || len(g.Test) == 0 {
			continue
		}
		f.Groups = append(f.Groups, Group{Name: name, Tests: g.Test})
	}
	return f, nil
}

// Find returns the test with the given id and the name of its group.
func (f *File) Find(id string) (*Test, string, bool) {
	for gi := range f.Groups {
		g := &f.Groups[gi]
		for ti := range g.Tests {
			if g.Tests[ti].ID == id {
				return &g.Tests[ti], g.Name, true
			}
		}
	}
	return nil, "", false
}

// IDs lists every test id in file order.
func (f *File) IDs() []string {
	var ids []string
	for _, g := range f.Groups {
		for _, t := range g.Tests {
			if t.ID != "" {
				ids = append(ids, t.ID)
			}
		}
	}
	return ids
}
