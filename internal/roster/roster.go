// Package roster loads roster snapshots from YAML files and resolves
// players typed by the operator.
//
// A roster file is validated against an embedded CUE schema (#Roster) for
// shape, roles and number ranges; uniqueness of ids and numbers is checked
// afterwards since CUE lists cannot express it directly.
package roster

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"gopkg.in/yaml.v3"

	"github.com/marceldopr/volleyball-stats-pro-v3-sub001/internal/match"
)

//go:embed schema.cue
var schemaCUE string

// File is the on-disk form of a roster.
type File struct {
	Team    string         `yaml:"team,omitempty" json:"team,omitempty"`
	Players []match.Player `yaml:"players" json:"players"`
}

// SchemaError is a roster that does not satisfy #Roster or the uniqueness
// rules. Path locates the offending value when known.
type SchemaError struct {
	Path    string
	Message string
}

func (e *SchemaError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("roster schema: %s: %s", e.Path, e.Message)
	}
	return fmt.Sprintf("roster schema: %s", e.Message)
}

// IsSchemaError reports whether err is a *SchemaError.
func IsSchemaError(err error) bool {
	var se *SchemaError
	return errors.As(err, &se)
}

// LoadFile reads and validates a roster file.
func LoadFile(path string) (File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return File{}, fmt.Errorf("read roster %s: %w", path, err)
	}
	f, err := Parse(data)
	if err != nil {
		return File{}, fmt.Errorf("load roster %s: %w", path, err)
	}
	return f, nil
}

// Parse decodes and validates a roster document. Unknown fields are
// rejected.
func Parse(data []byte) (File, error) {
	var f File
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return File{}, fmt.Errorf("parse roster: %w", err)
	}
	if err := Validate(f); err != nil {
		return File{}, err
	}
	return f, nil
}

// Validate checks f against the #Roster schema and requires player ids and
// shirt numbers to be unique.
func Validate(f File) error {
	ctx := cuecontext.New()
	schema := ctx.CompileString(schemaCUE, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return fmt.Errorf("compile roster schema: %w", err)
	}
	def := schema.LookupPath(cue.ParsePath("#Roster"))

	doc := ctx.Encode(f)
	if err := doc.Err(); err != nil {
		return fmt.Errorf("encode roster: %w", err)
	}
	if err := def.Unify(doc).Validate(cue.Concrete(true)); err != nil {
		return &SchemaError{Message: err.Error()}
	}

	ids := make(map[string]int, len(f.Players))
	numbers := make(map[int]int, len(f.Players))
	for i, p := range f.Players {
		if j, dup := ids[p.ID]; dup {
			return &SchemaError{
				Path:    fmt.Sprintf("players[%d].id", i),
				Message: fmt.Sprintf("duplicate id %q (also players[%d])", p.ID, j),
			}
		}
		if j, dup := numbers[p.Number]; dup {
			return &SchemaError{
				Path:    fmt.Sprintf("players[%d].number", i),
				Message: fmt.Sprintf("duplicate number %d (also players[%d])", p.Number, j),
			}
		}
		ids[p.ID] = i
		numbers[p.Number] = i
	}
	return nil
}

// Roster returns the players as a match roster.
func (f File) Roster() match.Roster {
	return append(match.Roster(nil), f.Players...)
}
