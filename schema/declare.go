package schema

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/nickyhof/CommitORM/core"
)

// Field is one declared field of a table.
type Field struct {
	Name    string         `json:"name"`
	Type    core.FieldType `json:"type"`
	Setting core.Setting   `json:"setting"`
}

// Declaration is a table definition before its field types are resolved.
type Declaration struct {
	Name   string  `json:"name"`
	Fields []Field `json:"fields"`
}

func Declare(name string, fields ...Field) Declaration {
	return Declaration{Name: name, Fields: fields}
}

// File is the on-disk form of a set of declarations.
type File struct {
	Tables []Declaration `json:"tables"`
}

// LoadFile reads declarations from a JSON file. Unknown type names fail
// here with core.ErrUnsupportedType.
func LoadFile(path string) ([]Declaration, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

func Parse(data []byte) ([]Declaration, error) {
	var file File
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse schema: %w", err)
	}
	return file.Tables, nil
}
