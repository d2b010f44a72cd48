/*
Package factory turns seed JSON files into engine record sets.

PURPOSE:
  Reads one JSON file per collection from a directory and hands the loader
  already-deserialized documents. Nothing here interprets the records; date
  handling and ids belong to the engine.

FILE LAYOUT:
  <dir>/users.json
  <dir>/codekata.json
  <dir>/attendance.json
  <dir>/topics.json
  <dir>/tasks.json
  <dir>/company_drives.json
  <dir>/mentors.json

  Each file holds a JSON array of flat objects:
    [{"_id": 1, "name": "Alice", "email": "alice@example.com"}]

RULES:
  - A missing file is an empty collection
  - Malformed JSON, or a top-level value that is not an array of objects,
    is an error naming the file
  - Numbers decode as float64
*/
package factory

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/zenclass/zenreport/engine"
)

// LoadSeed reads <name>.json for every name from dir.
func LoadSeed(dir string, names []string) (engine.Seed, error) {
	return LoadSeedFS(os.DirFS(dir), names)
}

// LoadSeedFS is LoadSeed over any fs.FS.
func LoadSeedFS(fsys fs.FS, names []string) (engine.Seed, error) {
	seed := make(engine.Seed, len(names))
	for _, name := range names {
		file := name + ".json"
		f, err := fsys.Open(file)
		if errors.Is(err, fs.ErrNotExist) {
			seed[name] = nil
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", file, err)
		}
		docs, err := ParseRecords(f)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", filepath.ToSlash(file), err)
		}
		seed[name] = docs
	}
	return seed, nil
}

// ParseRecords decodes a JSON array of objects.
func ParseRecords(r io.Reader) ([]engine.Document, error) {
	var raw []map[string]any
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, err
	}
	docs := make([]engine.Document, 0, len(raw))
	for i, m := range raw {
		if m == nil {
			return nil, fmt.Errorf("record %d is null", i)
		}
		docs = append(docs, engine.Document(m))
	}
	return docs, nil
}
