package storage

import (
	"encoding/json"
	"io"
	"os"
)

// ExportJSON writes v as indented JSON to path, or to stdout when path is
// empty or "-".
func ExportJSON(path string, v any) error {
	if path == "" || path == "-" {
		return WriteJSON(os.Stdout, v)
	}
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()
	return WriteJSON(file, v)
}

func WriteJSON(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
