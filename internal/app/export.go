package app

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
)

// writeExport encodes v as one line of JSON and writes it to output, or to
// env.Stdout when output is empty.
func writeExport(env Env, output string, v any) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode export: %w", err)
	}

	if output == "" {
		if _, err := env.Stdout.Write(buf.Bytes()); err != nil {
			return fmt.Errorf("write export: %w", err)
		}
		return nil
	}

	if !filepath.IsAbs(output) {
		cwd, err := env.Getwd()
		if err != nil {
			return fmt.Errorf("resolve output path: %w", err)
		}
		output = filepath.Join(cwd, output)
	}
	if err := writeFileAtomic(env.FS, output, buf.Bytes()); err != nil {
		return fmt.Errorf("write export %s: %w", output, err)
	}
	return nil
}

// writeFileAtomic writes data to a temp file and renames it over name.
func writeFileAtomic(fs billy.Filesystem, name string, data []byte) error {
	// Ensure directory exists
	if err := fs.MkdirAll(filepath.Dir(name), 0o755); err != nil {
		return err
	}

	tmp := name + ".tmp"
	if err := util.WriteFile(fs, tmp, data, 0o644); err != nil {
		return err
	}

	// Atomic rename
	return fs.Rename(tmp, name)
}
