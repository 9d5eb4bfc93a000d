package dicomio

import (
	"io/fs"
	"path/filepath"
	"strings"
)

// EnumerateSources walks dir recursively and returns every file whose
// extension matches one of extensions, case-insensitively. The order is
// the walk order and carries no spatial meaning.
func EnumerateSources(dir string, extensions []string) ([]string, error) {
	want := make(map[string]bool, len(extensions))
	for _, ext := range extensions {
		ext = strings.ToLower(ext)
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		want[ext] = true
	}

	var sources []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if want[strings.ToLower(filepath.Ext(d.Name()))] {
			sources = append(sources, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return sources, nil
}
