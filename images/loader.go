package images

import (
	"os"
	"path/filepath"
	"sort"

	"github.com/pkg/errors"
)

// ListImageFiles expands the given paths into image files.
//
// Files are kept in argument order. Directories are expanded (non-recursively)
// into their supported image files sorted by name. A path that cannot be
// stat'ed is kept as a file so that the decoder reports it.
//
// Arguments:
//   - paths: Files or directories.
//
// Returns:
//   - []string: The image file paths.
//   - error: Error if a directory cannot be listed.
func ListImageFiles(paths []string) ([]string, error) {
	var files []string
	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil || !info.IsDir() {
			files = append(files, path)
			continue
		}

		entries, err := os.ReadDir(path)
		if err != nil {
			return nil, errors.Wrapf(err, "read dir %s", path)
		}
		var found []string
		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}
			if _, ok := FormatFromPath(entry.Name()); ok {
				found = append(found, filepath.Join(path, entry.Name()))
			}
		}
		sort.Strings(found)
		files = append(files, found...)
	}
	return files, nil
}
