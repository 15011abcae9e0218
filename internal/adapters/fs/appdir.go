package fs

import (
	"path/filepath"

	"github.com/go-git/go-billy/v5"
)

// AppRCFile marks the root of an application.
const AppRCFile = ".appshiprc"

// FindAppDir walks up from start looking for a directory containing the
// application rc file. It returns "" when no ancestor is an application.
func FindAppDir(fs billy.Filesystem, start string) string {
	dir := filepath.Clean(start)
	for {
		if fi, err := fs.Stat(filepath.Join(dir, AppRCFile)); err == nil && !fi.IsDir() {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}
