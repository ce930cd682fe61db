package report

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
)

// UniquePaths returns prefix+ext for every extension, using the first numeric
// suffix ("results-1.json", "results-2.json", ...) for which none of the files
// exist yet, so a run never overwrites an earlier one.
func UniquePaths(prefix string, exts ...string) []string {
	for i := 0; ; i++ {
		base := prefix
		if i > 0 {
			base = prefix + "-" + strconv.Itoa(i)
		}
		paths := make([]string, len(exts))
		free := true
		for j, ext := range exts {
			paths[j] = base + ext
			if _, err := os.Stat(paths[j]); !errors.Is(err, fs.ErrNotExist) {
				free = false
			}
		}
		if free {
			return paths
		}
	}
}
