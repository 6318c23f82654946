package batch

import (
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

var digitRun = regexp.MustCompile(`[0-9]+`)

// fileKey is the first run of decimal digits in the base name with leading
// zeros removed, or "0" when the name has no digits. Keys compare as
// arbitrarily large numbers.
func fileKey(path string) string {
	run := digitRun.FindString(filepath.Base(path))
	run = strings.TrimLeft(run, "0")
	if run == "" {
		return "0"
	}
	return run
}

func lessNumeric(a, b string) bool {
	if len(a) != len(b) {
		return len(a) < len(b)
	}
	return a < b
}

// SortFilesByIndex orders paths by the first number in each base name.
// Paths with equal numbers keep their input order.
func SortFilesByIndex(paths []string) []string {
	out := make([]string, len(paths))
	copy(out, paths)
	keys := make(map[string]string, len(out))
	for _, p := range out {
		keys[p] = fileKey(p)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return lessNumeric(keys[out[i]], keys[out[j]])
	})
	return out
}
