// Package manifest records the identity of a batch's input files.
package manifest

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/huangweiliang/dlt-viewer-simplified/internal/batch"
	"github.com/huangweiliang/dlt-viewer-simplified/internal/common"
)

type Item struct {
	Path   string `json:"path"`
	Size   int64  `json:"size"`
	Sha256 string `json:"sha256"`
	Type   string `json:"type"`
}

type Manifest struct {
	CreatedAt time.Time `json:"createdAt"`
	ShaAlgo   string    `json:"shaAlgo"`
	Digest    string    `json:"digest"`
	Items     []Item    `json:"items"`
}

// Build hashes paths in batch order and derives the manifest digest from
// the item hashes.
func Build(paths []string) (Manifest, error) {
	m := Manifest{CreatedAt: time.Now().UTC(), ShaAlgo: "sha256"}
	for _, p := range batch.SortFilesByIndex(paths) {
		sum, sz, err := common.Sha256OfFile(p)
		if err != nil {
			return m, err
		}
		typ := "other"
		if hasExt(p, ".dlt") {
			typ = "dlt"
		}
		m.Items = append(m.Items, Item{Path: p, Size: sz, Sha256: sum, Type: typ})
	}
	m.Digest = digest(m.Items)
	return m, nil
}

// digest hashes the ordered item hashes, so it changes when any file's
// content or the batch order changes but not when files are moved.
func digest(items []Item) string {
	h := common.NewHasher()
	for _, it := range items {
		h.Write([]byte(it.Sha256 + "\n"))
	}
	return h.Sum()
}

func hasExt(path string, exts ...string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range exts {
		if ext == e {
			return true
		}
	}
	return false
}

func Save(m Manifest, out string) error {
	b, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(out, b, 0644)
}
