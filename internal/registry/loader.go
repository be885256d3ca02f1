package registry

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"chatd/internal/common/fsutil"
	"chatd/pkg/types"
)

var quantRe = regexp.MustCompile(`(?i)\b(Q\d(?:_[A-Z0-9]+)*|F16|F32|BF16)\b`)

// LoadDir scans a directory for *.gguf files and returns them sorted by ID.
// ID is the full filename (including extension); Path is the absolute file path.
func LoadDir(dir string) ([]types.Model, error) {
	base, err := fsutil.ExpandHome(dir)
	if err != nil {
		return nil, err
	}
	abs, err := filepath.Abs(base)
	if err != nil {
		return nil, fmt.Errorf("abs path: %w", err)
	}
	entries, err := os.ReadDir(abs)
	if err != nil {
		return nil, fmt.Errorf("read dir: %w", err)
	}
	var models []types.Model
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if !strings.HasSuffix(strings.ToLower(name), ".gguf") {
			continue
		}
		p := filepath.Join(abs, name)
		models = append(models, types.Model{
			ID:        name,
			Path:      p,
			SizeBytes: fsutil.FileSize(p),
			Quant:     parseQuant(name),
		})
	}
	sort.Slice(models, func(i, j int) bool { return models[i].ID < models[j].ID })
	return models, nil
}

// ResolveArtifact returns the artifact for path. A file path is returned as-is
// (existence is the caller's concern); a directory must contain exactly one
// *.gguf file.
func ResolveArtifact(path string) (types.Model, error) {
	p, err := fsutil.ExpandHome(path)
	if err != nil {
		return types.Model{}, err
	}
	if !fsutil.IsDir(p) {
		name := filepath.Base(p)
		return types.Model{ID: name, Path: p, SizeBytes: fsutil.FileSize(p), Quant: parseQuant(name)}, nil
	}
	models, err := LoadDir(p)
	if err != nil {
		return types.Model{}, err
	}
	switch len(models) {
	case 0:
		return types.Model{}, fmt.Errorf("no .gguf file in directory")
	case 1:
		return models[0], nil
	default:
		return types.Model{}, fmt.Errorf("ambiguous model directory: %d .gguf files", len(models))
	}
}

func parseQuant(name string) string {
	stem := strings.TrimSuffix(name, filepath.Ext(name))
	// dots separate the quant tag in most published names
	stem = strings.ReplaceAll(stem, ".", " ")
	if m := quantRe.FindString(stem); m != "" {
		return strings.ToUpper(m)
	}
	return ""
}
