package source

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/samber/lo"

	"github.com/mveitas/cclens/internal/model"
)

// ExpandHome resolves a leading "~" to the caller's home directory. Paths
// without the prefix are returned untouched.
func ExpandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, strings.TrimPrefix(path, "~"))
	}
	return path
}

// ValidatePath reports whether path exists, is a directory, and is readable.
func ValidatePath(path string) bool {
	path = ExpandHome(path)
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return false
	}
	_, err = os.ReadDir(path)
	return err == nil
}

// ScanProjects walks the scan root and groups JSONL files into projects,
// one immediate parent directory per project. A missing root is not an
// error: it returns an empty list. A root that exists but cannot be read
// surfaces as a single descriptive error.
func ScanProjects(root string) ([]model.ProjectInfo, error) {
	root = ExpandHome(root)

	info, err := os.Stat(root)
	if err != nil {
		if os.IsNotExist(err) {
			return []model.ProjectInfo{}, nil
		}
		return nil, fmt.Errorf("reading scan root %s: %w", root, err)
	}
	if !info.IsDir() {
		return []model.ProjectInfo{}, nil
	}
	if _, err := os.ReadDir(root); err != nil {
		return nil, fmt.Errorf("reading scan root %s: %w", root, err)
	}

	projects := make(map[string]*model.ProjectInfo)

	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil //nolint:nilerr // skip unreadable entries, keep scanning
		}
		if d.IsDir() || filepath.Ext(path) != ".jsonl" {
			return nil
		}

		fi, err := d.Info()
		if err != nil {
			return nil //nolint:nilerr
		}

		dir := filepath.Dir(path)
		proj, ok := projects[dir]
		if !ok {
			proj = &model.ProjectInfo{
				Name: filepath.Base(dir),
				Path: dir,
			}
			projects[dir] = proj
		}

		ref := model.FileRef{
			Path:      path,
			SizeBytes: fi.Size(),
			ModTime:   fi.ModTime(),
		}
		proj.Files = append(proj.Files, ref)
		if ref.ModTime.After(proj.LastModified) {
			proj.LastModified = ref.ModTime
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", root, err)
	}

	result := lo.Map(lo.Values(projects), func(p *model.ProjectInfo, _ int) model.ProjectInfo {
		return *p
	})
	sort.Slice(result, func(i, j int) bool {
		return result[i].Name < result[j].Name
	})
	return result, nil
}

// MaxModTime returns the latest modification time across all projects,
// which serves as the cache-invalidation signal for full-scan results.
func MaxModTime(projects []model.ProjectInfo) time.Time {
	var max time.Time
	for _, p := range projects {
		if p.LastModified.After(max) {
			max = p.LastModified
		}
	}
	return max
}
