package units

import (
	"os"
	"path/filepath"
	"strings"
)

// sourceExtensions is the search order spec §4.9's source-file discovery
// tries for an unqualified `with`-name.
var sourceExtensions = []string{".ada", ".adb", ".ads"}

// Resolver finds the source (and sibling .ali, if present) for a
// `with`-referenced unit name, searching the directory of the
// compilation's input file first and then each -I directory in order
// (spec §6 "Source-file discovery").
type Resolver struct {
	InputDir    string
	IncludeDirs []string
}

// NewResolver builds a Resolver for a compilation rooted at inputFile,
// with includeDirs given in the order their -I flags appeared.
func NewResolver(inputFile string, includeDirs []string) *Resolver {
	return &Resolver{InputDir: filepath.Dir(inputFile), IncludeDirs: includeDirs}
}

// Resolution is what Resolve finds for one unit name.
type Resolution struct {
	SourcePath string
	ALIPath    string // Empty if no matching .ali exists.
}

func (r *Resolver) searchDirs() []string {
	dirs := make([]string, 0, len(r.IncludeDirs)+1)
	dirs = append(dirs, r.InputDir)
	dirs = append(dirs, r.IncludeDirs...)
	return dirs
}

// Resolve searches for unitName (e.g. "Ada.Text_IO", case-insensitively
// lowered and dot-joined the way Ada unit names map to file names) and
// returns its source path plus a sibling .ali path if one exists.
func (r *Resolver) Resolve(unitName string) (Resolution, bool) {
	lowered := strings.ToLower(unitName)

	for _, dir := range r.searchDirs() {
		for _, ext := range sourceExtensions {
			candidate := filepath.Join(dir, lowered+ext)
			if fileExists(candidate) {
				res := Resolution{SourcePath: candidate}
				aliCandidate := filepath.Join(dir, lowered+".ali")
				if fileExists(aliCandidate) {
					res.ALIPath = aliCandidate
				}
				return res, true
			}
		}
	}
	return Resolution{}, false
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
