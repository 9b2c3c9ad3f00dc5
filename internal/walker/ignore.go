package walker

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// ignoreFileNames are read in order; later files win on conflicting rules.
var ignoreFileNames = []string{".gitignore", ".ignore"}

// ignoreRule is one line of an ignore file, relative to the file's directory.
type ignoreRule struct {
	glob     string
	negate   bool
	dirOnly  bool
	anchored bool
}

// ignoreSet holds the rules of every ignore file found in one directory.
type ignoreSet struct {
	rules []ignoreRule
}

// loadIgnoreSet reads the ignore files of dir. It returns nil when dir has none.
func loadIgnoreSet(dir string) (*ignoreSet, error) {
	var set ignoreSet
	for _, name := range ignoreFileNames {
		f, err := os.Open(filepath.Join(dir, name))
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return nil, err
		}
		sc := bufio.NewScanner(f)
		for sc.Scan() {
			if r, ok := parseIgnoreLine(sc.Text()); ok {
				set.rules = append(set.rules, r)
			}
		}
		err = sc.Err()
		_ = f.Close()
		if err != nil {
			return nil, err
		}
	}
	if len(set.rules) == 0 {
		return nil, nil
	}
	return &set, nil
}

// parseIgnoreLine compiles one line of gitignore syntax.
func parseIgnoreLine(line string) (ignoreRule, bool) {
	escapedSpace := strings.HasSuffix(line, `\ `)
	line = strings.TrimRight(line, " \t\r")
	if escapedSpace {
		line = strings.TrimSuffix(line, `\`) + " "
	}
	if line == "" || strings.HasPrefix(line, "#") {
		return ignoreRule{}, false
	}

	var r ignoreRule
	switch {
	case strings.HasPrefix(line, `\#`), strings.HasPrefix(line, `\!`):
		line = line[1:]
	case strings.HasPrefix(line, "!"):
		r.negate = true
		line = line[1:]
	}

	if strings.HasSuffix(line, "/") {
		r.dirOnly = true
		line = strings.TrimRight(line, "/")
	}
	// A slash anywhere but the end ties the pattern to the ignore file's directory.
	if strings.Contains(line, "/") {
		r.anchored = true
		line = strings.TrimPrefix(line, "/")
	}
	if line == "" || !doublestar.ValidatePattern(line) {
		return ignoreRule{}, false
	}
	r.glob = line
	return r, true
}

// match reports whether rel (slash separated, relative to the ignore file's
// directory) is decided by this set and, if so, whether it is ignored.
// The last matching rule wins.
func (s *ignoreSet) match(rel string, isDir bool) (ignored, decided bool) {
	base := rel
	if i := strings.LastIndexByte(rel, '/'); i >= 0 {
		base = rel[i+1:]
	}
	for _, r := range s.rules {
		if r.dirOnly && !isDir {
			continue
		}
		subject := base
		if r.anchored {
			subject = rel
		}
		if ok, _ := doublestar.Match(r.glob, subject); ok {
			ignored, decided = !r.negate, true
		}
	}
	return ignored, decided
}
