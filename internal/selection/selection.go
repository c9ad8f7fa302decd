// Package selection decides which member of each duplicate group is kept.
//
// Every strategy scans a group's members in order and replaces its current
// choice only on a strictly better candidate, so ties go to the earliest
// member. Members keep enumeration order, which makes selections
// reproducible across runs over the same tree.
package selection

import (
	"fmt"
	"strings"

	"github.com/fenilsonani/dupsweep/internal/scanner"
)

// Strategy names a keep policy
type Strategy string

const (
	Newest          Strategy = "newest"
	Oldest          Strategy = "oldest"
	ShortestPath    Strategy = "shortest"
	PreferredFolder Strategy = "preferred"
)

// Strategies lists every supported strategy
var Strategies = []Strategy{Newest, Oldest, ShortestPath, PreferredFolder}

// ParseStrategy maps a name such as "newest" or "shortest-path" to a Strategy
func ParseStrategy(name string) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "newest":
		return Newest, nil
	case "oldest":
		return Oldest, nil
	case "shortest", "shortest-path", "shortest_path":
		return ShortestPath, nil
	case "preferred", "preferred-folder", "preferred_folder":
		return PreferredFolder, nil
	default:
		return "", fmt.Errorf("unknown keep strategy %q", name)
	}
}

// better reports whether candidate should replace current
type better func(candidate, current *scanner.FileRecord) bool

func (s Strategy) comparator(folder string) better {
	switch s {
	case Oldest:
		return func(c, cur *scanner.FileRecord) bool { return c.ModTime.Before(cur.ModTime) }
	case ShortestPath:
		return func(c, cur *scanner.FileRecord) bool { return len(c.Path) < len(cur.Path) }
	case PreferredFolder:
		needle := "/" + strings.ToLower(strings.Trim(folder, "/")) + "/"
		matches := func(r *scanner.FileRecord) bool {
			return needle != "//" && strings.Contains(strings.ToLower(r.Path), needle)
		}
		return func(c, cur *scanner.FileRecord) bool {
			cm, curm := matches(c), matches(cur)
			if cm != curm {
				return cm
			}
			return len(c.Path) > len(cur.Path)
		}
	default:
		return func(c, cur *scanner.FileRecord) bool { return c.ModTime.After(cur.ModTime) }
	}
}

// Apply marks exactly one member per group as kept and clears the rest.
// folder is only consulted by PreferredFolder.
func Apply(groups []*scanner.DuplicateGroup, strategy Strategy, folder string) {
	isBetter := strategy.comparator(folder)
	for _, g := range groups {
		if len(g.Files) == 0 {
			continue
		}
		best := 0
		for i := 1; i < len(g.Files); i++ {
			if isBetter(g.Files[i], g.Files[best]) {
				best = i
			}
		}
		for i, f := range g.Files {
			f.Kept = i == best
		}
	}
}

// SetKept marks fileID as the kept member of groupID. It reports whether
// both were found; nothing changes otherwise.
func SetKept(groups []*scanner.DuplicateGroup, groupID, fileID string) bool {
	for _, g := range groups {
		if g.ID != groupID {
			continue
		}
		found := false
		for _, f := range g.Files {
			if f.ID == fileID {
				found = true
				break
			}
		}
		if !found {
			return false
		}
		for _, f := range g.Files {
			f.Kept = f.ID == fileID
		}
		return true
	}
	return false
}

// FilesToRemove returns every non-kept member across groups, in group order
func FilesToRemove(groups []*scanner.DuplicateGroup) []*scanner.FileRecord {
	var out []*scanner.FileRecord
	for _, g := range groups {
		out = append(out, g.FilesToRemove()...)
	}
	return out
}
