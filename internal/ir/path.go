package ir

import "strings"

// PathSeparator joins path segments in String and ParsePath.
const PathSeparator = "/"

// Path addresses a module's sub-state by its keys from the root.
// The empty path is the root module.
type Path []string

// ParsePath splits "a/b/c" into a Path. Empty segments are dropped, so ""
// and "/" both yield the root path.
func ParsePath(s string) Path {
	var p Path
	for _, seg := range strings.Split(s, PathSeparator) {
		if seg != "" {
			p = append(p, seg)
		}
	}
	return p
}

// IsRoot reports whether p addresses the root.
func (p Path) IsRoot() bool {
	return len(p) == 0
}

// Parent returns p without its last segment. The parent of the root is the
// root.
func (p Path) Parent() Path {
	if len(p) == 0 {
		return nil
	}
	return p[:len(p)-1:len(p)-1]
}

// Last returns the final segment, or "" for the root.
func (p Path) Last() string {
	if len(p) == 0 {
		return ""
	}
	return p[len(p)-1]
}

// Child returns a new path with key appended. p is never modified.
func (p Path) Child(key string) Path {
	out := make(Path, len(p), len(p)+1)
	copy(out, p)
	return append(out, key)
}

// String renders the path as "a/b/c"; the root renders as "/".
func (p Path) String() string {
	if len(p) == 0 {
		return PathSeparator
	}
	return strings.Join(p, PathSeparator)
}
