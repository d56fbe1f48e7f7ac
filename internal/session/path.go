package session

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

// DefaultVolume is the root-volume marker prefixed to route paths
const DefaultVolume = "C:"

var volumePattern = regexp.MustCompile(`^[A-Za-z]:`)

// ResolveRoutePath turns a route segment into the document path shown in the
// UI: percent-decoded, forward slashes, a single leading separator after the
// volume marker and no repeated separators. A route that already names a
// volume keeps it.
func ResolveRoutePath(route, volume string) (string, error) {
	if volume == "" {
		volume = DefaultVolume
	}

	decoded, err := url.PathUnescape(route)
	if err != nil {
		return "", fmt.Errorf("invalid document path %q: %w", route, err)
	}

	p := strings.ReplaceAll(decoded, "\\", "/")
	if m := volumePattern.FindString(p); m != "" {
		volume = strings.ToUpper(m)
		p = p[len(m):]
	}

	for strings.Contains(p, "//") {
		p = strings.ReplaceAll(p, "//", "/")
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return volume + p, nil
}

// Title returns the window title for a document path
func Title(path string) string {
	return "Ferrum - " + path
}
