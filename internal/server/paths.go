package server

import (
	"errors"
	"path/filepath"
	"regexp"
	"strings"
)

// ErrOutsideRoot is returned for request paths that escape the served directory
var ErrOutsideRoot = errors.New("path escapes the served root")

var volumePrefix = regexp.MustCompile(`^[A-Za-z]:`)

// resolve maps a back-slash request path such as `C:\docs\a.txt` onto a file
// below root.
func resolve(root, requestPath string) (string, error) {
	p := strings.ReplaceAll(requestPath, "\\", "/")
	p = volumePrefix.ReplaceAllString(p, "")

	for _, part := range strings.Split(p, "/") {
		if part == ".." {
			return "", ErrOutsideRoot
		}
	}

	cleaned := filepath.Clean("/" + p)
	full := filepath.Join(root, filepath.FromSlash(cleaned))

	rel, err := filepath.Rel(root, full)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", ErrOutsideRoot
	}
	return full, nil
}
