package main

import (
	"fmt"
	"net/url"
	"path/filepath"

	"github.com/KarpelesLab/cdcfs"
)

// splitStoreURL parses a "<store-url>/<name>" command argument into the
// store's root directory and the image name. Accepted schemes are empty and
// "file"; a non-empty host component is rejected outright rather than
// silently ignored, per the expanded specification's resolution of that
// open question.
func splitStoreURL(arg string) (storeRoot, name string, err error) {
	u, err := url.Parse(arg)
	if err != nil {
		return "", "", fmt.Errorf("cdcfs: invalid store url %q: %w", arg, err)
	}
	if u.Scheme != "" && u.Scheme != "file" {
		return "", "", fmt.Errorf("%w: scheme %q", cdcfs.ErrUnsupportedURL, u.Scheme)
	}
	if u.Host != "" {
		return "", "", fmt.Errorf("%w: host %q", cdcfs.ErrUnsupportedURL, u.Host)
	}

	path := u.Path
	if path == "" {
		path = u.Opaque
	}
	if path == "" {
		return "", "", fmt.Errorf("%w: empty path", cdcfs.ErrUnsupportedURL)
	}

	return filepath.Dir(path), filepath.Base(path), nil
}
