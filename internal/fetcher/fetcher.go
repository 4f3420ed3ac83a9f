// Package fetcher loads record files from disk or over HTTP and parses their
// tabular formats.
package fetcher

import (
	"context"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
)

// Format is a record file encoding, chosen by extension.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// Downloader fetches a remote file.
type Downloader interface {
	Download(ctx context.Context, rawURL string) ([]byte, error)
}

// FormatOf maps a path or URL to its format by extension.
func FormatOf(location string) (Format, error) {
	p := location
	if IsURL(location) {
		u, err := url.Parse(location)
		if err != nil {
			return "", eris.Wrap(err, "fetcher: parse url")
		}
		p = path.Base(u.Path)
	}

	switch ext := strings.ToLower(filepath.Ext(p)); ext {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".csv":
		return FormatCSV, nil
	case ".xlsx":
		return FormatXLSX, nil
	default:
		return "", eris.Errorf("fetcher: unsupported file type %q", ext)
	}
}

// IsURL reports whether location is an http(s) URL.
func IsURL(location string) bool {
	return strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://")
}

// Load reads location, downloading it when it is a URL. d may be nil for
// local paths.
func Load(ctx context.Context, d Downloader, location string) ([]byte, error) {
	if IsURL(location) {
		if d == nil {
			return nil, eris.New("fetcher: no downloader for url")
		}
		return d.Download(ctx, location)
	}

	data, err := os.ReadFile(location)
	if err != nil {
		return nil, eris.Wrap(err, "fetcher: read file")
	}
	return data, nil
}
