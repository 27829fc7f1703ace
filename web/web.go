// Package web holds the embedded single-page dashboard. The server only
// serves the bytes; all chart layout lives in the page itself.
package web

import (
	"embed"
	"io/fs"
)

//go:embed index.html
var files embed.FS

// FS returns the embedded dashboard filesystem.
func FS() fs.FS {
	return files
}
