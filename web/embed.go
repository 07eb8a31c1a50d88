// Package web provides the embedded static assets served at /static/.
package web

import "embed"

// StaticFS embeds the web/static/ directory tree: the site stylesheet and
// anything else the templates link to.
//
//go:embed all:static
var StaticFS embed.FS
