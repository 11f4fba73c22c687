// Package web embeds the page templates and static assets for single-binary distribution.
package web

import "embed"

// Templates holds the server-rendered HTML pages.
//
//go:embed templates/*.html
var Templates embed.FS

// Static holds the assets served under /_static/.
//
//go:embed all:static
var Static embed.FS
