// Package web embeds the page templates and static assets.
package web

import "embed"

// FS holds template/*.html, template/partials/*.html and static/.
//
//go:embed template/*.html template/partials/*.html static/css/*.css static/js/*.js
var FS embed.FS
