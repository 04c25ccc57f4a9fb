// Package templates embeds the server-rendered pages.
package templates

import "embed"

//go:embed layouts/*.gohtml partials/*.gohtml pages/*.gohtml
var FS embed.FS
