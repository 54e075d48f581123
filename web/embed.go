package web

import "embed"

// Static embeds the public tree served at the site root.
//
//go:embed static
var Static embed.FS
