// Package web embeds the static admin shell and public pages.
package web

import "embed"

//go:embed static
var StaticFiles embed.FS
