// Package webui exposes the embedded browser assets.
// It MUST live at the module root to embed the sibling "web/" and "loader/"
// directories. internal/server serves web/, internal/loader renders loader/.
package webui

import "embed"

// FS is the embedded asset tree.
// web/ holds the storefront single-page app (index.html is the SPA entry).
// loader/ holds the embed script template served at /embed.js.
//
//go:embed web loader
var FS embed.FS
