// Package panel serves the dashboard page as an embedded asset.
//
// The page (HTML, script and stylesheet) is embedded into the binary with
// go:embed, so the dashboard has no runtime dependency on external files.
// Handler serves it with SPA fallback: unknown paths return index.html.
//
// Assets are sent with no-cache headers because they are not content-hashed.
package panel
