package client

import "strings"

// MediaURL resolves a media path returned by the backend (for example a part
// image) for display. Absolute URLs are returned unchanged, other paths are
// resolved against the API origin. With a relative base URL the path is
// returned as is.
func (c *Client) MediaURL(path string) string {
	return ResolveMediaURL(c.origin, path)
}

// ResolveMediaURL resolves path against origin ("scheme://host").
func ResolveMediaURL(origin, path string) string {
	if path == "" {
		return ""
	}
	if strings.HasPrefix(path, "http") || origin == "" {
		return path
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return origin + path
}
