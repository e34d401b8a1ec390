// Package session holds who is signed in and which station they are looking
// at, and owns the login, logout and identity-refresh flows.
package session

import (
	"spareparts/internal/core/id"
)

// User is the identity returned by the identity endpoint. It is replaced
// wholesale, never edited.
type User struct {
	ID              id.ID  `json:"id"`
	Username        string `json:"username"`
	Email           string `json:"email"`
	Site            string `json:"site"`
	SiteID          id.ID  `json:"site_id,omitempty"`
	CanEditOwnSite  bool   `json:"can_edit_own_site"`
	CanViewAllSites bool   `json:"can_view_all_sites"`
	CanManageUsers  bool   `json:"can_manage_users"`
	Name            string `json:"name,omitempty"`
}

// Credentials are posted to the login endpoint.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResult is the login response. It carries tokens only, no profile.
type LoginResult struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh,omitempty"`
}

// ViewType tells whether the selected station is the user's own.
type ViewType string

const (
	ViewOwn   ViewType = "own"
	ViewOther ViewType = "other"
)
