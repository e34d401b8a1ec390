package dto

import (
	"spareparts/internal/core/id"
	"spareparts/internal/infrastructure/mockapi"
)

// LoginRequest for user login.
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// UserResponse is the identity payload. Site fields are null for users
// without a site.
type UserResponse struct {
	ID              id.ID   `json:"id"`
	Username        string  `json:"username"`
	Email           string  `json:"email"`
	Site            *string `json:"site"`
	SiteID          *id.ID  `json:"site_id"`
	CanEditOwnSite  bool    `json:"can_edit_own_site"`
	CanViewAllSites bool    `json:"can_view_all_sites"`
	CanManageUsers  bool    `json:"can_manage_users"`
}

// FromUser converts an account; siteName is "" when the user has no site.
func FromUser(u *mockapi.User, siteName string) UserResponse {
	resp := UserResponse{
		ID:              u.ID,
		Username:        u.Username,
		Email:           u.Email,
		CanEditOwnSite:  u.CanEditOwnSite,
		CanViewAllSites: u.CanViewAllSites,
		CanManageUsers:  u.CanManageUsers,
	}
	if !u.SiteID.IsNil() {
		siteID := u.SiteID
		resp.SiteID = &siteID
		resp.Site = &siteName
	}
	return resp
}

// MessageResponse is a bare confirmation.
type MessageResponse struct {
	Message string `json:"message"`
}
