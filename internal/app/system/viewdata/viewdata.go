// internal/app/system/viewdata/viewdata.go
package viewdata

import (
	"net/http"

	"github.com/dalemusser/hrdesk/internal/app/system/auth"
	"github.com/dalemusser/hrdesk/internal/app/system/counts"
	"github.com/dalemusser/hrdesk/internal/app/system/sidebar"
)

// UserVM is the part of the session user that is safe to send to the
// browser. The access token is deliberately absent.
type UserVM struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// BaseVM contains common fields for all view models.
// Embed this struct in your feature-specific view models.
//
// Usage:
//
//	type myView struct {
//	    viewdata.BaseVM
//	    // page-specific fields...
//	}
//
//	base, ok := viewdata.NewBaseVM(r, "Page Title", state, sidebars)
type BaseVM struct {
	Title   string         `json:"title"`
	User    UserVM         `json:"user"`
	Counts  counts.State   `json:"counts"`
	Sidebar []sidebar.Item `json:"sidebar"`
}

// NewBaseVM builds the shared view model for the signed-in user, with the
// sidebar decorated from st. It returns false when there is no user or the
// user's role has no sidebar.
func NewBaseVM(r *http.Request, title string, st counts.State, sidebars *sidebar.Set) (BaseVM, bool) {
	u, ok := auth.CurrentUser(r)
	if !ok {
		return BaseVM{}, false
	}
	items, ok := sidebars.For(u.Role, st.Counts)
	if !ok {
		return BaseVM{}, false
	}
	return BaseVM{
		Title:   title,
		User:    UserVM{ID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role},
		Counts:  st,
		Sidebar: items,
	}, true
}
