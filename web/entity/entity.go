// Package entity defines the data structures exchanged by the storefront web layer.
package entity

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/offerly/storefront/web/gate"
)

// Msg represents a standard API response message with success status, message text, and optional data object.
type Msg struct {
	Success bool   `json:"success"`
	Msg     string `json:"msg"`
	Obj     any    `json:"obj"`
}

// Viewer is the identity as exposed to templates and shell payloads.
type Viewer struct {
	Role         gate.Role `json:"role"`
	IsSuperAdmin bool      `json:"isSuperAdmin"`
	IsVerify     bool      `json:"isVerify"`
}

// Crumb is one breadcrumb entry.
type Crumb struct {
	Title string `json:"title"`
	Path  string `json:"path"`
}

// AppContext is the per-request application state handed to the shell. It is
// rebuilt from the request on every render and never shared between requests.
type AppContext struct {
	Viewer            *Viewer `json:"viewer"`
	Location          string  `json:"location"`
	Breadcrumbs       []Crumb `json:"breadcrumbs"`
	NotificationCount int     `json:"notificationCount"`
	Shell             string  `json:"shell"`
}

// IsAuthenticated reports whether a viewer identity is present.
func (a *AppContext) IsAuthenticated() bool {
	return a.Viewer != nil
}

// NewAppContext builds the context for path as seen by id (nil for anonymous).
func NewAppContext(path string, id *gate.Identity, notifications int) *AppContext {
	path = gate.Normalize(path)
	ctx := &AppContext{
		Location:          path,
		Breadcrumbs:       Breadcrumbs(path),
		NotificationCount: notifications,
		Shell:             "storefront",
	}
	if id != nil {
		ctx.Viewer = &Viewer{Role: id.Role, IsSuperAdmin: id.IsSuperAdmin, IsVerify: id.IsVerify}
	}
	if path == "/admin" || strings.HasPrefix(path, "/admin/") {
		ctx.Shell = "admin"
	} else if id != nil && id.Role == gate.RoleBusinessOwner {
		ctx.Shell = "owner"
	}
	return ctx
}

// Breadcrumbs derives the trail for path, one crumb per segment.
func Breadcrumbs(path string) []Crumb {
	crumbs := []Crumb{{Title: "Home", Path: "/"}}
	if path == "/" {
		return crumbs
	}
	prefix := ""
	for _, segment := range strings.Split(strings.Trim(path, "/"), "/") {
		prefix += "/" + segment
		crumbs = append(crumbs, Crumb{Title: titleOf(segment), Path: prefix})
	}
	return crumbs
}

func titleOf(segment string) string {
	words := strings.Split(segment, "-")
	for i, w := range words {
		if r, size := utf8.DecodeRuneInString(w); r != utf8.RuneError {
			words[i] = string(unicode.ToUpper(r)) + w[size:]
		}
	}
	return strings.Join(words, " ")
}
