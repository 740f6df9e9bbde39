// Package gate implements the storefront access gate: identity decoding, route
// classification and the edge and client-shell authorization decisions.
package gate

import (
	"errors"
	"net/url"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"
)

// Role is one of the closed set of principal roles issued by the platform API.
type Role string

const (
	RoleUser          Role = "user"
	RoleBusinessOwner Role = "business_owner"
	RoleAdmin         Role = "admin"
)

var (
	// ErrMissingIdentity reports that no identity cookie was sent.
	ErrMissingIdentity = errors.New("identity cookie missing")
	// ErrMalformedIdentity reports a cookie that is present but not a valid identity record.
	ErrMalformedIdentity = errors.New("identity cookie malformed")
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Identity is the decoded principal carried by the identity cookie.
type Identity struct {
	Role         Role `json:"role" validate:"required,oneof=user business_owner admin"`
	IsSuperAdmin bool `json:"is_super_admin"`
	IsVerify     bool `json:"is_verify"`
}

// IsAdmin reports whether the identity holds the admin role.
func (i *Identity) IsAdmin() bool {
	return i != nil && i.Role == RoleAdmin
}

// DecodeIdentity parses a raw cookie value. A nil identity always comes with
// ErrMissingIdentity or ErrMalformedIdentity; callers treat both as anonymous.
func DecodeIdentity(raw string, present bool) (*Identity, error) {
	if !present {
		return nil, ErrMissingIdentity
	}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, ErrMalformedIdentity
	}
	var id Identity
	if err := json.Unmarshal([]byte(raw), &id); err != nil {
		// Cookies written by browser code are usually encodeURIComponent'd JSON.
		unescaped, uerr := url.QueryUnescape(raw)
		if uerr != nil || unescaped == raw {
			return nil, ErrMalformedIdentity
		}
		id = Identity{}
		if err := json.Unmarshal([]byte(unescaped), &id); err != nil {
			return nil, ErrMalformedIdentity
		}
	}
	if err := validate.Struct(&id); err != nil {
		return nil, ErrMalformedIdentity
	}

	// Flags only carry meaning for their own role.
	if id.Role != RoleAdmin {
		id.IsSuperAdmin = false
	}
	if id.Role != RoleUser {
		id.IsVerify = false
	}
	return &id, nil
}

// EncodeIdentity serializes an identity as the JSON the cookie carries.
func EncodeIdentity(id Identity) (string, error) {
	if err := validate.Struct(&id); err != nil {
		return "", err
	}
	data, err := json.Marshal(id)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
