package gate

import (
	"path"
	"regexp"
	"strings"
)

// Well-known paths the decision rules redirect to.
const (
	LoginPath          = "/login"
	UnauthorizedPath   = "/unauthorized"
	AdminDashboardPath = "/admin/dashboard"
	LandingPath        = "/"
)

// Kind tags the authorization policy of a path.
type Kind int

const (
	// KindAuthGeneric requires some identity, whatever its role.
	KindAuthGeneric Kind = iota
	// KindPublic is reachable by anyone, including anonymous visitors.
	KindPublic
	// KindRoleRestricted requires an identity holding exactly Route.Role.
	KindRoleRestricted
	// KindRoleExcluded admits any identity except one holding Route.Role.
	KindRoleExcluded
)

func (k Kind) String() string {
	switch k {
	case KindPublic:
		return "public"
	case KindRoleRestricted:
		return "role-restricted"
	case KindRoleExcluded:
		return "role-excluded"
	default:
		return "auth-gated-generic"
	}
}

// Route is the classification of a single path.
type Route struct {
	Path string
	Kind Kind
	Role Role
}

func (r Route) String() string {
	if r.Role == "" {
		return r.Kind.String()
	}
	return r.Kind.String() + "(" + string(r.Role) + ")"
}

// Table is the static routing table. It is never mutated after NewTable returns.
type Table struct {
	public      map[string]struct{}
	adminPrefix string
	owner       []string
	offerDetail *regexp.Regexp
}

// DefaultPublicPaths are the exact paths anyone may visit.
var DefaultPublicPaths = []string{
	"/",
	"/login",
	"/sign-up",
	"/about-us",
	"/terms-and-conditions",
	"/privacy-policy",
	"/contact-us",
	"/categories",
	"/forgot-password",
	"/reset-password",
	"/business-details",
	"/unauthorized",
}

// DefaultOwnerPaths are the business-owner areas; each covers its sub-paths.
var DefaultOwnerPaths = []string{
	"/dashboard",
	"/branches",
	"/offers",
	"/profile",
	"/promotions",
}

// NewTable builds the storefront routing table.
func NewTable() *Table {
	t := &Table{
		public:      make(map[string]struct{}, len(DefaultPublicPaths)),
		adminPrefix: "/admin",
		owner:       append([]string(nil), DefaultOwnerPaths...),
		offerDetail: regexp.MustCompile(`^/offers/[0-9]+$`),
	}
	for _, p := range DefaultPublicPaths {
		t.public[p] = struct{}{}
	}
	return t
}

// Normalize cleans a request path so that equivalent spellings classify the same.
func Normalize(p string) string {
	if p == "" {
		return "/"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return path.Clean(p)
}

// Classify returns the single classification of p. The admin subtree is checked
// before the pattern-based public rules so no admin path can become public.
func (t *Table) Classify(p string) Route {
	p = Normalize(p)
	if _, ok := t.public[p]; ok {
		return Route{Path: p, Kind: KindPublic}
	}
	if t.IsAdminSubtree(p) {
		return Route{Path: p, Kind: KindRoleRestricted, Role: RoleAdmin}
	}
	if strings.Contains(p+"/", "/user/") || t.offerDetail.MatchString(p) {
		return Route{Path: p, Kind: KindPublic}
	}
	if hasAnyPrefix(p, t.owner) {
		return Route{Path: p, Kind: KindRoleExcluded, Role: RoleAdmin}
	}
	return Route{Path: p, Kind: KindAuthGeneric}
}

// IsAuthEntry reports whether p is the path presenting the login form.
func (t *Table) IsAuthEntry(p string) bool {
	return Normalize(p) == LoginPath
}

// IsAdminSubtree reports whether p belongs to the admin console.
func (t *Table) IsAdminSubtree(p string) bool {
	p = Normalize(p)
	return p == t.adminPrefix || strings.HasPrefix(p, t.adminPrefix+"/")
}

// Describe lists the static table for diagnostics.
func (t *Table) Describe() []Route {
	routes := make([]Route, 0, len(DefaultPublicPaths)+len(t.owner)+3)
	for _, p := range DefaultPublicPaths {
		routes = append(routes, Route{Path: p, Kind: KindPublic})
	}
	routes = append(routes,
		Route{Path: "*/user/*", Kind: KindPublic},
		Route{Path: "/offers/<id>", Kind: KindPublic},
		Route{Path: t.adminPrefix + "/*", Kind: KindRoleRestricted, Role: RoleAdmin},
	)
	for _, p := range t.owner {
		routes = append(routes, Route{Path: p + "/*", Kind: KindRoleExcluded, Role: RoleAdmin})
	}
	return routes
}

func hasAnyPrefix(p string, prefixes []string) bool {
	for _, prefix := range prefixes {
		if p == prefix || strings.HasPrefix(p, prefix+"/") {
			return true
		}
	}
	return false
}
