package gate

// Action is what a gate tells the caller to do with the request.
type Action int

const (
	Forward Action = iota
	Redirect
)

func (a Action) String() string {
	if a == Redirect {
		return "redirect"
	}
	return "forward"
}

// Reason explains a decision; it is used for logging and diagnostics only.
type Reason string

const (
	ReasonPublic          Reason = "public"
	ReasonAllowed         Reason = "allowed"
	ReasonAlreadySignedIn Reason = "already_signed_in"
	ReasonMissingIdentity Reason = "missing_identity"
	ReasonRoleMismatch    Reason = "role_mismatch"
	ReasonAdminAsOwner    Reason = "admin_as_owner"
)

// Decision is the outcome of a gate evaluation.
type Decision struct {
	Action   Action `json:"-"`
	Location string `json:"location,omitempty"`
	Reason   Reason `json:"reason"`
	Route    Route  `json:"-"`
}

// Allowed reports whether the request may proceed to rendering.
func (d Decision) Allowed() bool {
	return d.Action == Forward
}

func forward(r Route, reason Reason) Decision {
	return Decision{Action: Forward, Reason: reason, Route: r}
}

func redirect(r Route, location string, reason Reason) Decision {
	return Decision{Action: Redirect, Location: location, Reason: reason, Route: r}
}

// LandingFor is where an identified visitor is sent away from the login form.
func LandingFor(id *Identity) string {
	if id.IsAdmin() {
		return AdminDashboardPath
	}
	return LandingPath
}

// Edge evaluates the per-request gate. A nil identity is anonymous. The
// decision depends only on its inputs and has no side effects.
func (t *Table) Edge(p string, id *Identity) Decision {
	route := t.Classify(p)

	if id != nil && t.IsAuthEntry(route.Path) {
		return redirect(route, LandingFor(id), ReasonAlreadySignedIn)
	}

	switch route.Kind {
	case KindPublic:
		return forward(route, ReasonPublic)
	case KindRoleRestricted:
		if id == nil {
			return redirect(route, LoginPath, ReasonMissingIdentity)
		}
		if id.Role != route.Role {
			return redirect(route, UnauthorizedPath, ReasonRoleMismatch)
		}
		return forward(route, ReasonAllowed)
	case KindRoleExcluded:
		if id == nil {
			return redirect(route, LoginPath, ReasonMissingIdentity)
		}
		if id.Role == route.Role {
			return redirect(route, AdminDashboardPath, ReasonAdminAsOwner)
		}
		return forward(route, ReasonAllowed)
	default:
		return forward(route, ReasonAllowed)
	}
}
