package gate

import (
	"sync"

	"go.uber.org/atomic"
)

// State is the render state of the client shell for the current path.
type State int

const (
	StateChecking State = iota
	StateAuthorized
	StateRedirecting
)

func (s State) String() string {
	switch s {
	case StateAuthorized:
		return "authorized"
	case StateRedirecting:
		return "redirecting"
	default:
		return "checking"
	}
}

// MarshalText lets the state travel as its name in JSON payloads.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// AdminShell is the nested gate of the admin-rendered shell. It only checks the
// role: anonymous and non-admin visitors both land on the unauthorized page.
func (t *Table) AdminShell(p string, id *Identity) Decision {
	route := t.Classify(p)
	if !id.IsAdmin() {
		return redirect(route, UnauthorizedPath, ReasonRoleMismatch)
	}
	return forward(route, ReasonAllowed)
}

// Client evaluates a client-side navigation with the same classification the
// edge uses. Generic paths additionally require an identity.
func (t *Table) Client(p string, id *Identity) Decision {
	route := t.Classify(p)

	if id != nil && t.IsAuthEntry(route.Path) {
		return redirect(route, LandingFor(id), ReasonAlreadySignedIn)
	}

	switch route.Kind {
	case KindPublic:
		return forward(route, ReasonPublic)
	case KindRoleRestricted:
		return t.AdminShell(route.Path, id)
	case KindRoleExcluded:
		return t.Edge(route.Path, id)
	default:
		if id == nil {
			return redirect(route, LoginPath, ReasonMissingIdentity)
		}
		return forward(route, ReasonAllowed)
	}
}

// Ticket identifies one path change. Only the ticket of the latest change can
// move the navigator out of the checking state.
type Ticket struct {
	Seq  uint64
	Path string
}

// Snapshot is the observable render state of a navigator.
type Snapshot struct {
	Seq      uint64 `json:"seq"`
	Path     string `json:"path"`
	State    State  `json:"state"`
	Location string `json:"location,omitempty"`
	Reason   Reason `json:"reason,omitempty"`
}

// Navigator tracks the client gate of one shell instance (one browser tab).
type Navigator struct {
	table *Table

	// OnRedirect, if set, performs the client-side navigation. It is called at
	// most once per path change.
	OnRedirect func(location string)

	latest atomic.Uint64

	mu   sync.Mutex
	snap Snapshot
}

// NewNavigator creates a navigator in the checking state for no path.
func NewNavigator(table *Table) *Navigator {
	return &Navigator{table: table}
}

// Begin registers a path change with the caller's sequence number and enters
// the checking state. A sequence not newer than the latest one yields a ticket
// that Resolve will discard.
func (n *Navigator) Begin(seq uint64, p string) Ticket {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.begin(seq, Normalize(p))
}

// Next registers a path change using the next sequence number.
func (n *Navigator) Next(p string) Ticket {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.begin(n.latest.Load()+1, Normalize(p))
}

// Latest returns the newest sequence number seen.
func (n *Navigator) Latest() uint64 {
	return n.latest.Load()
}

func (n *Navigator) begin(seq uint64, p string) Ticket {
	ticket := Ticket{Seq: seq, Path: p}
	if seq <= n.latest.Load() {
		return ticket
	}
	n.latest.Store(seq)
	n.snap = Snapshot{Seq: seq, Path: p, State: StateChecking}
	return ticket
}

// Resolve applies the decision for ticket. It returns false, leaving the
// render state untouched, if the ticket was superseded or already decided.
func (n *Navigator) Resolve(ticket Ticket, id *Identity) (Snapshot, bool) {
	n.mu.Lock()
	if ticket.Seq != n.snap.Seq || ticket.Path != n.snap.Path || n.snap.State != StateChecking {
		snap := n.snap
		n.mu.Unlock()
		return snap, false
	}

	decision := n.table.Client(ticket.Path, id)
	n.snap.Reason = decision.Reason
	if decision.Allowed() {
		n.snap.State = StateAuthorized
	} else {
		n.snap.State = StateRedirecting
		n.snap.Location = decision.Location
	}
	snap := n.snap
	n.mu.Unlock()

	if snap.State == StateRedirecting && n.OnRedirect != nil {
		n.OnRedirect(snap.Location)
	}
	return snap, true
}

// Snapshot returns the current render state.
func (n *Navigator) Snapshot() Snapshot {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.snap
}
