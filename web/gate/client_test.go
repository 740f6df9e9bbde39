package gate

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientDecisions(t *testing.T) {
	table := NewTable()

	tests := []struct {
		name     string
		path     string
		id       *Identity
		location string
	}{
		{"public anonymous", "/categories", anonymous, ""},
		{"generic anonymous", "/settings", anonymous, LoginPath},
		{"generic user", "/settings", user, ""},
		{"admin shell anonymous", "/admin/category", anonymous, UnauthorizedPath},
		{"admin shell owner", "/admin/category", owner, UnauthorizedPath},
		{"admin shell admin", "/admin/category", admin, ""},
		{"owner area admin", "/promotions", admin, AdminDashboardPath},
		{"owner area anonymous", "/promotions", anonymous, LoginPath},
		{"login identified", "/login", user, LandingPath},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := table.Client(tt.path, tt.id)
			assert.Equal(t, tt.location, d.Location)
			assert.Equal(t, tt.location == "", d.Allowed())
		})
	}
}

// The client gate may be stricter than the edge but must never admit what the
// edge rejects.
func TestClientAgreesWithEdge(t *testing.T) {
	table := NewTable()
	paths := []string{"/", "/login", "/categories", "/user/1", "/offers/5", "/offers", "/dashboard",
		"/admin", "/admin/category", "/settings", "/unauthorized"}
	for _, p := range paths {
		for _, id := range everyone {
			if !table.Edge(p, id).Allowed() {
				assert.False(t, table.Client(p, id).Allowed(), "path %s id %+v", p, id)
			}
		}
	}
}

func TestNavigatorChecksBeforeDeciding(t *testing.T) {
	nav := NewNavigator(NewTable())
	ticket := nav.Next("/dashboard")
	assert.Equal(t, StateChecking, nav.Snapshot().State)

	snap, applied := nav.Resolve(ticket, owner)
	require.True(t, applied)
	assert.Equal(t, StateAuthorized, snap.State)
	assert.Equal(t, "/dashboard", snap.Path)

	nav.Next("/admin/category")
	assert.Equal(t, StateChecking, nav.Snapshot().State)
}

func TestNavigatorDiscardsStaleDecision(t *testing.T) {
	nav := NewNavigator(NewTable())
	first := nav.Next("/settings")
	second := nav.Next("/categories")

	// The first check resolves late, after the second path change.
	snap, applied := nav.Resolve(first, anonymous)
	assert.False(t, applied)
	assert.Equal(t, StateChecking, snap.State)
	assert.Equal(t, "/categories", snap.Path)

	snap, applied = nav.Resolve(second, anonymous)
	assert.True(t, applied)
	assert.Equal(t, StateAuthorized, snap.State)
	assert.Equal(t, "/categories", snap.Path)
}

func TestNavigatorRejectsOutOfOrderBegin(t *testing.T) {
	nav := NewNavigator(NewTable())
	newer := nav.Begin(5, "/categories")
	older := nav.Begin(3, "/settings")

	_, applied := nav.Resolve(older, anonymous)
	assert.False(t, applied)
	assert.Equal(t, uint64(5), nav.Latest())

	snap, applied := nav.Resolve(newer, anonymous)
	assert.True(t, applied)
	assert.Equal(t, "/categories", snap.Path)
}

func TestNavigatorRedirectsOncePerPathChange(t *testing.T) {
	var redirects []string
	nav := NewNavigator(NewTable())
	nav.OnRedirect = func(location string) { redirects = append(redirects, location) }

	ticket := nav.Next("/admin/category")
	snap, applied := nav.Resolve(ticket, owner)
	require.True(t, applied)
	assert.Equal(t, StateRedirecting, snap.State)
	assert.Equal(t, UnauthorizedPath, snap.Location)

	// Re-render of the same path change.
	_, applied = nav.Resolve(ticket, owner)
	assert.False(t, applied)
	assert.Equal(t, []string{UnauthorizedPath}, redirects)

	ticket = nav.Next("/admin/category")
	nav.Resolve(ticket, owner)
	assert.Len(t, redirects, 2)
}

func TestNavigatorLatestWinsUnderConcurrency(t *testing.T) {
	nav := NewNavigator(NewTable())
	var wg sync.WaitGroup
	for i := uint64(1); i <= 50; i++ {
		wg.Add(1)
		go func(seq uint64) {
			defer wg.Done()
			ticket := nav.Begin(seq, "/settings")
			nav.Resolve(ticket, user)
		}(i)
	}
	wg.Wait()

	snap := nav.Snapshot()
	assert.Equal(t, uint64(50), nav.Latest())
	assert.Equal(t, uint64(50), snap.Seq)
}
