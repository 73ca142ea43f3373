package router_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aretw0/chatflow/pkg/domain"
	"github.com/aretw0/chatflow/pkg/router"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticSource struct {
	flows []*domain.Flow
	err   error
}

func (s staticSource) ListActive(ctx context.Context, tenant string) ([]*domain.Flow, error) {
	var out []*domain.Flow
	for _, f := range s.flows {
		if f.Tenant == tenant && f.IsActive {
			out = append(out, f)
		}
	}
	return out, s.err
}

func greeting(name, keyword string, updated time.Time) *domain.Flow {
	return &domain.Flow{
		Tenant:         "acme",
		Name:           name,
		TriggerKeyword: keyword,
		IsActive:       true,
		UpdatedAt:      updated,
		Nodes: []domain.Node{
			{ID: "t", Data: domain.TriggerData{Keyword: keyword}},
			{ID: "m", Data: domain.MessageData{Text: "Hello"}},
		},
		Edges: []domain.Edge{{ID: "e1", Source: "t", Target: "m"}},
	}
}

var t0 = time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

func TestRoute_CaseInsensitiveSubstring(t *testing.T) {
	r := router.New(staticSource{flows: []*domain.Flow{greeting("greet", "Hi", t0)}})

	f, err := r.Route(context.Background(), "acme", "oh HI there")
	require.NoError(t, err)
	assert.Equal(t, "greet", f.Name)

	_, err = r.Route(context.Background(), "acme", "hello")
	assert.ErrorIs(t, err, domain.ErrNoRoute)

	_, err = r.Route(context.Background(), "other", "hi")
	assert.ErrorIs(t, err, domain.ErrNoRoute, "routing is tenant scoped")
}

func TestRoute_MostRecentlyModifiedWins(t *testing.T) {
	a := greeting("a", "hi", t0)
	b := greeting("b", "hi", t0.Add(time.Minute))

	var got *domain.RoutingAmbiguity
	r := router.New(staticSource{flows: []*domain.Flow{a, b}},
		router.WithLifecycleHooks(domain.LifecycleHooks{
			OnRoutingAmbiguity: func(ctx context.Context, ev *domain.RoutingAmbiguity) { got = ev },
		}),
	)

	f, err := r.Route(context.Background(), "acme", "hi")
	require.NoError(t, err)
	assert.Equal(t, "b", f.Name)

	require.NotNil(t, got)
	assert.Equal(t, []string{"b", "a"}, got.Candidates)
	assert.Equal(t, "b", got.Selected)
	assert.Equal(t, domain.EventRoutingAmbiguity, got.Type)
}

func TestRoute_TiesBreakByName(t *testing.T) {
	r := router.New(staticSource{flows: []*domain.Flow{greeting("zeta", "hi", t0), greeting("alpha", "hi", t0)}})
	f, err := r.Route(context.Background(), "acme", "hi")
	require.NoError(t, err)
	assert.Equal(t, "alpha", f.Name)
}

func TestRoute_SkipsInvalidAndInactive(t *testing.T) {
	broken := greeting("broken", "hi", t0.Add(time.Hour))
	broken.Edges = append(broken.Edges, domain.Edge{ID: "e2", Source: "m", Target: "t"})

	inactive := greeting("inactive", "hi", t0.Add(2*time.Hour))
	inactive.IsActive = false

	blank := greeting("blank", "", t0.Add(3*time.Hour))

	ok := greeting("ok", "hi", t0)
	r := router.New(staticSource{flows: []*domain.Flow{broken, inactive, blank, ok}})

	f, err := r.Route(context.Background(), "acme", "hi")
	require.NoError(t, err)
	assert.Equal(t, "ok", f.Name)
}

func TestRoute_SourceError(t *testing.T) {
	boom := errors.New("boom")
	r := router.New(staticSource{err: boom})
	_, err := r.Route(context.Background(), "acme", "hi")
	assert.ErrorIs(t, err, boom)
}

func TestMatches(t *testing.T) {
	f := greeting("g", "  Order ", t0)
	assert.True(t, router.Matches(f, "my ORDER status"))
	assert.False(t, router.Matches(f, "ordre"))
	assert.False(t, router.Matches(greeting("g", "", t0), "anything"))
}
