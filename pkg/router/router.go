// Package router selects the active flow an inbound message starts.
package router

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/aretw0/chatflow/internal/logging"
	"github.com/aretw0/chatflow/pkg/domain"
	"github.com/aretw0/chatflow/pkg/ports"
	"github.com/aretw0/chatflow/pkg/validator"
)

// Router matches inbound text against the trigger keywords of a tenant's active flows.
type Router struct {
	source ports.ActiveFlowSource
	logger *slog.Logger
	hooks  domain.LifecycleHooks
	now    func() time.Time
}

// Option configures the Router.
type Option func(*Router)

// WithLogger configures a logger for the Router.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Router) {
		r.logger = logger
	}
}

// WithLifecycleHooks registers hooks. Only OnRoutingAmbiguity is used.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(r *Router) {
		r.hooks = hooks
	}
}

// New creates a Router reading flows from source.
func New(source ports.ActiveFlowSource, opts ...Option) *Router {
	r := &Router{
		source: source,
		logger: logging.NewNop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Matches reports whether text contains the flow's trigger keyword, ignoring case.
func Matches(f *domain.Flow, text string) bool {
	keyword := strings.TrimSpace(f.TriggerKeyword)
	if keyword == "" {
		return false
	}
	return strings.Contains(strings.ToLower(text), strings.ToLower(keyword))
}

// Route returns the active flow whose keyword text contains.
//
// Flows that fail validation are skipped. When several flows match, the most
// recently modified wins, then the lexically smallest name; the ambiguity is
// logged and reported through OnRoutingAmbiguity. Returns domain.ErrNoRoute
// when nothing matches.
func (r *Router) Route(ctx context.Context, tenant, text string) (*domain.Flow, error) {
	flows, err := r.source.ListActive(ctx, tenant)
	if err != nil {
		return nil, fmt.Errorf("list active flows: %w", err)
	}

	var candidates []*domain.Flow
	for _, f := range flows {
		if !f.IsActive || !Matches(f, text) {
			continue
		}
		if report := validator.Validate(f); report.HasErrors() {
			r.logger.Warn("Skipping active flow that fails validation",
				"tenant", tenant,
				"flow", f.Name,
				"err", report.Err(),
			)
			continue
		}
		candidates = append(candidates, f)
	}

	if len(candidates) == 0 {
		return nil, domain.ErrNoRoute
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if !a.UpdatedAt.Equal(b.UpdatedAt) {
			return a.UpdatedAt.After(b.UpdatedAt)
		}
		return a.Name < b.Name
	})

	selected := candidates[0]
	if len(candidates) > 1 {
		names := make([]string, len(candidates))
		for i, c := range candidates {
			names[i] = c.Name
		}
		r.logger.Warn("Several active flows match inbound message",
			"tenant", tenant,
			"candidates", names,
			"selected", selected.Name,
		)
		if r.hooks.OnRoutingAmbiguity != nil {
			r.hooks.OnRoutingAmbiguity(ctx, &domain.RoutingAmbiguity{
				EventBase: domain.EventBase{
					Timestamp: r.now(),
					Type:      domain.EventRoutingAmbiguity,
				},
				Tenant:     tenant,
				Text:       text,
				Candidates: names,
				Selected:   selected.Name,
			})
		}
	}
	return selected, nil
}
