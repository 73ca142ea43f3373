package graph_test

import (
	"strings"
	"testing"

	"github.com/aretw0/chatflow/internal/presentation/graph"
	"github.com/aretw0/chatflow/pkg/domain"
)

func flowOf(nodes []domain.Node, edges ...domain.Edge) *domain.Flow {
	return &domain.Flow{Name: "test", Nodes: nodes, Edges: edges}
}

func TestGenerateMermaid(t *testing.T) {
	tests := []struct {
		name     string
		flow     *domain.Flow
		contains []string
	}{
		{
			name: "Trigger Node Shape",
			flow: flowOf([]domain.Node{
				{ID: "start", Data: domain.TriggerData{Keyword: "order"}},
			}),
			contains: []string{
				`start(("start <br/> keyword: order"))`,
			},
		},
		{
			name: "Choice Node Shapes",
			flow: flowOf([]domain.Node{
				{ID: "menu", Data: domain.ButtonsData{Text: "Pick", Buttons: []string{"A"}}},
				{ID: "catalog", Data: domain.ListData{Text: "Browse", ButtonText: "View", Items: []string{"A"}}},
			}),
			contains: []string{
				`menu{{"menu <br/> Pick"}}`,
				`catalog{{"catalog <br/> Browse"}}`,
			},
		},
		{
			name: "Input, Condition and Agent Shapes",
			flow: flowOf([]domain.Node{
				{ID: "q1", Data: domain.AskTextData{Text: "Name?"}},
				{ID: "check", Data: domain.ConditionData{Field: "message", Operator: "contains", Value: "yes"}},
				{ID: "human", Data: domain.AgentData{}},
			}),
			contains: []string{
				`q1[/"q1 <br/> Name?"/]`,
				`check{"check <br/> message contains 'yes'"}`,
				`human[["human <br/> human agent"]]`,
			},
		},
		{
			name: "ID Sanitization",
			flow: flowOf([]domain.Node{
				{ID: "path/to/file.md", Data: domain.MessageData{Text: "hi"}},
				{ID: "hyphen-ated", Data: domain.MessageData{Text: "hi"}},
			}),
			contains: []string{
				`path_to_file_md["path/to/file.md <br/> hi"]`,
				`hyphen_ated["hyphen-ated <br/> hi"]`,
			},
		},
		{
			name: "Edge Labels",
			flow: flowOf([]domain.Node{
				{ID: "menu", Data: domain.ButtonsData{Text: "Pick", Buttons: []string{`Say "yes"`, "No"}}},
				{ID: "check", Data: domain.ConditionData{Field: "message", Operator: "equals", Value: "x"}},
				{ID: "done", Data: domain.MessageData{Text: "bye"}},
			},
				domain.Edge{ID: "e1", Source: "menu", Target: "check", SourceHandle: "handle-0"},
				domain.Edge{ID: "e2", Source: "check", Target: "done", SourceHandle: "true"},
				domain.Edge{ID: "e3", Source: "menu", Target: "done", SourceHandle: "handle-1"},
			),
			contains: []string{
				`menu -- "Say 'yes'" --> check`,
				`check -- "true" --> done`,
				`menu -- "No" --> done`,
			},
		},
		{
			name: "Long Text Truncation",
			flow: flowOf([]domain.Node{
				{ID: "m", Data: domain.MessageData{Text: strings.Repeat("word ", 20)}},
			}),
			contains: []string{"…\"]"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := graph.GenerateMermaid(tt.flow, nil)
			for _, want := range tt.contains {
				if !strings.Contains(got, want) {
					t.Errorf("GenerateMermaid() = \n%v\nWant substring: %v", got, want)
				}
			}
			if strings.Contains(got, "classDef") {
				t.Errorf("GenerateMermaid() without overlay should not emit styles")
			}
		})
	}
}

func TestGenerateMermaid_Overlay(t *testing.T) {
	f := flowOf([]domain.Node{
		{ID: "start", Data: domain.TriggerData{Keyword: "hi"}},
		{ID: "menu", Data: domain.ButtonsData{Text: "Pick", Buttons: []string{"A"}}},
	}, domain.Edge{ID: "e1", Source: "start", Target: "menu"})

	pos := domain.NewPosition("c1", "", "test", "menu")
	pos.History = []string{"start", "menu", "start", "removed"}

	got := graph.GenerateMermaid(f, graph.OverlayFor(pos))
	for _, want := range []string{"class start visited;", "class menu current;"} {
		if !strings.Contains(got, want) {
			t.Errorf("GenerateMermaid() = \n%v\nWant substring: %v", got, want)
		}
	}
	if strings.Count(got, "class start visited;") != 1 {
		t.Errorf("visited nodes should be deduplicated")
	}
	if strings.Contains(got, "removed") {
		t.Errorf("nodes missing from the flow should not be styled")
	}
	if graph.OverlayFor(nil) != nil {
		t.Errorf("OverlayFor(nil) should be nil")
	}
}
