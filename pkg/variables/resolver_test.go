package variables_test

import (
	"testing"

	"github.com/aretw0/chatflow/pkg/domain"
	"github.com/aretw0/chatflow/pkg/variables"
	"github.com/stretchr/testify/assert"
)

func TestResolve(t *testing.T) {
	contact := domain.Contact{Name: "Sam", Phone: "+55 (11) 98765-4321"}
	vars := map[string]string{"order": "A-17", "name": "Samantha"}

	tests := []struct {
		name     string
		template string
		vars     map[string]string
		want     string
	}{
		{"no placeholders", "Hello there", vars, "Hello there"},
		{"conversation variable", "Order {{var.order}} shipped", vars, "Order A-17 shipped"},
		{"variables shadow contact", "Hi {{var.name}}", vars, "Hi Samantha"},
		{"contact name", "Welcome {{var.name}}", nil, "Welcome Sam"},
		{"full phone", "{{var.contact}}", nil, "+55 (11) 98765-4321"},
		{"short phone", "{{var.phoneShort}}", nil, "1987654321"},
		{"unknown left verbatim", "Hi {{var.nmae}}!", nil, "Hi {{var.nmae}}!"},
		{"inner whitespace", "Hi {{ var.name }}", nil, "Hi Sam"},
		{"not a var placeholder", "Total {{price}}", nil, "Total {{price}}"},
		{"repeated", "{{var.order}}/{{var.order}}", vars, "A-17/A-17"},
		{"empty value is a value", "[{{var.blank}}]", map[string]string{"blank": ""}, "[]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, variables.Resolve(tt.template, tt.vars, contact))
		})
	}
}

func TestResolve_Idempotent(t *testing.T) {
	vars := map[string]string{"x": "{{var.y}}", "y": "deep"}
	tpl := "a {{var.x}} b {{var.missing}}"

	first := variables.Resolve(tpl, vars, domain.Contact{})
	second := variables.Resolve(tpl, vars, domain.Contact{})

	assert.Equal(t, first, second)
	assert.Equal(t, "a {{var.y}} b {{var.missing}}", first)

	plain := "nothing to see"
	assert.Equal(t, plain, variables.Resolve(plain, vars, domain.Contact{}))
}

func TestContactVars(t *testing.T) {
	t.Run("name falls back to phone", func(t *testing.T) {
		v := variables.ContactVars(domain.Contact{Phone: "5511987654321"})
		assert.Equal(t, "5511987654321", v["name"])
		assert.Equal(t, "1987654321", v["phoneShort"])
	})
	t.Run("empty contact resolves nothing", func(t *testing.T) {
		assert.Empty(t, variables.ContactVars(domain.Contact{}))
		assert.Equal(t, "Hi {{var.name}}", variables.Resolve("Hi {{var.name}}", nil, domain.Contact{}))
	})
	t.Run("short numbers are kept whole", func(t *testing.T) {
		assert.Equal(t, "12345", variables.ShortPhone("12-345"))
	})
}

func TestPlaceholders(t *testing.T) {
	got := variables.Placeholders("{{var.a}} {{var.b}} {{var.a}} {{other}}")
	assert.Equal(t, []string{"a", "b"}, got)
}
