// Package schema is the single source of truth for node payload shapes.
//
// Given a variant tag and an untyped payload (as produced by an editor or a
// decoded JSON/YAML record), Parse decodes it into the variant's typed
// payload and validates it, returning a domain.Node or a *SchemaError naming
// the missing or malformed field:
//
//	node, err := schema.Parse("menu", domain.VariantButtons, map[string]any{
//	    "text":    "How can we help?",
//	    "buttons": []any{"Track", "Cancel"},
//	})
//
// Typed nodes built in code are checked with ValidateNode, and whole flows
// with ValidateFlow. Multiple failures are returned as an *AggregateError.
package schema
