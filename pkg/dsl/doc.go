/*
Package dsl provides a fluent builder for constructing conversation flows in Go.

It is an alternative to hand-writing flow records in JSON or YAML, useful for
tests, fixtures and flows generated at runtime. Edge ids are generated; node
ids are chosen by the caller.

Example usage:

	b := dsl.New("orders").Active()

	b.Add("start").Trigger("order").Go("menu")

	b.Add("menu").
		Buttons("What do you need?", "Track", "Talk to us").
		SaveTo("choice").
		Option(0, "track").
		Option(1, "human")

	b.Add("track").Message("Tracking for {{var.name}} is on its way.")
	b.Add("human").Agent()

	flow, err := b.Build()
*/
package dsl
