/*
Package dsl provides a Go DSL for programmatically constructing Blade intent configurations.

It allows developers to declare intents with a fluent builder instead of a YAML file. This is
particularly useful for embedding Blade in another program, unit testing, and leveraging IDE
autocompletion/type-checking.

Example usage:

	b := dsl.New()

	b.Add("add_cube").
		Say("ajoute un cube", "crée un cube").
		Command("mesh.primitive_cube_add")

	b.Add("color_red").
		Say("mets en rouge").
		Set("context.object.active_material.diffuse_color", []any{1, 0, 0}).
		Normalize("color").
		Ensure("material_slot")

	// The result is a ports.IntentSource
	src, err := b.Build()
	// ... pass src to blade.New(...)
*/
package dsl
