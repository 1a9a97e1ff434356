/*
Package hostpath parses and walks dotted, bracketed paths into the host state tree.

A path starts at one of the permitted roots ("context" or "data") and is made
of attribute steps and index steps:

	context.object.active_material.diffuse_color
	data.materials['Blade.Red'].diffuse_color[0]
	data.objects["Cube"].location[2]

Paths are parsed by a small recursive-descent parser, never evaluated, so a
quoted key may contain dots or brackets. Walking the tree only uses the narrow
ports.Node and ports.Container capabilities of the host values.
*/
package hostpath
