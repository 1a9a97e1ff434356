/*
Package blade turns spoken or typed phrases into intents and dispatches them to a 3D host application.

Intents are plain records kept in a user-editable list (YAML by default). Each one carries the phrases that
trigger it and an operator: either a host command ("mesh.primitive_cube_add") or a state path rooted at
"context." or "data." ("context.object.active_material.diffuse_color").

# Concept

A run goes through a fixed sequence of steps:

	RESOLVE -> VALIDATE -> ENRICH -> INJECT_PENDING -> DISPATCH (or DRY_RUN)

Resolution matches the phrase exactly first, then fuzzily above a threshold. Dispatch goes through the
pipeline manager (render, material, default) and the executor, which tries the resolver and then the
intent's own fallbacks ("op" and "direct"), repairing the host context between passes. Enrichment and
pending injection are side channels: their failures are logged and never change the verdict of a run.

# Key Features

  - Hexagonal Architecture: the host, the intent source and the stores are ports with swappable adapters.
  - Tolerant configuration: unknown keys survive a rewrite, malformed entries are skipped.
  - No arbitrary code: operators are looked up in the host registry or walked as state paths.
  - Observability: lifecycle hooks for match, execution and run events.

# Usage

	src := file.NewIntentFile("intents.yaml")
	eng, err := blade.New(src, host, blade.WithLogger(logger))
	if err != nil {
		log.Fatal(err)
	}

	rep := eng.RunDetailed(ctx, domain.NewRunRequest("ajoute un cube"))
	fmt.Println(rep.OK, rep.Reason)

The engine assumes it is called from the goroutine that owns the host. Use runner.Queue to hand phrases
over from other goroutines.
*/
package blade
