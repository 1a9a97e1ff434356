package blade_test

import (
	"context"
	"fmt"
	"log"

	"github.com/aretw0/blade"
	"github.com/aretw0/blade/pkg/adapters/memory"
	"github.com/aretw0/blade/pkg/domain"
)

// ExampleNew shows a phrase resolved and dispatched against the in-memory host.
func ExampleNew() {
	host := memory.NewHost()
	src := memory.NewSource(domain.Intent{
		Name:     "add_cube",
		Phrases:  []string{"ajoute un cube"},
		Operator: "mesh.primitive_cube_add",
	})

	eng, err := blade.New(src, host)
	if err != nil {
		log.Fatal(err)
	}

	rep := eng.RunDetailed(context.Background(), domain.NewRunRequest("Ajoute un cube"))
	fmt.Println(rep.OK, rep.Reason, rep.Result.Stage)
	fmt.Println(host.Invocations)
	// Output:
	// true ok resolver
	// [mesh.primitive_cube_add]
}

// ExampleEngine_Match shows a near miss: no intent, but the best score is kept.
func ExampleEngine_Match() {
	src := memory.NewSource(domain.Intent{Name: "add_cube", Phrases: []string{"ajoute un cube"}, Operator: "mesh.primitive_cube_add"})
	eng, err := blade.New(src, memory.NewHost())
	if err != nil {
		log.Fatal(err)
	}

	m := eng.Match(context.Background(), "xyzzy")
	fmt.Println(m.Matched(), m.Stage)
	// Output:
	// false none
}
