package graph_test

import (
	"fmt"
	"strings"

	"github.com/matzehuels/landscape/pkg/graph"
)

func ExampleNew() {
	g, err := graph.New(4, []graph.Edge{
		{Source: 0, Target: 1, Weight: 0.9},
		{Source: 1, Target: 0, Weight: 0.9},
		{Source: 2, Target: 3, Weight: 0.4},
	}, true)
	if err != nil {
		fmt.Println("Error:", err)
		return
	}

	fmt.Println("edges:", g.EdgeCount())
	fmt.Println("components:", g.Components())
	// Output:
	// edges: 3
	// components: [[0 1] [2 3]]
}

func ExampleWriteEdges() {
	var sb strings.Builder
	_ = graph.WriteEdges([]graph.Edge{{Source: 0, Target: 1, Weight: 1}}, &sb)
	fmt.Print(sb.String())
	// Output:
	// {
	//   "edges": [
	//     {
	//       "source": 0,
	//       "target": 1,
	//       "weight": 1
	//     }
	//   ]
	// }
}
