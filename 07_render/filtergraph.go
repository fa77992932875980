package render

import (
	"fmt"
	"strings"
)

// Stage is one node of a filter graph: the labels it consumes, a filter
// expression, and the label its output is bound to.
type Stage struct {
	Inputs []string
	Filter string
	Output string
}

// Graph accumulates named stages and serializes them into a single
// filter_complex script once the plan is complete. Labels are stored bare
// and bracketed only at serialization time.
type Graph struct {
	stages []Stage
}

// Add appends a stage and returns its output label so stages can be chained.
func (g *Graph) Add(inputs []string, filter, output string) string {
	g.stages = append(g.stages, Stage{Inputs: inputs, Filter: filter, Output: output})
	return output
}

// Chain appends a single-input stage reading from prev.
func (g *Graph) Chain(prev, filter, output string) string {
	return g.Add([]string{prev}, filter, output)
}

// Len reports the number of stages added so far.
func (g *Graph) Len() int {
	return len(g.stages)
}

// String renders the graph as an ffmpeg filter_complex script.
func (g *Graph) String() string {
	parts := make([]string, len(g.stages))
	for i, s := range g.stages {
		var b strings.Builder
		for _, in := range s.Inputs {
			fmt.Fprintf(&b, "[%s]", in)
		}
		b.WriteString(s.Filter)
		if s.Output != "" {
			fmt.Fprintf(&b, "[%s]", s.Output)
		}
		parts[i] = b.String()
	}
	return strings.Join(parts, ";")
}
