package graph

// ResolvedNode is a node whose parameters have been evaluated.
type ResolvedNode struct {
	Op     Op
	Kind   Kind
	Args   []float64
	Input  *Resolved
	Output int
}

// Arg returns argument i, or zero when the node has fewer arguments.
func (n ResolvedNode) Arg(i int) float64 {
	if i < 0 || i >= len(n.Args) {
		return 0
	}
	return n.Args[i]
}

// Resolved is a chain with every parameter evaluated for one frame.
type Resolved struct {
	Nodes []ResolvedNode
}

// Resolve evaluates every parameter of the chain exactly once, depth first in
// declaration order, and returns the frozen result.
func (c *Chain) Resolve() *Resolved {
	if c == nil {
		return nil
	}
	out := &Resolved{Nodes: make([]ResolvedNode, len(c.nodes))}
	for i, n := range c.nodes {
		kind, _ := KindOf(n.Op)
		args := make([]float64, len(n.Args))
		for j, p := range n.Args {
			args[j] = p.Eval()
		}
		out.Nodes[i] = ResolvedNode{
			Op:     n.Op,
			Kind:   kind,
			Args:   args,
			Input:  n.Input.Resolve(),
			Output: n.Output,
		}
	}
	return out
}

// Params returns the number of leaf parameters in the chain, nested chains included.
func (c *Chain) Params() int {
	if c == nil {
		return 0
	}
	total := 0
	for _, n := range c.nodes {
		total += len(n.Args) + n.Input.Params()
	}
	return total
}

// Outputs returns the feedback outputs read anywhere in the chain.
func (c *Chain) Outputs() []int {
	if c == nil {
		return nil
	}
	var outs []int
	for _, n := range c.nodes {
		if n.Op == OpSrc {
			outs = append(outs, n.Output)
		}
		outs = append(outs, n.Input.Outputs()...)
	}
	return outs
}
