package provisioning

import (
	"fmt"
	"sort"
	"strings"

	"github.com/imamik/vpcforge/internal/ledger"
)

// NodeState tracks where a node is in its lifecycle.
type NodeState string

// Node lifecycle states.
const (
	NodePlanned  NodeState = "planned"
	NodeCreating NodeState = "creating"
	NodeCreated  NodeState = "created"
	NodeFailed   NodeState = "failed"
)

// Result is what a successful create returns: the provider handle that goes
// into the ledger, plus optional attributes recorded alongside it.
type Result struct {
	Handle string
	Attrs  map[string]string
}

// Node is one resource in the dependency graph. Create runs once all
// dependencies are created; Adopt re-populates State from an existing
// ledger record when a re-run finds the resource already provisioned.
type Node struct {
	LogicalName string
	Kind        ledger.Kind
	DependsOn   []string
	Create      func(ctx *Context) (Result, error)
	Adopt       func(ctx *Context, rec ledger.Record)

	state NodeState
}

// State returns the node's current lifecycle state.
func (n *Node) State() NodeState {
	if n.state == "" {
		return NodePlanned
	}
	return n.state
}

// Graph is a set of nodes with dependency edges. Nodes keep their insertion
// order, which makes wave ordering deterministic.
type Graph struct {
	nodes map[string]*Node
	order []string
}

// NewGraph creates an empty graph.
func NewGraph() *Graph {
	return &Graph{nodes: make(map[string]*Node)}
}

// Add inserts a node. Logical names must be unique.
func (g *Graph) Add(n *Node) error {
	if n.LogicalName == "" {
		return fmt.Errorf("node has no logical name")
	}
	if _, exists := g.nodes[n.LogicalName]; exists {
		return fmt.Errorf("duplicate node %s", n.LogicalName)
	}
	g.nodes[n.LogicalName] = n
	g.order = append(g.order, n.LogicalName)
	return nil
}

// Node returns the node with the given logical name.
func (g *Graph) Node(logicalName string) (*Node, bool) {
	n, ok := g.nodes[logicalName]
	return n, ok
}

// Len returns the number of nodes.
func (g *Graph) Len() int {
	return len(g.nodes)
}

// Validate checks that every dependency names an existing node and that the
// graph has no cycles.
func (g *Graph) Validate() error {
	for _, name := range g.order {
		for _, dep := range g.nodes[name].DependsOn {
			if _, ok := g.nodes[dep]; !ok {
				return fmt.Errorf("node %s depends on unknown node %s", name, dep)
			}
		}
	}
	_, err := g.Waves()
	return err
}

// Waves returns the nodes grouped into execution waves: every node in a
// wave depends only on nodes in earlier waves. Nodes within a wave keep
// insertion order. Returns an error if the graph contains a cycle.
func (g *Graph) Waves() ([][]*Node, error) {
	pending := make(map[string][]string, len(g.nodes))
	for _, name := range g.order {
		deps := g.nodes[name].DependsOn
		for _, dep := range deps {
			if _, ok := g.nodes[dep]; !ok {
				return nil, fmt.Errorf("node %s depends on unknown node %s", name, dep)
			}
		}
		pending[name] = deps
	}

	done := make(map[string]bool, len(g.nodes))
	var waves [][]*Node

	for len(done) < len(g.nodes) {
		var wave []*Node
		for _, name := range g.order {
			if done[name] {
				continue
			}
			ready := true
			for _, dep := range pending[name] {
				if !done[dep] {
					ready = false
					break
				}
			}
			if ready {
				wave = append(wave, g.nodes[name])
			}
		}

		if len(wave) == 0 {
			var stuck []string
			for name := range pending {
				if !done[name] {
					stuck = append(stuck, name)
				}
			}
			sort.Strings(stuck)
			return nil, fmt.Errorf("dependency cycle among nodes: %s", strings.Join(stuck, ", "))
		}

		for _, n := range wave {
			done[n.LogicalName] = true
		}
		waves = append(waves, wave)
	}

	return waves, nil
}

// TopologicalOrder returns all nodes in a valid execution order.
func (g *Graph) TopologicalOrder() ([]*Node, error) {
	waves, err := g.Waves()
	if err != nil {
		return nil, err
	}

	out := make([]*Node, 0, len(g.nodes))
	for _, wave := range waves {
		out = append(out, wave...)
	}
	return out, nil
}
