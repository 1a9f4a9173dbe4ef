// ABOUTME: Graph view assembly shared by the memory and sqlite stores.
// ABOUTME: Turns a session's step chain plus recorded facts into nodes and edges.

package provenance

// stepView is the store-independent shape of one step used to build the
// visualization graph.
type stepView struct {
	ID         string
	Capability string
	Status     StepStatus
	EventID    string
	UI         string
	Backend    string
}

// participantView is one recorded component node.
type participantView struct {
	Kind Kind
	Name string
}

// edgeView is one recorded typed relationship.
type edgeView struct {
	FromKind Kind
	FromName string
	ToKind   Kind
	ToName   string
	Type     string
}

// graphBuilder accumulates deduplicated nodes and edges.
type graphBuilder struct {
	nodes   []Node
	edges   []Edge
	nodeSet map[string]struct{}
	edgeSet map[string]struct{}
}

func newGraphBuilder() *graphBuilder {
	return &graphBuilder{
		nodeSet: make(map[string]struct{}),
		edgeSet: make(map[string]struct{}),
	}
}

func nodeID(kind Kind, name string) string {
	return string(kind) + ":" + name
}

func (b *graphBuilder) addNode(kind Kind, name, label, status string) string {
	id := nodeID(kind, name)
	if _, seen := b.nodeSet[id]; !seen {
		b.nodeSet[id] = struct{}{}
		b.nodes = append(b.nodes, Node{ID: id, Label: label, Type: string(kind), Status: status})
	}
	return id
}

func (b *graphBuilder) addEdge(from, to, edgeType string) {
	key := from + "->" + to + "#" + edgeType
	if _, seen := b.edgeSet[key]; seen {
		return
	}
	b.edgeSet[key] = struct{}{}
	b.edges = append(b.edges, Edge{From: from, To: to, Type: edgeType})
}

// buildGraph assembles the session subgraph (session, step chain, events,
// per-event component links) and overlays the globally recorded
// participants and edges.
func buildGraph(sessionID string, steps []stepView, participants []participantView, facts []edgeView) *Graph {
	b := newGraphBuilder()

	sessionNode := b.addNode(KindSession, sessionID, sessionID, "")

	var prevNode string
	for i, st := range steps {
		stepNode := b.addNode(KindStep, st.ID, st.Capability, string(st.Status))
		b.addEdge(sessionNode, stepNode, EdgeHasStep)
		if i == 0 {
			b.addEdge(sessionNode, stepNode, EdgeFirstStep)
		} else {
			b.addEdge(prevNode, stepNode, EdgeNext)
		}
		prevNode = stepNode

		if st.EventID == "" {
			continue
		}
		eventNode := b.addNode(KindEvent, st.EventID, st.Capability+" ["+string(st.Status)+"]", "")
		b.addEdge(stepNode, eventNode, EdgeHasEvent)

		capNode := b.addNode(KindCapability, st.Capability, st.Capability, "")
		b.addEdge(eventNode, capNode, EdgeAbout)

		if st.UI != "" {
			uiNode := b.addNode(KindUIComponent, st.UI, st.UI, "")
			b.addEdge(uiNode, eventNode, EdgeSends)
		}
		if st.Backend != "" {
			backendNode := b.addNode(KindBackendComponent, st.Backend, st.Backend, "")
			b.addEdge(eventNode, backendNode, EdgeHandledBy)
		}
	}

	for _, p := range participants {
		b.addNode(p.Kind, p.Name, p.Name, "")
	}
	for _, e := range facts {
		from := b.addNode(e.FromKind, e.FromName, e.FromName, "")
		to := b.addNode(e.ToKind, e.ToName, e.ToName, "")
		b.addEdge(from, to, e.Type)
	}

	return &Graph{
		SessionID: sessionID,
		Nodes:     b.nodes,
		Edges:     b.edges,
	}
}
