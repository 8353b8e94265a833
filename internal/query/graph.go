package query

import (
	"context"
	"slices"
	"strings"

	"github.com/wagnerlima/memory-cloud/archimodel/internal/errors"
	"github.com/wagnerlima/memory-cloud/archimodel/internal/models"
)

// Directions accepted by Neighbors.
const (
	DirectionIn   = "in"
	DirectionOut  = "out"
	DirectionBoth = "both"
)

// NeighborsResult lists the incident relationships of an element and the
// elements at their far ends.
type NeighborsResult struct {
	ElementID     string                `json:"element_id"`
	Direction     string                `json:"direction"`
	Neighbors     []models.Element      `json:"neighbors"`
	Relationships []models.Relationship `json:"relationships"`
	Truncated     bool                  `json:"truncated"`
}

// Neighbors expands one element. Direction "in" follows relationships whose
// target is the element, "out" those whose source is; "" means both. Far
// endpoints that no longer exist are left out of Neighbors, their
// relationships are still listed.
func (e *Engine) Neighbors(ctx context.Context, modelID, elementID, direction, relationshipType string, limit int) (*NeighborsResult, error) {
	direction = strings.ToLower(strings.TrimSpace(direction))
	if direction == "" {
		direction = DirectionBoth
	}
	switch direction {
	case DirectionIn, DirectionOut, DirectionBoth:
	default:
		return nil, errors.Validationf("direction", "must be in, out or both, got %q", direction)
	}
	if elementID == "" {
		return nil, errors.Required("element_id")
	}

	snap, err := e.r.LoadSnapshot(ctx, modelID)
	if err != nil {
		return nil, err
	}
	elements := indexElements(snap)
	if _, ok := elements[elementID]; !ok {
		return nil, errors.NotFound("element", elementID)
	}

	res := &NeighborsResult{
		ElementID:     elementID,
		Direction:     direction,
		Neighbors:     []models.Element{},
		Relationships: []models.Relationship{},
	}
	limit = e.limit(limit)
	seen := map[string]bool{elementID: true}
	var far []string

	for _, r := range snap.Relationships {
		out := r.SourceElementID == elementID && direction != DirectionIn
		in := r.TargetElementID == elementID && direction != DirectionOut
		if !out && !in {
			continue
		}
		if relationshipType != "" && !strings.EqualFold(r.TypeName, strings.TrimSpace(relationshipType)) {
			continue
		}
		if len(res.Relationships) == limit {
			res.Truncated = true
			break
		}
		res.Relationships = append(res.Relationships, r)
		for _, id := range []string{r.SourceElementID, r.TargetElementID} {
			if !seen[id] {
				seen[id] = true
				far = append(far, id)
			}
		}
	}

	slices.Sort(far)
	for _, id := range far {
		if el, ok := elements[id]; ok {
			res.Neighbors = append(res.Neighbors, *el)
		}
	}
	return res, nil
}

// Hop is one edge of a path.
type Hop struct {
	From             string `json:"from"`
	To               string `json:"to"`
	RelationshipID   string `json:"relationship_id"`
	RelationshipType string `json:"relationship_type"`
}

// PathResult is the result of PathExists. Depth is nil when no path exists.
type PathResult struct {
	Exists bool  `json:"exists"`
	Depth  *int  `json:"depth"`
	Path   []Hop `json:"path"`
}

// PathExists reports whether target is reachable from source following
// relationships from source to target. The search is breadth-first, so the
// returned path is a shortest one. A nil maxDepth searches the whole graph.
func (e *Engine) PathExists(ctx context.Context, modelID, source, target string, maxDepth *int) (*PathResult, error) {
	if source == "" {
		return nil, errors.Required("source_element_id")
	}
	if target == "" {
		return nil, errors.Required("target_element_id")
	}
	if maxDepth != nil && *maxDepth < 0 {
		return nil, errors.Validation("max_depth", "must not be negative")
	}

	snap, err := e.r.LoadSnapshot(ctx, modelID)
	if err != nil {
		return nil, err
	}
	elements := indexElements(snap)
	for _, id := range []string{source, target} {
		if _, ok := elements[id]; !ok {
			return nil, errors.NotFound("element", id)
		}
	}

	if source == target {
		zero := 0
		return &PathResult{Exists: true, Depth: &zero, Path: []Hop{}}, nil
	}

	// Relationships are ordered by id, so adjacency and the chosen path are
	// deterministic.
	adj := make(map[string][]*models.Relationship)
	for i := range snap.Relationships {
		r := &snap.Relationships[i]
		adj[r.SourceElementID] = append(adj[r.SourceElementID], r)
	}

	via := map[string]*models.Relationship{source: nil}
	frontier := []string{source}
	for depth := 0; len(frontier) > 0; depth++ {
		if maxDepth != nil && depth >= *maxDepth {
			break
		}
		var next []string
		for _, node := range frontier {
			for _, r := range adj[node] {
				to := r.TargetElementID
				if _, ok := via[to]; ok {
					continue
				}
				via[to] = r
				if to == target {
					return found(via, target, depth+1), nil
				}
				next = append(next, to)
			}
		}
		frontier = next
	}
	return &PathResult{Path: []Hop{}}, nil
}

func found(via map[string]*models.Relationship, target string, depth int) *PathResult {
	path := make([]Hop, depth)
	node := target
	for i := depth - 1; i >= 0; i-- {
		r := via[node]
		path[i] = Hop{From: r.SourceElementID, To: r.TargetElementID, RelationshipID: r.ID, RelationshipType: r.TypeName}
		node = r.SourceElementID
	}
	return &PathResult{Exists: true, Depth: &depth, Path: path}
}

func indexElements(snap *models.Snapshot) map[string]*models.Element {
	m := make(map[string]*models.Element, len(snap.Elements))
	for i := range snap.Elements {
		m[snap.Elements[i].ID] = &snap.Elements[i]
	}
	return m
}
