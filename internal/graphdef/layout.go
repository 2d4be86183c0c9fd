package graphdef

const (
	layoutSpacingX = 220.0
	layoutSpacingY = 140.0
	layoutCols     = 4
	layoutBase     = 40.0
)

// EnsurePositions fills in a grid layout position for every node in doc
// that has none, so a round-tripped graph file always has editor-ready
// coordinates instead of nulls. Nodes that already carry a position are
// left untouched. Grounded on the original engine's ensure_positions: a
// 4-column grid, 220x140 spacing, offset from a 40,40 origin.
func EnsurePositions(doc *Document) {
	for i := range doc.Nodes {
		if doc.Nodes[i].Position != nil {
			continue
		}
		col := i % layoutCols
		row := i / layoutCols
		doc.Nodes[i].Position = &Position{
			X: layoutBase + float64(col)*layoutSpacingX,
			Y: layoutBase + float64(row)*layoutSpacingY,
		}
	}
}
