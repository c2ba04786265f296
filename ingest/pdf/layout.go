package pdf

import (
	"cmp"
	"slices"
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"
	"golang.org/x/text/unicode/norm"
)

const (
	// Glyphs whose baselines differ by at most rowTolerance points share a
	// line.
	rowTolerance = 2.0
	// Ruling edges closer than edgeTolerance points are the same edge.
	edgeTolerance = 2.0
	// A horizontal gap wider than gapFactor of the font size is a word
	// break.
	gapFactor = 0.2
)

type glyph struct {
	x, y, w, size float64
	s             string
}

// normalizeGlyphs applies NFKC so Hebrew presentation forms (U+FB1D and
// up) fold into the base Hebrew block.
func normalizeGlyphs(texts []pdf.Text) []glyph {
	out := make([]glyph, 0, len(texts))
	for _, t := range texts {
		s := norm.NFKC.String(t.S)
		if s == "" {
			continue
		}
		out = append(out, glyph{x: t.X, y: t.Y, w: t.W, size: t.FontSize, s: s})
	}
	return out
}

// layoutText groups glyphs into lines top to bottom and orders each line
// left to right, which is visual order.
func layoutText(glyphs []glyph) string {
	rows := groupRows(glyphs)
	lines := make([]string, 0, len(rows))
	for _, row := range rows {
		if line := strings.TrimSpace(joinRow(row)); line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n")
}

func groupRows(glyphs []glyph) [][]glyph {
	sorted := slices.Clone(glyphs)
	slices.SortStableFunc(sorted, func(a, b glyph) int {
		return cmp.Compare(b.y, a.y)
	})
	var rows [][]glyph
	var rowY float64
	for _, g := range sorted {
		if len(rows) == 0 || rowY-g.y > rowTolerance {
			rows = append(rows, nil)
			rowY = g.y
		}
		rows[len(rows)-1] = append(rows[len(rows)-1], g)
	}
	for _, row := range rows {
		slices.SortStableFunc(row, func(a, b glyph) int {
			return cmp.Compare(a.x, b.x)
		})
	}
	return rows
}

func joinRow(row []glyph) string {
	var b strings.Builder
	for i, g := range row {
		if i > 0 {
			prev := row[i-1]
			gap := g.x - (prev.x + prev.w)
			threshold := max(g.size*gapFactor, prev.w*0.4)
			s := b.String()
			if gap > threshold && !strings.HasSuffix(s, " ") && !strings.HasPrefix(g.s, " ") {
				b.WriteByte(' ')
			}
		}
		b.WriteString(g.s)
	}
	return b.String()
}

type box struct {
	minX, minY, maxX, maxY float64
}

func (b box) touches(o box) bool {
	return b.minX-edgeTolerance <= o.maxX && o.minX-edgeTolerance <= b.maxX &&
		b.minY-edgeTolerance <= o.maxY && o.minY-edgeTolerance <= b.maxY
}

// detectTables finds ruled tables on a page. Rectangles that touch each
// other form one table; the distinct vertical and horizontal edges of a
// cluster define its grid. Glyphs are assigned to cells by position.
// Tables come back top to bottom with empty rows dropped.
//
// Only rectangles drawn with the "re" operator are visible here, so
// tables ruled with plain line paths are not detected.
func detectTables(rects []pdf.Rect, glyphs []glyph) [][][]string {
	boxes := make([]box, 0, len(rects))
	for _, r := range rects {
		boxes = append(boxes, box{
			minX: min(r.Min.X, r.Max.X), maxX: max(r.Min.X, r.Max.X),
			minY: min(r.Min.Y, r.Max.Y), maxY: max(r.Min.Y, r.Max.Y),
		})
	}

	type table struct {
		top  float64
		grid [][]string
	}
	var tables []table
	for _, cluster := range clusterBoxes(boxes) {
		xs, ys := gridEdges(cluster)
		if len(xs) < 2 || len(ys) < 2 || (len(xs)-1)*(len(ys)-1) < 2 {
			continue
		}
		grid := fillGrid(xs, ys, glyphs)
		if len(grid) == 0 {
			continue
		}
		tables = append(tables, table{top: ys[0], grid: grid})
	}
	slices.SortStableFunc(tables, func(a, b table) int {
		return cmp.Compare(b.top, a.top)
	})

	out := make([][][]string, len(tables))
	for i, t := range tables {
		out[i] = t.grid
	}
	return out
}

// clusterBoxes groups boxes into connected components by touch.
func clusterBoxes(boxes []box) [][]box {
	parent := make([]int, len(boxes))
	for i := range parent {
		parent[i] = i
	}
	var find func(int) int
	find = func(i int) int {
		if parent[i] != i {
			parent[i] = find(parent[i])
		}
		return parent[i]
	}
	for i := range boxes {
		for j := i + 1; j < len(boxes); j++ {
			if boxes[i].touches(boxes[j]) {
				parent[find(i)] = find(j)
			}
		}
	}
	groups := map[int][]box{}
	var roots []int
	for i, b := range boxes {
		root := find(i)
		if _, ok := groups[root]; !ok {
			roots = append(roots, root)
		}
		groups[root] = append(groups[root], b)
	}
	out := make([][]box, 0, len(roots))
	for _, root := range roots {
		out = append(out, groups[root])
	}
	return out
}

// gridEdges returns the merged x edges ascending and y edges descending,
// so row 0 is the top of the table.
func gridEdges(cluster []box) (xs, ys []float64) {
	for _, b := range cluster {
		xs = append(xs, b.minX, b.maxX)
		ys = append(ys, b.minY, b.maxY)
	}
	xs = mergeEdges(xs)
	ys = mergeEdges(ys)
	slices.Reverse(ys)
	return xs, ys
}

func mergeEdges(vals []float64) []float64 {
	sort.Float64s(vals)
	var out []float64
	for _, v := range vals {
		if len(out) > 0 && v-out[len(out)-1] <= edgeTolerance {
			continue
		}
		out = append(out, v)
	}
	return out
}

func fillGrid(xs, ys []float64, glyphs []glyph) [][]string {
	rows, cols := len(ys)-1, len(xs)-1
	cells := make([][][]glyph, rows)
	for i := range cells {
		cells[i] = make([][]glyph, cols)
	}
	for _, g := range glyphs {
		cx := g.x + g.w/2
		if cx < xs[0] || cx > xs[cols] || g.y > ys[0] || g.y < ys[rows] {
			continue
		}
		col := sort.SearchFloat64s(xs, cx) - 1
		col = max(0, min(col, cols-1))
		// ys is descending: first edge below the baseline closes the row.
		row := sort.Search(len(ys), func(i int) bool { return ys[i] < g.y }) - 1
		row = max(0, min(row, rows-1))
		cells[row][col] = append(cells[row][col], g)
	}

	var grid [][]string
	for _, rowCells := range cells {
		texts := make([]string, cols)
		empty := true
		for c, cell := range rowCells {
			texts[c] = layoutText(cell)
			if texts[c] != "" {
				empty = false
			}
		}
		if !empty {
			grid = append(grid, texts)
		}
	}
	return grid
}
