package detection

import (
	"image"
)

// Contour is one connected group of edge pixels.
type Contour struct {
	// Points are the edge pixels of the contour, in flood-fill order.
	Points []image.Point

	// Bounds is the axis-aligned bounding rectangle of Points (Max exclusive).
	Bounds image.Rectangle

	// Area is the number of pixels enclosed by the contour, including the
	// contour itself. An open curve encloses only its own pixels.
	Area float64
}

// edgeGrid is a binary view of an edge map.
type edgeGrid struct {
	width, height int
	set           []bool
}

func newEdgeGrid(edges *image.Gray) *edgeGrid {
	b := edges.Bounds()
	g := &edgeGrid{width: b.Dx(), height: b.Dy(), set: make([]bool, b.Dx()*b.Dy())}
	for y := 0; y < g.height; y++ {
		for x := 0; x < g.width; x++ {
			g.set[y*g.width+x] = edges.Pix[edges.PixOffset(x+b.Min.X, y+b.Min.Y)] != 0
		}
	}
	return g
}

func (g *edgeGrid) at(x, y int) bool {
	return g.set[y*g.width+x]
}

// FindExternalContours returns the outermost contours of an edge map.
//
// # Algorithm
//
//  1. Outside fill: flood the background from every border pixel through
//     non-edge pixels using 4-connectivity.
//  2. Contour finding: group edge pixels into 8-connected components.
//  3. A component is external when it lies on the image border or touches
//     the outside fill. Components nested inside another contour are dropped.
//  4. Each external contour's enclosed area is measured by flooding its
//     padded bounding box from the outside and counting what remains.
//
// Contours are returned in raster order of their first pixel.
func FindExternalContours(edges *image.Gray) []Contour {
	g := newEdgeGrid(edges)
	if g.width == 0 || g.height == 0 {
		return nil
	}

	outside := outsideFill(g)

	visited := make([]bool, len(g.set))
	contours := make([]Contour, 0)

	for y := 0; y < g.height; y++ {
		for x := 0; x < g.width; x++ {
			if !g.at(x, y) || visited[y*g.width+x] {
				continue
			}
			points := floodFill(g, visited, x, y)
			if !isExternal(g, outside, points) {
				continue
			}
			bounds := pointBounds(points)
			contours = append(contours, Contour{
				Points: points,
				Bounds: bounds,
				Area:   enclosedArea(points, bounds),
			})
		}
	}

	return contours
}

// outsideFill marks every non-edge pixel reachable from the image border
// without crossing an edge pixel.
func outsideFill(g *edgeGrid) []bool {
	outside := make([]bool, len(g.set))
	stack := make([]image.Point, 0)

	push := func(x, y int) {
		i := y*g.width + x
		if outside[i] || g.set[i] {
			return
		}
		outside[i] = true
		stack = append(stack, image.Point{X: x, Y: y})
	}

	for x := 0; x < g.width; x++ {
		push(x, 0)
		push(x, g.height-1)
	}
	for y := 0; y < g.height; y++ {
		push(0, y)
		push(g.width-1, y)
	}

	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, d := range neighbors4 {
			nx, ny := p.X+d.X, p.Y+d.Y
			if nx < 0 || ny < 0 || nx >= g.width || ny >= g.height {
				continue
			}
			push(nx, ny)
		}
	}
	return outside
}

// floodFill performs iterative flood-fill from a starting edge pixel.
//
// Uses a stack-based approach (not recursive) to avoid stack overflow
// on large contours. Marks visited pixels and returns them.
// Uses 8-connectivity (includes diagonal neighbors).
func floodFill(g *edgeGrid, visited []bool, startX, startY int) []image.Point {
	contour := make([]image.Point, 0)
	stack := []image.Point{{X: startX, Y: startY}}

	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if p.X < 0 || p.X >= g.width || p.Y < 0 || p.Y >= g.height {
			continue
		}
		i := p.Y*g.width + p.X
		if visited[i] || !g.set[i] {
			continue
		}

		visited[i] = true
		contour = append(contour, p)

		for dy := -1; dy <= 1; dy++ {
			for dx := -1; dx <= 1; dx++ {
				if dx == 0 && dy == 0 {
					continue
				}
				stack = append(stack, image.Point{X: p.X + dx, Y: p.Y + dy})
			}
		}
	}
	return contour
}

func isExternal(g *edgeGrid, outside []bool, points []image.Point) bool {
	for _, p := range points {
		if p.X == 0 || p.Y == 0 || p.X == g.width-1 || p.Y == g.height-1 {
			return true
		}
		for _, d := range neighbors4 {
			if outside[(p.Y+d.Y)*g.width+p.X+d.X] {
				return true
			}
		}
	}
	return false
}

func pointBounds(points []image.Point) image.Rectangle {
	r := image.Rectangle{Min: points[0], Max: points[0].Add(image.Pt(1, 1))}
	for _, p := range points[1:] {
		r = r.Union(image.Rectangle{Min: p, Max: p.Add(image.Pt(1, 1))})
	}
	return r
}

// enclosedArea counts the pixels of bounds that cannot reach a one-pixel
// frame around bounds without crossing points.
func enclosedArea(points []image.Point, bounds image.Rectangle) float64 {
	padded := bounds.Inset(-1)
	w, h := padded.Dx(), padded.Dy()

	wall := make([]bool, w*h)
	for _, p := range points {
		wall[(p.Y-padded.Min.Y)*w+p.X-padded.Min.X] = true
	}

	reached := make([]bool, w*h)
	count := 0
	stack := []image.Point{{X: 0, Y: 0}}
	reached[0] = true
	count++

	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, d := range neighbors4 {
			nx, ny := p.X+d.X, p.Y+d.Y
			if nx < 0 || ny < 0 || nx >= w || ny >= h {
				continue
			}
			i := ny*w + nx
			if reached[i] || wall[i] {
				continue
			}
			reached[i] = true
			count++
			stack = append(stack, image.Point{X: nx, Y: ny})
		}
	}

	return float64(w*h - count)
}

var neighbors4 = []image.Point{{X: 1}, {X: -1}, {Y: 1}, {Y: -1}}
