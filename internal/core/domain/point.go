package domain

import "fmt"

// Point is a grid coordinate in the warehouse. Value type, compared by fields.
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Depot is where every picking route starts and ends.
var Depot = Point{X: 0, Y: 0}

// ManhattanDistance returns |dx| + |dy| between p and other.
func (p Point) ManhattanDistance(other Point) int {
	return abs(p.X-other.X) + abs(p.Y-other.Y)
}

func (p Point) String() string {
	return fmt.Sprintf("(%d,%d)", p.X, p.Y)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
