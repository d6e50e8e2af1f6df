package service

import (
	"fmt"

	"github.com/warefleet/fulfillment/internal/core/domain"
)

// RoutingService turns a set of pickup locations into an ordered orthogonal
// walk that starts and ends at the depot. It holds no state and performs no
// I/O; identical inputs (including their order) yield identical output.
type RoutingService struct{}

func NewRoutingService() *RoutingService {
	return &RoutingService{}
}

// CalculateOptimalRoute orders the pickups with a nearest-neighbor heuristic
// over Manhattan distance, then expands the sequence into a grid path with no
// diagonal hops. An empty pickup set yields [depot, depot].
func (s *RoutingService) CalculateOptimalRoute(pickups []domain.Point) ([]domain.Point, error) {
	sequence, err := s.destinationSequence(pickups)
	if err != nil {
		return nil, err
	}
	return buildFullPath(sequence), nil
}

// destinationSequence visits every pickup exactly once, always moving to the
// closest unvisited point. Ties keep the point that appears first in the
// input, so the result is stable with respect to input order.
func (s *RoutingService) destinationSequence(pickups []domain.Point) ([]domain.Point, error) {
	if len(pickups) == 0 {
		return []domain.Point{domain.Depot, domain.Depot}, nil
	}

	sequence := make([]domain.Point, 0, len(pickups)+2)
	sequence = append(sequence, domain.Depot)

	remaining := make([]domain.Point, len(pickups))
	copy(remaining, pickups)
	current := domain.Depot

	for len(remaining) > 0 {
		nearest := -1
		shortest := 0
		for i, candidate := range remaining {
			distance := current.ManhattanDistance(candidate)
			if nearest == -1 || distance < shortest {
				nearest = i
				shortest = distance
			}
		}
		if nearest < 0 {
			// Unreachable with a non-empty remaining set; treated as a
			// programmer error by the caller.
			return nil, fmt.Errorf("%w: could not determine the next location", ErrRoutingFailed)
		}

		current = remaining[nearest]
		sequence = append(sequence, current)
		remaining = append(remaining[:nearest], remaining[nearest+1:]...)
	}

	sequence = append(sequence, domain.Depot)
	return sequence, nil
}

// buildFullPath expands consecutive destinations into orthogonal segments.
// A leg that changes both coordinates gets a corner point, moving along the
// x-axis first and the y-axis second.
func buildFullPath(sequence []domain.Point) []domain.Point {
	if len(sequence) == 0 {
		return nil
	}

	path := make([]domain.Point, 0, 2*len(sequence))
	for i := 0; i < len(sequence)-1; i++ {
		start, end := sequence[i], sequence[i+1]
		path = append(path, start)
		if start.X != end.X && start.Y != end.Y {
			path = append(path, domain.Point{X: end.X, Y: start.Y})
		}
	}
	return append(path, sequence[len(sequence)-1])
}
