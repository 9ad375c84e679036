package edges

import "fmt"

// Graph performs a breadth-first expansion from cid out to depth hops
// (clamped to MaxDepth), returning every edge encountered in BFS order
// with no duplicates.
func (s *Store) Graph(cid string, depth int) ([]Edge, error) {
	if depth > MaxDepth {
		depth = MaxDepth
	}
	if depth < 0 {
		depth = 0
	}

	type queued struct {
		cid string
		d   int
	}

	visited := map[string]struct{}{cid: {}}
	queue := []queued{{cid: cid, d: 0}}
	var result []Edge

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if cur.d >= depth {
			continue
		}

		outs, err := s.ListOutgoing(cur.cid, "")
		if err != nil {
			return nil, fmt.Errorf("graph expand %s: %w", cur.cid, err)
		}
		for _, e := range outs {
			result = append(result, e)
			if _, seen := visited[e.Dst]; !seen {
				visited[e.Dst] = struct{}{}
				queue = append(queue, queued{cid: e.Dst, d: cur.d + 1})
			}
		}
	}

	return result, nil
}
