package ecs

// Descendants returns every spawned entity below parent in the Parent
// hierarchy, depth-first pre-order with siblings in ascending index order.
// Each entity is reported once and parent itself never is, so a cyclic
// parent relation terminates.
func Descendants(w *World, parent Entity) []Entity {
	children := childIndex(w)
	if len(children[parent]) == 0 {
		return nil
	}
	visited := map[Entity]bool{parent: true}
	var out []Entity
	stack := pushReversed(nil, children[parent])
	for len(stack) > 0 {
		e := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if visited[e] {
			continue
		}
		visited[e] = true
		out = append(out, e)
		stack = pushReversed(stack, children[e])
	}
	return out
}

// childIndex maps each parent to its spawned children in ascending order.
func childIndex(w *World) map[Entity][]Entity {
	p := MustPass(w, Access{Read: []string{SpawnedStream, ParentStream}})
	return Fold(p, map[Entity][]Entity{}, func(r Row, idx *map[Entity][]Entity) {
		link := Read(r, w.parents)
		(*idx)[link.Entity] = append((*idx)[link.Entity], r.Entity())
	})
}

func pushReversed(stack, items []Entity) []Entity {
	for i := len(items) - 1; i >= 0; i-- {
		stack = append(stack, items[i])
	}
	return stack
}
