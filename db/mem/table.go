package mem

// orderedTable keeps rows keyed by id while remembering insertion order,
// which is the order every list operation returns.
type orderedTable[T any] struct {
	order []string
	rows  map[string]T
}

func newOrderedTable[T any]() *orderedTable[T] {
	return &orderedTable[T]{
		rows: make(map[string]T),
	}
}

func (t *orderedTable[T]) insert(id string, row T) {
	if _, exists := t.rows[id]; !exists {
		t.order = append(t.order, id)
	}
	t.rows[id] = row
}

func (t *orderedTable[T]) get(id string) (T, bool) {
	row, ok := t.rows[id]
	return row, ok
}

// replace overwrites an existing row and reports whether it existed.
func (t *orderedTable[T]) replace(id string, row T) bool {
	if _, exists := t.rows[id]; !exists {
		return false
	}
	t.rows[id] = row
	return true
}

// remove is a no-op for unknown ids.
func (t *orderedTable[T]) remove(id string) {
	if _, exists := t.rows[id]; !exists {
		return
	}
	delete(t.rows, id)
	for i, existing := range t.order {
		if existing == id {
			t.order = append(t.order[:i], t.order[i+1:]...)
			break
		}
	}
}

// list returns a copy so callers cannot mutate stored rows.
func (t *orderedTable[T]) list() []T {
	result := make([]T, 0, len(t.order))
	for _, id := range t.order {
		result = append(result, t.rows[id])
	}
	return result
}
