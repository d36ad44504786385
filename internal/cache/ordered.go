package cache

import "container/list"

// orderedMap keeps entries in insertion order with O(1) lookup and
// removal. It is not safe for concurrent use; callers hold their own lock.
type orderedMap[T any] struct {
	items map[string]*list.Element
	order *list.List
}

type entry[T any] struct {
	key  string
	data T
}

func newOrderedMap[T any]() *orderedMap[T] {
	return &orderedMap[T]{
		items: make(map[string]*list.Element),
		order: list.New(),
	}
}

func (m *orderedMap[T]) get(key string) (T, bool) {
	var zero T
	elem, exists := m.items[key]
	if !exists {
		return zero, false
	}
	return elem.Value.(*entry[T]).data, true
}

// set replaces the value in place if the key exists, otherwise appends it.
func (m *orderedMap[T]) set(key string, data T) {
	if elem, exists := m.items[key]; exists {
		elem.Value.(*entry[T]).data = data
		return
	}
	m.items[key] = m.order.PushBack(&entry[T]{key: key, data: data})
}

func (m *orderedMap[T]) delete(key string) bool {
	elem, exists := m.items[key]
	if !exists {
		return false
	}
	delete(m.items, key)
	m.order.Remove(elem)
	return true
}

func (m *orderedMap[T]) values() []T {
	out := make([]T, 0, m.order.Len())
	for elem := m.order.Front(); elem != nil; elem = elem.Next() {
		out = append(out, elem.Value.(*entry[T]).data)
	}
	return out
}

func (m *orderedMap[T]) len() int {
	return len(m.items)
}

func (m *orderedMap[T]) clear() {
	m.items = make(map[string]*list.Element)
	m.order.Init()
}
