package model

// Collection is an ordered list of entities in payload order. It never sorts
// or deduplicates.
type Collection[T Entity] struct {
	items []T
}

// NewCollection builds one entity per raw element. A nil or empty input
// yields an empty collection.
func NewCollection[T Entity](raws []map[string]any, construct func(map[string]any) T) *Collection[T] {
	collection := &Collection[T]{items: make([]T, 0, len(raws))}
	for _, raw := range raws {
		collection.items = append(collection.items, construct(raw))
	}
	return collection
}

// CollectionOf wraps already constructed entities.
func CollectionOf[T Entity](items ...T) *Collection[T] {
	return &Collection[T]{items: append([]T(nil), items...)}
}

// NewPrograms builds the program collection.
func NewPrograms(raws []map[string]any) *Collection[*Program] {
	return NewCollection(raws, NewProgram)
}

// NewCertificates builds the certificate collection.
func NewCertificates(raws []map[string]any) *Collection[*Certificate] {
	return NewCollection(raws, NewCertificate)
}

// Len returns the number of entities.
func (collection *Collection[T]) Len() int {
	if collection == nil {
		return 0
	}
	return len(collection.items)
}

// At returns the entity at index.
func (collection *Collection[T]) At(index int) T {
	return collection.items[index]
}

// Each calls visit for every entity in order.
func (collection *Collection[T]) Each(visit func(index int, entity T)) {
	if collection == nil {
		return
	}
	for index, entity := range collection.items {
		visit(index, entity)
	}
}

// Items returns a copy of the entity slice.
func (collection *Collection[T]) Items() []T {
	if collection == nil {
		return nil
	}
	return append([]T(nil), collection.items...)
}

// Add appends an entity. Views that already rendered do not observe it.
func (collection *Collection[T]) Add(entity T) {
	collection.items = append(collection.items, entity)
}
