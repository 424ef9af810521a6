package scene

// Batches groups entities by their *TexturedModel. Models keep the order in
// which they were first added so draw order is stable between frames.
type Batches struct {
	order   []*TexturedModel
	byModel map[*TexturedModel][]*Entity
}

func NewBatches() *Batches {
	return &Batches{byModel: make(map[*TexturedModel][]*Entity)}
}

// Add stages e under its model. Entities without a model are ignored.
func (b *Batches) Add(e *Entity) {
	if e == nil || e.Model == nil {
		return
	}
	list, ok := b.byModel[e.Model]
	if !ok {
		b.order = append(b.order, e.Model)
	}
	b.byModel[e.Model] = append(list, e)
}

// Each calls fn once per model in first-seen order.
func (b *Batches) Each(fn func(model *TexturedModel, entities []*Entity)) {
	for _, m := range b.order {
		fn(m, b.byModel[m])
	}
}

// Models returns the number of distinct models.
func (b *Batches) Models() int { return len(b.order) }

// Len returns the number of staged entities.
func (b *Batches) Len() int {
	n := 0
	for _, list := range b.byModel {
		n += len(list)
	}
	return n
}

// Clear empties the batches.
func (b *Batches) Clear() {
	clear(b.byModel)
	b.order = b.order[:0]
}
