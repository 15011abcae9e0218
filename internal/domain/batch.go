package domain

// Batch is the set of companion items accumulated during one synchronization
// run. Items keep the order in which they were discovered.
type Batch struct {
	Items []CompanionItem
}

// NewBatch creates a new empty batch.
func NewBatch() *Batch {
	return &Batch{Items: make([]CompanionItem, 0)}
}

// Add appends an item to the batch.
func (b *Batch) Add(item CompanionItem) {
	b.Items = append(b.Items, item)
}

// Size returns the number of items in the batch.
func (b *Batch) Size() int {
	return len(b.Items)
}

// Empty returns true if the batch has no items.
func (b *Batch) Empty() bool {
	return len(b.Items) == 0
}

// Export returns the export envelope {"docs": [...]} of the batch.
func (b *Batch) Export() map[string]any {
	docs := make([]any, len(b.Items))
	for i, item := range b.Items {
		docs[i] = item.Export()
	}
	return map[string]any{"docs": docs}
}
