package testutil

// SharedBatchGenerator returns the same batch id every time.
//
// Unlike chain.FixedGenerator, which hands out ids in sequence and panics when
// it runs out, this generator never runs out. Use it when a test builds an
// unknown number of chains that should all land in one batch.
//
// Thread-safety: SharedBatchGenerator is stateless and safe for concurrent use.
type SharedBatchGenerator struct {
	id string
}

// NewSharedBatchGenerator creates a generator for id.
// If id is empty, Generate returns "test-batch".
func NewSharedBatchGenerator(id string) *SharedBatchGenerator {
	if id == "" {
		id = "test-batch"
	}
	return &SharedBatchGenerator{id: id}
}

// Generate returns the shared batch id.
func (g *SharedBatchGenerator) Generate() string {
	return g.id
}
