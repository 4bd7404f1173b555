package domain

// Hit is one ranked search result. Distance is the fused rank score, not a
// raw similarity. Fields holds the requested output metadata.
type Hit struct {
	PK       int64
	Distance float64
	Fields   map[string]string
}

// Field returns an output field value, or "" when it was not projected.
func (h Hit) Field(name string) string { return h.Fields[name] }

// InsertResult reports a completed batch write.
type InsertResult struct {
	Count int64
	IDs   []int64
}

// MetaColumn is one scalar metadata column of a batch write, aligned to row
// index with every other column of the same batch.
type MetaColumn struct {
	Name   string
	Values []string
}

// InsertBatch is a column-aligned batch write: Meta[j].Values[i], Sparse[i]
// and Dense[i] all belong to row i. A batch is written all-or-nothing.
type InsertBatch struct {
	Meta   []MetaColumn
	Sparse []SparseVector
	Dense  [][]float32
}

// Rows returns the row count of the batch.
func (b InsertBatch) Rows() int { return len(b.Dense) }
