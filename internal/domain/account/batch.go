package account

import "sync/atomic"

// Batch is the ordered set of records parsed from one document.
// It can be claimed for upload once.
type Batch struct {
	records []Record
	claimed atomic.Bool
}

func NewBatch(records []Record) *Batch {
	copied := make([]Record, len(records))
	copy(copied, records)
	return &Batch{records: copied}
}

func (b *Batch) Len() int {
	if b == nil {
		return 0
	}
	return len(b.records)
}

func (b *Batch) At(i int) Record {
	return b.records[i]
}

func (b *Batch) Records() []Record {
	if b == nil {
		return nil
	}
	copied := make([]Record, len(b.records))
	copy(copied, b.records)
	return copied
}

func (b *Batch) Claim() bool {
	return b.claimed.CompareAndSwap(false, true)
}

type DroppedRecord struct {
	Index  int
	Reason string
}
