package fks

// Stats holds table statistics.
type Stats struct {
	NumKeys         int
	TableSize       int
	EmptySlots      int
	DirectSlots     int
	SecondaryTables int
	SecondarySlots  int // sum of secondary table sizes
	MaxBucketSize   int
	TotalAttempts   int // hash draws across all secondary tables
	MaxAttempts     int // most draws any one secondary table needed
	BitsPerKey      float64
}

// Stats returns statistics for the table. BitsPerKey counts slot overhead
// only (one word per slot), not key bytes.
func (t *Table) Stats() *Stats {
	s := &Stats{
		NumKeys:   t.numKeys,
		TableSize: len(t.buckets),
	}
	for i := range t.buckets {
		b := &t.buckets[i]
		switch b.kind {
		case bucketEmpty:
			s.EmptySlots++
		case bucketDirect:
			s.DirectSlots++
			s.MaxBucketSize = max(s.MaxBucketSize, 1)
		case bucketSecondary:
			s.SecondaryTables++
			s.SecondarySlots += b.table.TableSize()
			s.MaxBucketSize = max(s.MaxBucketSize, b.table.Len())
			s.TotalAttempts += b.table.Attempts()
			s.MaxAttempts = max(s.MaxAttempts, b.table.Attempts())
		}
	}
	if s.NumKeys > 0 {
		s.BitsPerKey = float64((s.TableSize+s.SecondarySlots)*64) / float64(s.NumKeys)
	}
	return s
}
