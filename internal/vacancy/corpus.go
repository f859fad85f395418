package vacancy

// Corpus is an ordered, read-only collection of records indexed by id.
// It is never mutated after construction; With returns a new corpus.
type Corpus struct {
	items []*Record
	byID  map[string]int
}

// NewCorpus builds a corpus. A later record with an already seen id replaces
// the earlier one in place.
func NewCorpus(records []*Record) *Corpus {
	c := &Corpus{
		items: make([]*Record, 0, len(records)),
		byID:  make(map[string]int, len(records)),
	}
	c.upsert(records)
	return c
}

func (c *Corpus) upsert(records []*Record) {
	for _, r := range records {
		if r == nil || r.ID == "" {
			continue
		}
		if pos, ok := c.byID[r.ID]; ok {
			c.items[pos] = r
			continue
		}
		c.byID[r.ID] = len(c.items)
		c.items = append(c.items, r)
	}
}

// With returns a copy of the corpus with the given records upserted by id.
// Existing records keep their position; new ones are appended.
func (c *Corpus) With(records ...*Record) *Corpus {
	next := &Corpus{
		items: make([]*Record, 0, c.Len()+len(records)),
		byID:  make(map[string]int, c.Len()+len(records)),
	}
	if c != nil {
		next.items = append(next.items, c.items...)
		for id, pos := range c.byID {
			next.byID[id] = pos
		}
	}
	next.upsert(records)
	return next
}

func (c *Corpus) Get(id string) (*Record, bool) {
	if c == nil {
		return nil, false
	}
	pos, ok := c.byID[id]
	if !ok {
		return nil, false
	}
	return c.items[pos], true
}

// At returns the record at position pos.
func (c *Corpus) At(pos int) *Record {
	return c.items[pos]
}

// All returns the records in corpus order. The slice must not be modified.
func (c *Corpus) All() []*Record {
	if c == nil {
		return nil
	}
	return c.items
}

func (c *Corpus) Len() int {
	if c == nil {
		return 0
	}
	return len(c.items)
}

// IDs returns record ids in corpus order.
func (c *Corpus) IDs() []string {
	ids := make([]string, 0, c.Len())
	for _, r := range c.All() {
		ids = append(ids, r.ID)
	}
	return ids
}

// Position returns the corpus position of the record with the given id.
func (c *Corpus) Position(id string) (int, bool) {
	if c == nil {
		return 0, false
	}
	pos, ok := c.byID[id]
	return pos, ok
}
