package ptable

// Vocabulary is a column-scoped string-interning dictionary. String columns
// store uint32 ids into a shared Vocabulary rather than raw strings, so
// equality comparisons in the transition calculator (§4.6) are integer
// comparisons, matching the original's dictionary-encoded string columns.
type Vocabulary struct {
	ids     map[string]uint32
	strings []string
}

// NewVocabulary returns an empty Vocabulary. Id 0 is reserved for the empty
// string so that an unset/invalid cell and "" never collide ambiguously.
func NewVocabulary() *Vocabulary {
	v := &Vocabulary{ids: make(map[string]uint32), strings: []string{""}}
	v.ids[""] = 0
	return v
}

// Intern returns the id for s, allocating a new one if s has not been seen.
func (v *Vocabulary) Intern(s string) uint32 {
	if id, ok := v.ids[s]; ok {
		return id
	}
	id := uint32(len(v.strings))
	v.strings = append(v.strings, s)
	v.ids[s] = id
	return id
}

// String returns the string for id. Panics if id is out of range, which
// would indicate a column referencing the wrong Vocabulary.
func (v *Vocabulary) String(id uint32) string {
	return v.strings[id]
}

// Len returns the number of distinct interned strings, including "".
func (v *Vocabulary) Len() int { return len(v.strings) }
