package library

import "sort"

// TitleSet accumulates distinct titles across collection passes
type TitleSet struct {
	titles map[string]struct{}
}

// NewTitleSet creates a set holding titles
func NewTitleSet(titles ...string) *TitleSet {
	s := &TitleSet{titles: make(map[string]struct{}, len(titles))}
	s.AddAll(titles)
	return s
}

// Add inserts title and reports whether it was new
func (s *TitleSet) Add(title string) bool {
	if _, ok := s.titles[title]; ok {
		return false
	}
	s.titles[title] = struct{}{}
	return true
}

// AddAll inserts titles and returns how many were new
func (s *TitleSet) AddAll(titles []string) int {
	added := 0
	for _, t := range titles {
		if s.Add(t) {
			added++
		}
	}
	return added
}

// Contains reports whether title is in the set
func (s *TitleSet) Contains(title string) bool {
	_, ok := s.titles[title]
	return ok
}

// Len returns the number of distinct titles
func (s *TitleSet) Len() int {
	return len(s.titles)
}

// Finalize returns the set's titles in ascending byte order. The set is not
// modified, so calling it again yields the same list.
func Finalize(set *TitleSet) []string {
	if set == nil {
		return []string{}
	}
	out := make([]string, 0, len(set.titles))
	for t := range set.titles {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}
