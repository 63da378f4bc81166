package index

import "fmt"

// Occurrence records a single place a word was seen in the corpus.
type Occurrence struct {
	Filename  string `json:"filename"`
	PageIndex int    `json:"page_index"`
	Position  int    `json:"position"`
}

func (o Occurrence) String() string {
	return fmt.Sprintf("%s:%d:%d", o.Filename, o.PageIndex, o.Position)
}

// OccurrenceList is the ordered list of occurrences stored for a word.
type OccurrenceList []Occurrence

// Files returns the distinct filenames in the list, in first-seen order.
func (l OccurrenceList) Files() []string {
	seen := make(map[string]struct{}, len(l))
	files := make([]string, 0)
	for _, o := range l {
		if _, ok := seen[o.Filename]; ok {
			continue
		}
		seen[o.Filename] = struct{}{}
		files = append(files, o.Filename)
	}
	return files
}
