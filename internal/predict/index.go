package predict

import (
	"sort"

	"cetpredict/internal"
)

// Index holds the concatenated canonical records of all normalized sources,
// plus the distinct value sets queries validate against. It is built once
// and never mutated; rebuilding means constructing a new instance, so it is
// safe to share across concurrent readers without locking.
type Index struct {
	records []internal.CutoffRecord

	courses    []string
	categories []string
	branches   []string

	courseSet   map[string]struct{}
	categorySet map[string]struct{}
	branchSet   map[string]struct{}

	categoriesByCourse map[string][]string
	branchesByCourse   map[string][]string
	branchSetByCourse  map[string]map[string]struct{}
}

func BuildIndex(records []internal.CutoffRecord) (*Index, error) {
	if len(records) == 0 {
		return nil, ErrEmptyCorpus
	}

	idx := &Index{
		records:            make([]internal.CutoffRecord, len(records)),
		courseSet:          map[string]struct{}{},
		categorySet:        map[string]struct{}{},
		branchSet:          map[string]struct{}{},
		categoriesByCourse: map[string][]string{},
		branchesByCourse:   map[string][]string{},
		branchSetByCourse:  map[string]map[string]struct{}{},
	}
	copy(idx.records, records)

	categoriesByCourse := map[string]map[string]struct{}{}
	for _, r := range idx.records {
		idx.courseSet[r.Course] = struct{}{}
		idx.categorySet[r.Category] = struct{}{}
		idx.branchSet[r.Branch] = struct{}{}

		if _, ok := idx.branchSetByCourse[r.Course]; !ok {
			idx.branchSetByCourse[r.Course] = map[string]struct{}{}
			categoriesByCourse[r.Course] = map[string]struct{}{}
		}
		idx.branchSetByCourse[r.Course][r.Branch] = struct{}{}
		categoriesByCourse[r.Course][r.Category] = struct{}{}
	}

	idx.courses = sortedKeys(idx.courseSet)
	idx.categories = sortedKeys(idx.categorySet)
	idx.branches = sortedKeys(idx.branchSet)
	for course, set := range idx.branchSetByCourse {
		idx.branchesByCourse[course] = sortedKeys(set)
	}
	for course, set := range categoriesByCourse {
		idx.categoriesByCourse[course] = sortedKeys(set)
	}

	return idx, nil
}

func (x *Index) Size() int {
	return len(x.records)
}

// Courses returns the sorted distinct course codes.
func (x *Index) Courses() []string {
	return copied(x.courses)
}

// Categories returns the sorted distinct category codes, scoped to a course
// when one is given.
func (x *Index) Categories(course string) []string {
	if course == "" {
		return copied(x.categories)
	}
	return copied(x.categoriesByCourse[course])
}

// Branches returns the sorted distinct branch codes, scoped to a course when
// one is given.
func (x *Index) Branches(course string) []string {
	if course == "" {
		return copied(x.branches)
	}
	return copied(x.branchesByCourse[course])
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func copied(values []string) []string {
	out := make([]string, len(values))
	copy(out, values)
	return out
}
