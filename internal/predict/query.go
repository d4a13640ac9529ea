package predict

import (
	"sort"

	"cetpredict/internal"
)

// Params describes one eligibility query. Category and Rank are required;
// Course and Branch narrow the search when given.
type Params struct {
	Course   string
	Category string
	Branch   string
	Rank     int
}

// BranchCutoff is one eligible branch inside a college group.
type BranchCutoff struct {
	Branch     string `json:"branch"`
	CutoffRank int    `json:"cutoff_rank"`
}

// CollegeGroup collects a college's eligible branches, ordered by ascending
// cutoff rank.
type CollegeGroup struct {
	CollegeCode string         `json:"code"`
	CollegeName string         `json:"college_name"`
	Branches    []BranchCutoff `json:"branches"`
}

// Query returns the records the applicant is eligible for, most selective
// first. A record admits the applicant when its cutoff rank is numerically
// greater than or equal to the applicant's rank: the cutoff is the rank of
// the last candidate admitted in the previous round, so a larger cutoff is
// the looser one. No matches is an empty result, not an error.
func (x *Index) Query(p Params) ([]internal.CutoffRecord, error) {
	if err := x.validate(p); err != nil {
		return nil, err
	}
	return x.filter(p), nil
}

// GroupedQuery answers a branch-less query grouped by college identity.
// Groups appear at the position of their best matching cutoff in the
// rank-sorted sequence.
func (x *Index) GroupedQuery(p Params) ([]CollegeGroup, error) {
	p.Branch = ""
	if err := x.validate(p); err != nil {
		return nil, err
	}

	matched := x.filter(p)
	out := []CollegeGroup{}
	position := map[string]int{}
	for _, r := range matched {
		key := r.CollegeCode + "\x00" + r.CollegeName
		idx, seen := position[key]
		if !seen {
			idx = len(out)
			position[key] = idx
			out = append(out, CollegeGroup{CollegeCode: r.CollegeCode, CollegeName: r.CollegeName})
		}
		out[idx].Branches = append(out[idx].Branches, BranchCutoff{Branch: r.Branch, CutoffRank: r.CutoffRank})
	}
	return out, nil
}

func (x *Index) validate(p Params) error {
	if _, ok := x.categorySet[p.Category]; !ok {
		return UnknownCategoryError{Category: p.Category}
	}
	if p.Branch != "" {
		branchSet := x.branchSet
		if p.Course != "" {
			branchSet = x.branchSetByCourse[p.Course]
		}
		if _, ok := branchSet[p.Branch]; !ok {
			return UnknownBranchError{Branch: p.Branch}
		}
	}
	if p.Course != "" {
		if _, ok := x.courseSet[p.Course]; !ok {
			return UnknownCourseError{Course: p.Course}
		}
	}
	return nil
}

func (x *Index) filter(p Params) []internal.CutoffRecord {
	out := []internal.CutoffRecord{}
	for _, r := range x.records {
		if r.Category != p.Category {
			continue
		}
		if p.Course != "" && r.Course != p.Course {
			continue
		}
		if p.Branch != "" && r.Branch != p.Branch {
			continue
		}
		if r.CutoffRank < p.Rank {
			continue
		}
		out = append(out, r)
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].CutoffRank < out[j].CutoffRank })
	return out
}
