package predict

import (
	"errors"
	"fmt"
)

// ErrEmptyCorpus refuses an index over no data: serving empty results as if
// the corpus were legitimately loaded would mask a broken ingest.
var ErrEmptyCorpus = errors.New("cutoff corpus is empty")

type UnknownCategoryError struct {
	Category string
}

func (e UnknownCategoryError) Error() string {
	return fmt.Sprintf("unknown category %q", e.Category)
}

type UnknownBranchError struct {
	Branch string
}

func (e UnknownBranchError) Error() string {
	return fmt.Sprintf("unknown branch %q", e.Branch)
}

type UnknownCourseError struct {
	Course string
}

func (e UnknownCourseError) Error() string {
	return fmt.Sprintf("unknown course %q", e.Course)
}
