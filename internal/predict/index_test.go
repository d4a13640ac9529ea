package predict

import (
	"errors"
	"reflect"
	"testing"

	"cetpredict/internal"
)

func fixtureRecords() []internal.CutoffRecord {
	return []internal.CutoffRecord{
		{Course: "ENGG", Branch: "AI", Category: "GM", CutoffRank: 100},
		{Course: "ENGG", Branch: "AI", Category: "1G", CutoffRank: 50},
		{Course: "ENGG", Branch: "CE", Category: "1G", CutoffRank: 30},
		{Course: "PHARMA", Branch: "PH", Category: "GM", CutoffRank: 400},
	}
}

func TestBuildIndexRejectsEmptyCorpus(t *testing.T) {
	_, err := BuildIndex(nil)
	if !errors.Is(err, ErrEmptyCorpus) {
		t.Fatalf("err=%v", err)
	}
}

func TestIndexDistinctViews(t *testing.T) {
	idx, err := BuildIndex(fixtureRecords())
	if err != nil {
		t.Fatal(err)
	}

	if got := idx.Courses(); !reflect.DeepEqual(got, []string{"ENGG", "PHARMA"}) {
		t.Fatalf("courses=%v", got)
	}
	if got := idx.Categories(""); !reflect.DeepEqual(got, []string{"1G", "GM"}) {
		t.Fatalf("categories=%v", got)
	}
	if got := idx.Categories("PHARMA"); !reflect.DeepEqual(got, []string{"GM"}) {
		t.Fatalf("pharma categories=%v", got)
	}
	if got := idx.Branches(""); !reflect.DeepEqual(got, []string{"AI", "CE", "PH"}) {
		t.Fatalf("branches=%v", got)
	}
	if got := idx.Branches("ENGG"); !reflect.DeepEqual(got, []string{"AI", "CE"}) {
		t.Fatalf("engg branches=%v", got)
	}
}

func TestIndexViewsAreCopies(t *testing.T) {
	idx, err := BuildIndex(fixtureRecords())
	if err != nil {
		t.Fatal(err)
	}

	first := idx.Courses()
	first[0] = "mutated"
	if second := idx.Courses(); second[0] != "ENGG" {
		t.Fatalf("courses view aliased internal state: %v", second)
	}
}

func TestIndexCopiesInputRecords(t *testing.T) {
	records := fixtureRecords()
	idx, err := BuildIndex(records)
	if err != nil {
		t.Fatal(err)
	}

	records[0].CutoffRank = 1
	out, err := idx.Query(Params{Category: "GM", Rank: 100})
	if err != nil {
		t.Fatal(err)
	}
	if len(out) == 0 || out[0].CutoffRank != 100 {
		t.Fatalf("out=%+v", out)
	}
}
