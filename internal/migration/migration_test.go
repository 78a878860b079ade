package migration

import (
	"errors"
	"reflect"
	"sync"
	"testing"

	"github.com/surmigrate/surmigrate/internal/apperr"
	"github.com/surmigrate/surmigrate/internal/source"
)

func files(names ...string) []source.File {
	out := make([]source.File, 0, len(names))
	for _, n := range names {
		out = append(out, source.File{Name: n, Path: "migrations/" + n})
	}
	return out
}

func fileNames(fs []File) []string {
	out := make([]string, 0, len(fs))
	for _, f := range fs {
		out = append(out, f.Name)
	}
	return out
}

func TestClassifyFile(t *testing.T) {
	tests := []struct {
		name     string
		wantKind Kind
		wantID   string
	}{
		{"001-init.sql", OneOff, "001"},
		{"20-seed.sql", OneOff, "20"},
		{"12345678901234567890_big.surql", OneOff, "12345678901234567890"},
		{"7.sql", OneOff, "7"},
		{"ensure_index.sql", Idempotent, ""},
		{"v2-views.sql", Idempotent, ""},
		{"-1-negative.sql", Idempotent, ""},
		{" 1-leading-space.sql", Idempotent, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ClassifyFile(source.File{Name: tt.name})
			if got.Kind != tt.wantKind {
				t.Errorf("Kind = %v, want %v", got.Kind, tt.wantKind)
			}
			if got.ID != tt.wantID {
				t.Errorf("ID = %q, want %q", got.ID, tt.wantID)
			}
		})
	}
}

func TestClassifyIsDeterministic(t *testing.T) {
	input := files("001-init.sql", "ensure_index.sql", "20-seed.sql", "views.surql")

	first := Classify(input)
	second := Classify(input)

	if !reflect.DeepEqual(first, second) {
		t.Fatalf("Classify is not deterministic: %v vs %v", first, second)
	}
	for _, f := range first {
		if f.Kind != OneOff && f.Kind != Idempotent {
			t.Errorf("%s has unexpected kind %v", f.Name, f.Kind)
		}
	}
}

func TestSortKey(t *testing.T) {
	oneOff := ClassifyFile(source.File{Name: "001-init.sql"})
	if oneOff.SortKey() != "001" {
		t.Errorf("one-off SortKey() = %q, want 001", oneOff.SortKey())
	}

	idem := ClassifyFile(source.File{Name: "ensure_index.sql"})
	if idem.SortKey() != "ensure_index.sql" {
		t.Errorf("idempotent SortKey() = %q, want ensure_index.sql", idem.SortKey())
	}
}

func TestOrderNumericAware(t *testing.T) {
	plan := Order(Classify(files("10-a.sql", "2-b.sql", "1-c.sql")))

	want := []string{"1-c.sql", "2-b.sql", "10-a.sql"}
	if got := fileNames(plan.OneOffs); !reflect.DeepEqual(got, want) {
		t.Errorf("OneOffs = %v, want %v", got, want)
	}
	if len(plan.Idempotents) != 0 {
		t.Errorf("expected no idempotents, got %v", fileNames(plan.Idempotents))
	}
}

func TestOrderIdempotentsByName(t *testing.T) {
	plan := Order(Classify(files("view10.sql", "view2.sql", "Beta.sql", "alpha.sql")))

	want := []string{"alpha.sql", "Beta.sql", "view2.sql", "view10.sql"}
	if got := fileNames(plan.Idempotents); !reflect.DeepEqual(got, want) {
		t.Errorf("Idempotents = %v, want %v", got, want)
	}
}

func TestOrderIsStableForEqualKeys(t *testing.T) {
	plan := Order(Classify(files("b.sql", "B.sql", "a.sql")))

	want := []string{"a.sql", "b.sql", "B.sql"}
	if got := fileNames(plan.Idempotents); !reflect.DeepEqual(got, want) {
		t.Errorf("Idempotents = %v, want %v", got, want)
	}
}

func TestOrderSeparatesKinds(t *testing.T) {
	plan := Order(Classify(files("ensure_index.sql", "20-seed.sql", "001-init.sql")))

	if got := fileNames(plan.OneOffs); !reflect.DeepEqual(got, []string{"001-init.sql", "20-seed.sql"}) {
		t.Errorf("OneOffs = %v", got)
	}
	if got := fileNames(plan.Idempotents); !reflect.DeepEqual(got, []string{"ensure_index.sql"}) {
		t.Errorf("Idempotents = %v", got)
	}
}

func TestCompare(t *testing.T) {
	tests := []struct {
		a, b string
		sign int
	}{
		{"2", "10", -1},
		{"10", "2", 1},
		{"abc", "ABC", 0},
		{"a", "b", -1},
	}

	for _, tt := range tests {
		t.Run(tt.a+"_"+tt.b, func(t *testing.T) {
			got := Compare(tt.a, tt.b)
			switch {
			case tt.sign < 0 && got >= 0, tt.sign > 0 && got <= 0, tt.sign == 0 && got != 0:
				t.Errorf("Compare(%q, %q) = %d, want sign %d", tt.a, tt.b, got, tt.sign)
			}
		})
	}
}

func TestCompareConcurrent(t *testing.T) {
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				if Compare("2-b", "10-a") >= 0 {
					t.Error("expected 2-b before 10-a")
					return
				}
			}
		}()
	}
	wg.Wait()
}

func TestOrderMatchesCompare(t *testing.T) {
	plan := Order(Classify(files("b.sql", "A.sql", "a.sql", "10.sql", "9.sql")))

	for _, seq := range [][]File{plan.OneOffs, plan.Idempotents} {
		for i := 1; i < len(seq); i++ {
			if Compare(seq[i-1].SortKey(), seq[i].SortKey()) > 0 {
				t.Errorf("%s sorted before %s", seq[i-1].Name, seq[i].Name)
			}
		}
	}
	if got := fileNames(plan.Idempotents); !reflect.DeepEqual(got, []string{"A.sql", "a.sql", "b.sql"}) {
		t.Errorf("Idempotents = %v, want case ties in input order", got)
	}
}

func TestBuildRejectsDuplicateIDs(t *testing.T) {
	_, err := Build(Classify(files("001-init.sql", "001-other.sql", "ensure.sql")))
	if err == nil {
		t.Fatal("Expected duplicate id error, got nil")
	}
	if !errors.Is(err, apperr.ErrDuplicateID) {
		t.Errorf("Expected DuplicateID error, got %v", err)
	}
}

func TestBuildAllowsDistinctIDs(t *testing.T) {
	plan, err := Build(Classify(files("1-a.sql", "01-b.sql")))
	if err != nil {
		t.Fatalf("Build returned error: %v", err)
	}
	if len(plan.OneOffs) != 2 {
		t.Errorf("expected 2 one-offs, got %d", len(plan.OneOffs))
	}
}

func TestKindString(t *testing.T) {
	if OneOff.String() != "one-off" {
		t.Errorf("OneOff.String() = %q", OneOff.String())
	}
	if Idempotent.String() != "idempotent" {
		t.Errorf("Idempotent.String() = %q", Idempotent.String())
	}
}
