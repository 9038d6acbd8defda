package domain

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/cockroachdb/apd/v3"
)

func TestParseBound(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"0...10", "[0,10)"},
		{"10..20", "[10,20)"},
		{" 1.5 ... 2.25 ", "[1.5,2.25)"},
		{"-Infinity...Infinity", "(-Infinity,Infinity)"},
		{"-Infinity...5", "(-Infinity,5)"},
		{"5...Infinity", "[5,Infinity)"},
	}
	for _, c := range cases {
		r, err := ParseBound(c.in)
		if err != nil {
			t.Fatalf("ParseBound(%q): %v", c.in, err)
		}
		if got := r.String(); got != c.want {
			t.Errorf("ParseBound(%q) = %s, want %s", c.in, got, c.want)
		}
	}
}

func TestParseBoundBlank(t *testing.T) {
	for _, in := range []string{"", "   "} {
		r, err := ParseBound(in)
		if err != nil || r != nil {
			t.Fatalf("ParseBound(%q) = %v, %v; want nil, nil", in, r, err)
		}
	}
}

func TestParseBoundRejectsGarbage(t *testing.T) {
	for _, in := range []string{"10", "a...b", "1...2...3", "NaN...1"} {
		if _, err := ParseBound(in); !errors.Is(err, ErrInvalidInput) {
			t.Errorf("ParseBound(%q) error = %v, want invalid input", in, err)
		}
	}
}

func TestRangeContains(t *testing.T) {
	r, err := ParseBound("0...10")
	if err != nil {
		t.Fatal(err)
	}
	if !r.Contains(apd.New(0, 0)) || r.Contains(apd.New(10, 0)) || !r.Contains(apd.New(95, -1)) {
		t.Fatalf("unexpected membership for %s", r)
	}
	open, _ := ParseBound("-Infinity...Infinity")
	if !open.Unbounded() || !open.Contains(apd.New(-1, 9)) {
		t.Fatalf("open range %s should contain everything", open)
	}
}

func TestRangeJSONAndClone(t *testing.T) {
	r, _ := ParseBound("10...20")
	b, err := json.Marshal(r)
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != `"[10,20)"` {
		t.Fatalf("marshal = %s", b)
	}
	var back Range
	if err := json.Unmarshal(b, &back); err != nil {
		t.Fatal(err)
	}
	if back.String() != r.String() {
		t.Fatalf("decoded %s, want %s", back.String(), r)
	}
	cp := r.Clone()
	cp.Lower.Set(apd.New(11, 0))
	if r.Lower.Cmp(apd.New(10, 0)) != 0 {
		t.Fatal("clone shares lower bound")
	}
	var nilRange *Range
	if nilRange.Clone() != nil {
		t.Fatal("nil clone should stay nil")
	}
}

func TestErrorsMatchSentinels(t *testing.T) {
	if !errors.Is(NotFoundError{Entity: EntitySample, ID: "1"}, ErrNotFound) {
		t.Fatal("NotFoundError should match ErrNotFound")
	}
	if !errors.Is(AlreadyExistsError{Entity: EntitySample, ID: "1"}, ErrAlreadyExists) {
		t.Fatal("AlreadyExistsError should match ErrAlreadyExists")
	}
	err := ValidationError{Entity: EntityCollection, Field: "label", Message: "required"}
	if !errors.Is(err, ErrInvalidInput) || err.Error() != `Collection: validation failed for field "label": required` {
		t.Fatalf("unexpected validation error %q", err)
	}
}

func TestEntityTypeClassification(t *testing.T) {
	if !IsReactionRole(EntityReactionProduct) || IsReactionRole(EntitySample) {
		t.Fatal("reaction role classification wrong")
	}
	for _, typ := range []EntityType{EntitySample, EntityReaction, EntityWellplate, EntityScreen, EntityResearchPlan} {
		if !IsContainable(typ) {
			t.Errorf("%s should own containers", typ)
		}
	}
	if IsCollectionMember(EntityContainer) {
		t.Fatal("containers are not collection members")
	}
}
