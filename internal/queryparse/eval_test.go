package queryparse

import "testing"

func TestMatchesAbsentFieldFailsEveryOp(t *testing.T) {
	doc := map[string]interface{}{}
	for _, pred := range []map[string]interface{}{
		{"age": 30.0},
		{"age": map[string]interface{}{"$gt": 1.0}},
		{"age": map[string]interface{}{"$in": []interface{}{1.0}}},
		{"age": map[string]interface{}{"$nin": []interface{}{1.0}}},
	} {
		q, err := Parse(pred)
		if err != nil {
			t.Fatal(err)
		}
		if Matches(doc, q) {
			t.Errorf("pred %+v matched an absent field, want false", pred)
		}
	}
}

func TestMatchesBetweenInclusive(t *testing.T) {
	q, _ := Parse(map[string]interface{}{"age": map[string]interface{}{"$between": []interface{}{26.0, 34.0}}})
	for _, tc := range []struct {
		age  float64
		want bool
	}{
		{25, false},
		{26, true},
		{30, true},
		{34, true},
		{35, false},
	} {
		got := Matches(map[string]interface{}{"age": tc.age}, q)
		if got != tc.want {
			t.Errorf("age=%v: got %v, want %v", tc.age, got, tc.want)
		}
	}
}

func TestMatchesMixedTypeComparisonFails(t *testing.T) {
	q, _ := Parse(map[string]interface{}{"age": map[string]interface{}{"$gt": "thirty"}})
	if Matches(map[string]interface{}{"age": 40.0}, q) {
		t.Error("comparing number to string should fail the predicate, not match")
	}
}

func TestMatchesConjunction(t *testing.T) {
	q, _ := Parse(map[string]interface{}{"age": 30.0, "city": "NYC"})
	if !Matches(map[string]interface{}{"age": 30.0, "city": "NYC", "prof": "Eng"}, q) {
		t.Error("want match")
	}
	if Matches(map[string]interface{}{"age": 30.0, "city": "LA"}, q) {
		t.Error("want no match")
	}
}
