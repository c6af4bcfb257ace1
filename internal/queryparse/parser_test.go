package queryparse

import "testing"

func TestParseScalarIsEQ(t *testing.T) {
	q, err := Parse(map[string]interface{}{"city": "NYC"})
	if err != nil {
		t.Fatal(err)
	}
	conds := q.Conditions["city"]
	if len(conds) != 1 || conds[0].Op != EQ || conds[0].Value != "NYC" {
		t.Errorf("got %+v, want single EQ condition", conds)
	}
}

func TestParseMultiOperator(t *testing.T) {
	q, err := Parse(map[string]interface{}{
		"age": map[string]interface{}{"$gte": 18.0, "$lt": 30.0},
	})
	if err != nil {
		t.Fatal(err)
	}
	conds := q.Conditions["age"]
	if len(conds) != 2 {
		t.Fatalf("got %d conditions, want 2", len(conds))
	}
}

func TestParseBetweenRequiresTwoElements(t *testing.T) {
	_, err := Parse(map[string]interface{}{
		"age": map[string]interface{}{"$between": []interface{}{1.0}},
	})
	if err == nil {
		t.Error("expected error for $between with wrong arity")
	}
}

func TestParseUnknownOperator(t *testing.T) {
	_, err := Parse(map[string]interface{}{
		"age": map[string]interface{}{"$nope": 1.0},
	})
	if err == nil {
		t.Error("expected error for unknown operator")
	}
}

func TestAllTagExpressible(t *testing.T) {
	q, _ := Parse(map[string]interface{}{"age": map[string]interface{}{"$gte": 1.0}})
	if !q.AllTagExpressible() {
		t.Error("GTE should be tag-expressible")
	}
	q, _ = Parse(map[string]interface{}{"age": map[string]interface{}{"$in": []interface{}{1.0, 2.0}}})
	if q.AllTagExpressible() {
		t.Error("IN should not be tag-expressible")
	}
}
