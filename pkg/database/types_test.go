package database

import (
	"strings"
	"testing"
)

func TestStringArray_ValueAndScan(t *testing.T) {
	tests := []struct {
		name string
		in   interface{}
		want []string
	}{
		{"json", `["alice","bob"]`, []string{"alice", "bob"}},
		{"json bytes", []byte(`["a,b"]`), []string{"a,b"}},
		{"postgres", `{alice,"b,ob"}`, []string{"alice", "b,ob"}},
		{"postgres empty", `{}`, []string{}},
		{"null", nil, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var a StringArray
			if err := a.Scan(tt.in); err != nil {
				t.Fatal(err)
			}
			if strings.Join(a, "|") != strings.Join(tt.want, "|") || len(a) != len(tt.want) {
				t.Errorf("got %q, want %q", a, tt.want)
			}
		})
	}

	v, err := StringArray(nil).Value()
	if err != nil || v != "[]" {
		t.Errorf("nil value = %v, %v", v, err)
	}
	v, _ = StringArray{"a", `b"c`}.Value()
	if v != `["a","b\"c"]` {
		t.Errorf("value = %v", v)
	}
}

func TestStringArray_Union(t *testing.T) {
	a := StringArray{"alice", "bob"}
	got := a.Union("bob", "", "carol", "alice", "carol")
	if strings.Join(got, ",") != "alice,bob,carol" {
		t.Errorf("union = %v", got)
	}
	if strings.Join(a, ",") != "alice,bob" {
		t.Errorf("receiver modified: %v", a)
	}
	if !got.Contains("carol") || got.Contains("dave") {
		t.Error("contains")
	}
}
