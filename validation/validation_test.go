package validation

import "testing"

type sample struct {
	Name  string `json:"name" validate:"required,max=5"`
	Email string `json:"email" validate:"omitempty,email"`
	State string `json:"state" validate:"oneof=A B"`
}

func TestStruct(t *testing.T) {
	tests := []struct {
		name string
		in   sample
		want Violations
	}{
		{"valid", sample{Name: "ok", State: "A"}, Violations{}},
		{"missing name", sample{State: "A"}, Violations{"name": "required"}},
		{"too long", sample{Name: "toolong", State: "B"}, Violations{"name": "too_long"}},
		{"bad email", sample{Name: "x", Email: "nope", State: "A"}, Violations{"email": "invalid_email"}},
		{"bad choice", sample{Name: "x", State: "C"}, Violations{"state": "invalid_choice"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Struct(tt.in)
			if len(got) != len(tt.want) {
				t.Fatalf("Struct() = %v, want %v", got, tt.want)
			}
			for k, v := range tt.want {
				if got[k] != v {
					t.Errorf("field %s = %q, want %q", k, got[k], v)
				}
			}
		})
	}
}

func TestRequired(t *testing.T) {
	v := Violations{}
	Required("name", "   ", v)
	if v["name"] != "required" {
		t.Fatalf("expected required violation, got %v", v)
	}
	if v.Empty() {
		t.Fatalf("expected non-empty violations")
	}
}

func TestAddKeepsFirst(t *testing.T) {
	v := Violations{}
	v.Add("a", "first")
	v.Add("a", "second")
	if v["a"] != "first" {
		t.Fatalf("expected first violation kept, got %q", v["a"])
	}
}

type lineSample struct {
	Description string `json:"description" validate:"max=3"`
}

type parentSample struct {
	Lines []lineSample `json:"lines" validate:"dive"`
}

func TestStructIndexedPaths(t *testing.T) {
	got := Struct(parentSample{Lines: []lineSample{{"ok"}, {"toolong"}}})
	if len(got) != 1 || got["lines.1.description"] != "too_long" {
		t.Fatalf("Struct() = %v, want lines.1.description=too_long", got)
	}
}
