package intent

import "testing"

func TestInferName(t *testing.T) {
	cases := []struct {
		name    string
		message string
		want    string
		wantOK  bool
	}{
		{"my name is", "My name is john smith", "John Smith", true},
		{"i am", "i am Priya", "Priya", true},
		{"name colon", "name: bob", "Bob", true},
		{"cue without extractable run", "name", "", false},
		{"no cue at all", "hello there", "", false},
		{"mixed case preserved as title", "MY NAME IS ANNA LEE", "Anna Lee", true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := InferName(tc.message)
			if ok != tc.wantOK {
				t.Fatalf("InferName(%q) ok = %v, want %v", tc.message, ok, tc.wantOK)
			}
			if got != tc.want {
				t.Errorf("InferName(%q) = %q, want %q", tc.message, got, tc.want)
			}
		})
	}
}
