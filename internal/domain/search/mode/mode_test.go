package mode

import "testing"

func TestFromUseVector(t *testing.T) {
	if FromUseVector(true) != Hybrid {
		t.Error("use_vector=true should be hybrid")
	}
	if FromUseVector(false) != Keyword {
		t.Error("use_vector=false should be keyword")
	}
}

func TestIsValid(t *testing.T) {
	tests := []struct {
		m    Mode
		want bool
	}{
		{Hybrid, true},
		{Keyword, true},
		{"semantic", false},
		{"", false},
	}
	for _, tc := range tests {
		if got := tc.m.IsValid(); got != tc.want {
			t.Errorf("%q.IsValid() = %v, want %v", tc.m, got, tc.want)
		}
	}
}

func TestUsesVector(t *testing.T) {
	if !Hybrid.UsesVector() || Keyword.UsesVector() {
		t.Error("only hybrid uses the vector clause")
	}
}
