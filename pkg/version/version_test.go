package version

import (
	"testing"
)

func TestParse_Valid(t *testing.T) {
	tests := []struct {
		input string
		major uint16
		minor uint16
	}{
		{"v1.0", 1, 0},
		{"v1.1", 1, 1},
		{"1.1", 1, 1},
		{"v10.23", 10, 23},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			v, err := Parse(tt.input)
			if err != nil {
				t.Fatalf("Parse(%q) returned error: %v", tt.input, err)
			}
			if v.Major != tt.major {
				t.Errorf("Major = %d, want %d", v.Major, tt.major)
			}
			if v.Minor != tt.minor {
				t.Errorf("Minor = %d, want %d", v.Minor, tt.minor)
			}
		})
	}
}

func TestParse_Invalid(t *testing.T) {
	tests := []string{
		"",
		"v",
		"v1",
		"abc",
		"v1.0.0",
		"v.1",
		"v1.",
		"vv1.1",
		"v-1.0",
		"v65536.0",
	}

	for _, input := range tests {
		t.Run(input, func(t *testing.T) {
			if _, err := Parse(input); err == nil {
				t.Errorf("Parse(%q) expected error, got nil", input)
			}
		})
	}
}

func TestString(t *testing.T) {
	v := ProtocolVersion{Major: 1, Minor: 1}
	if got := v.String(); got != Current {
		t.Errorf("String() = %q, want %q", got, Current)
	}
}

func TestCompatible(t *testing.T) {
	tests := []struct {
		a, b string
		want bool
	}{
		{"v1.0", "v1.1", true},
		{"v1.1", "v1.0", true},
		{"v1.1", "v2.0", false},
		{"v2.3", "v2.3", true},
	}

	for _, tt := range tests {
		t.Run(tt.a+"_"+tt.b, func(t *testing.T) {
			if got := MustParse(tt.a).Compatible(MustParse(tt.b)); got != tt.want {
				t.Errorf("%s.Compatible(%s) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestCompatibleWithCurrent(t *testing.T) {
	ok, err := CompatibleWithCurrent("v1.0")
	if err != nil || !ok {
		t.Errorf("v1.0: got %v, %v; want true, nil", ok, err)
	}

	ok, err = CompatibleWithCurrent("v2.0")
	if err != nil || ok {
		t.Errorf("v2.0: got %v, %v; want false, nil", ok, err)
	}

	if _, err := CompatibleWithCurrent("garbage"); err == nil {
		t.Error("expected error for unparseable version")
	}
}

func TestMustParsePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic")
		}
	}()
	MustParse("nope")
}
