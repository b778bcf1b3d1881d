package config

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestCoerceScalars(t *testing.T) {
	cases := []struct {
		name string
		node any
		kind Kind
		want any
	}{
		{"bool", true, KindBool, true},
		{"string", "abc", KindString, "abc"},
		{"int", int64(-5), KindInt, int64(-5)},
		{"int from json.Number", json.Number("12"), KindInt, int64(12)},
		{"uint from non-negative int", int64(7), KindUint, uint64(7)},
		{"uint above MaxInt64", json.Number("9223372036854775808"), KindUint, uint64(9223372036854775808)},
		{"float", 1.5, KindFloat, 1.5},
		{"float from json.Number", json.Number("1.5"), KindFloat, 1.5},
		{"float from int", int64(3), KindFloat, 3.0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, lossy, err := coerce(tc.node, tc.kind)
			if err != nil {
				t.Fatalf("coerce(%v, %s) returned error: %v", tc.node, tc.kind, err)
			}
			if lossy {
				t.Errorf("coerce(%v, %s) reported lossy", tc.node, tc.kind)
			}
			if got != tc.want {
				t.Errorf("coerce(%v, %s) = %v (%T), want %v (%T)", tc.node, tc.kind, got, got, tc.want, tc.want)
			}
		})
	}
}

func TestCoerceRejectsMismatches(t *testing.T) {
	cases := []struct {
		name string
		node any
		kind Kind
	}{
		{"string to bool", "true", KindBool},
		{"bool to string", true, KindString},
		{"int to string", int64(1), KindString},
		{"string to int", "1", KindInt},
		{"float to int", 1.0, KindInt},
		{"negative to uint", int64(-1), KindUint},
		{"string to float", "1.5", KindFloat},
		{"array to scalar", []any{int64(1)}, KindInt},
		{"scalar to list", int64(1), KindIntList},
		{"object to scalar", map[string]any{}, KindInt},
		{"mixed list", []any{int64(1), "two"}, KindIntList},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, _, err := coerce(tc.node, tc.kind); err == nil {
				t.Errorf("coerce(%v, %s) succeeded, want mismatch", tc.node, tc.kind)
			}
		})
	}
}

func TestCoerceLists(t *testing.T) {
	got, lossy, err := coerce([]any{int64(4), int64(5), int64(6)}, KindUintList)
	if err != nil {
		t.Fatalf("coerce returned error: %v", err)
	}
	if lossy {
		t.Error("coerce reported lossy")
	}
	if diff := cmp.Diff([]uint64{4, 5, 6}, got); diff != "" {
		t.Errorf("coerced list mismatch (-want +got):\n%s", diff)
	}
}

func TestCoerceIntToFloatLossy(t *testing.T) {
	// 2^53 + 1 is the first integer float64 cannot represent.
	_, lossy, err := coerce(int64(1<<53+1), KindFloat)
	if err != nil {
		t.Fatalf("coerce returned error: %v", err)
	}
	if !lossy {
		t.Error("coerce(2^53+1, float) did not report lossy")
	}

	_, lossy, err = coerce(int64(1<<53), KindFloat)
	if err != nil {
		t.Fatalf("coerce returned error: %v", err)
	}
	if lossy {
		t.Error("coerce(2^53, float) reported lossy for an exact value")
	}
}

func TestRender(t *testing.T) {
	cases := []struct {
		data any
		want string
	}{
		{true, "true"},
		{"abc", `"abc"`},
		{int64(-5), "-5"},
		{uint64(7), "7"},
		{1.5, "1.500000"},
		{[]int64{4, 5, 6}, "[4, 5, 6]"},
		{[]string{"a", "b"}, `["a", "b"]`},
		{[]float64{0.5}, "[0.500000]"},
	}

	for _, tc := range cases {
		value := newValue(kindOf(tc.data))
		value.assign(tc.data)
		if got := value.Render(); got != tc.want {
			t.Errorf("Render(%v) = %q, want %q", tc.data, got, tc.want)
		}
	}
}

func TestRenderUnset(t *testing.T) {
	value := newValue(KindInt)
	if got := value.Render(); got != "[unset]" {
		t.Errorf("unset Render() = %q, want \"[unset]\"", got)
	}
	if !value.IsUnset() {
		t.Error("fresh value is not unset")
	}
}
