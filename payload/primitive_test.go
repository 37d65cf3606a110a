package payload

import (
	"bytes"
	"math"
	"testing"
	"time"

	"github.com/Comcast/quill/model"
)

func TestPrimitiveName(t *testing.T) {
	tests := []struct {
		v    interface{}
		want string
	}{
		{true, model.Boolean},
		{int32(1), model.Int32},
		{7, model.Int64},
		{1.5, model.Double},
		{float32(1.5), model.Single},
		{Decimal("1.10"), model.Decimal},
		{"x", model.String},
		{[]byte("x"), model.Binary},
		{time.Now(), model.DateTimeOffset},
		{time.Second, model.Duration},
	}
	for _, tc := range tests {
		got, ok := PrimitiveName(tc.v)
		if !ok || got != tc.want {
			t.Errorf("PrimitiveName(%#v) = %q, want %q", tc.v, got, tc.want)
		}
	}
	if _, ok := PrimitiveName(struct{}{}); ok {
		t.Error("struct shouldn't be primitive")
	}
}

func TestCompatible(t *testing.T) {
	tests := []struct {
		primitive string
		v         interface{}
		want      bool
	}{
		{model.Int32, 5, true},
		{model.Int32, float64(5), true},
		{model.Int32, 5.5, false},
		{model.Int32, int64(math.MaxInt32) + 1, false},
		{model.Byte, -1, false},
		{model.Byte, uint8(200), true},
		{model.Int64, uint64(math.MaxUint64), false},
		{model.Double, 3, true},
		{model.Decimal, Decimal("3.14"), true},
		{model.String, 3, false},
		{model.Boolean, "true", false},
		{model.Guid, "01234567-89ab-cdef-0123-456789ABCDEF", true},
		{model.Guid, "not-a-guid", false},
		{model.Date, "2024-02-29", true},
		{model.Date, "2024-13-01", false},
		{model.TimeOfDay, "23:59:59.5", true},
		{model.DateTimeOffset, "2024-02-29T10:00:00Z", true},
		{model.DateTimeOffset, time.Now(), true},
		{model.Duration, "PT5S", true},
		{model.Duration, "-P1D", true},
		{model.Duration, "5s", false},
		{model.Binary, []byte{1}, true},
		{model.Stream, bytes.NewReader(nil), false},
	}
	for _, tc := range tests {
		if got := Compatible(tc.primitive, tc.v); got != tc.want {
			t.Errorf("Compatible(%s, %#v) = %v, want %v", tc.primitive, tc.v, got, tc.want)
		}
	}
}

func TestScalarAndStream(t *testing.T) {
	if !IsScalar(nil) || !IsScalar(EnumValue{Value: "Red"}) || !IsScalar(42) {
		t.Fatal("expected scalars")
	}
	if IsScalar(&CollectionValue{}) || IsScalar(map[string]interface{}{}) {
		t.Fatal("unexpected scalar")
	}
	if !IsStream(bytes.NewReader(nil)) || !IsStream(&StreamReference{}) || IsStream("x") {
		t.Fatal("stream detection is wrong")
	}
}
