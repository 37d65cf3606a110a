package jsonfmt

import (
	"encoding/base64"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/Comcast/quill/format"
	"github.com/Comcast/quill/model"
	"github.com/Comcast/quill/payload"
)

// value writes a scalar.  t, which may be nil, picks the lexical
// form of time values.
func (d *doc) value(v interface{}, t *model.TypeRef) error {
	d.prep()
	s := d.s
	switch x := v.(type) {
	case nil:
		s.WriteNil()
	case bool:
		s.WriteBool(x)
	case int8:
		s.WriteInt8(x)
	case uint8:
		s.WriteUint8(x)
	case int16:
		s.WriteInt16(x)
	case uint16:
		s.WriteUint16(x)
	case int32:
		s.WriteInt32(x)
	case uint32:
		s.WriteUint32(x)
	case int:
		d.int64(int64(x))
	case int64:
		d.int64(x)
	case uint:
		d.uint64(uint64(x))
	case uint64:
		d.uint64(x)
	case float32:
		d.float(float64(x), 32)
	case float64:
		d.float(x, 64)
	case payload.Decimal:
		if d.ieee754 {
			s.WriteString(string(x))
		} else {
			s.WriteRaw(string(x))
		}
	case string:
		s.WriteString(x)
	case []byte:
		s.WriteString(base64.URLEncoding.EncodeToString(x))
	case time.Time:
		s.WriteString(x.Format(format.TimeLayout(t)))
	case time.Duration:
		s.WriteString(format.ISODuration(x))
	case payload.EnumValue:
		s.WriteString(x.Value)
	case *payload.EnumValue:
		s.WriteString(x.Value)
	default:
		return fmt.Errorf("cannot encode %T as JSON", v)
	}
	return d.s.Error
}

func (d *doc) int64(n int64) {
	if d.ieee754 {
		d.s.WriteString(strconv.FormatInt(n, 10))
		return
	}
	d.s.WriteInt64(n)
}

func (d *doc) uint64(n uint64) {
	if d.ieee754 {
		d.s.WriteString(strconv.FormatUint(n, 10))
		return
	}
	d.s.WriteUint64(n)
}

func (d *doc) float(f float64, bits int) {
	switch {
	case math.IsNaN(f):
		d.s.WriteString("NaN")
	case math.IsInf(f, 1):
		d.s.WriteString("INF")
	case math.IsInf(f, -1):
		d.s.WriteString("-INF")
	case bits == 32:
		d.s.WriteFloat32(float32(f))
	default:
		d.s.WriteFloat64(f)
	}
}
