/* Copyright 2018 Comcast Cable Communications Management, LLC
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 * http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package payload

import (
	"io"
	"math"
	"strings"
	"time"

	"github.com/Comcast/quill/model"
)

// Decimal is an exact decimal number in its lexical form.
type Decimal string

// PrimitiveName returns the primitive type that a Go value maps to
// when nothing is declared.
func PrimitiveName(v interface{}) (string, bool) {
	switch v.(type) {
	case bool:
		return model.Boolean, true
	case uint8:
		return model.Byte, true
	case int8:
		return model.SByte, true
	case int16:
		return model.Int16, true
	case int32, uint16:
		return model.Int32, true
	case int, int64, uint32, uint, uint64:
		return model.Int64, true
	case float32:
		return model.Single, true
	case float64:
		return model.Double, true
	case Decimal:
		return model.Decimal, true
	case string:
		return model.String, true
	case []byte:
		return model.Binary, true
	case time.Time:
		return model.DateTimeOffset, true
	case time.Duration:
		return model.Duration, true
	}
	return "", false
}

// IsScalar reports whether v can be written as a single value: nil,
// a primitive Go value, or an enum member.
func IsScalar(v interface{}) bool {
	switch v.(type) {
	case nil, EnumValue, *EnumValue:
		return true
	}
	_, ok := PrimitiveName(v)
	return ok
}

// IsStream reports whether v is stream content rather than a value.
func IsStream(v interface{}) bool {
	switch v.(type) {
	case io.Reader, *StreamReference, StreamReference:
		return true
	}
	return false
}

// AsInt64 converts an integral value.  A float64 is accepted when it
// has no fractional part, since that's what JSON decoding produces.
func AsInt64(v interface{}) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int8:
		return int64(n), true
	case int16:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case uint:
		return int64(n), uint64(n) <= math.MaxInt64
	case uint8:
		return int64(n), true
	case uint16:
		return int64(n), true
	case uint32:
		return int64(n), true
	case uint64:
		return int64(n), n <= math.MaxInt64
	case float64:
		if n != math.Trunc(n) || n < math.MinInt64 || math.MaxInt64 <= n {
			return 0, false
		}
		return int64(n), true
	}
	return 0, false
}

var intRanges = map[string][2]int64{
	model.Byte:  {0, math.MaxUint8},
	model.SByte: {math.MinInt8, math.MaxInt8},
	model.Int16: {math.MinInt16, math.MaxInt16},
	model.Int32: {math.MinInt32, math.MaxInt32},
	model.Int64: {math.MinInt64, math.MaxInt64},
}

func isNumber(v interface{}) bool {
	switch v.(type) {
	case float32, float64:
		return true
	}
	_, ok := AsInt64(v)
	return ok
}

// Compatible reports whether the Go value v can be written as the
// named primitive type.  v must not be nil.
func Compatible(primitive string, v interface{}) bool {
	if r, is := intRanges[primitive]; is {
		n, ok := AsInt64(v)
		return ok && r[0] <= n && n <= r[1]
	}
	switch primitive {
	case model.Boolean:
		_, ok := v.(bool)
		return ok
	case model.Single, model.Double:
		return isNumber(v)
	case model.Decimal:
		if _, ok := v.(Decimal); ok {
			return true
		}
		return isNumber(v)
	case model.String:
		_, ok := v.(string)
		return ok
	case model.Binary:
		_, ok := v.([]byte)
		return ok
	case model.Guid:
		s, ok := v.(string)
		return ok && isGuid(s)
	case model.Date:
		return isTimeLike(v, "2006-01-02")
	case model.TimeOfDay:
		return isTimeLike(v, "15:04:05")
	case model.DateTimeOffset:
		return isTimeLike(v, time.RFC3339Nano)
	case model.Duration:
		switch d := v.(type) {
		case time.Duration:
			return true
		case string:
			return strings.HasPrefix(strings.TrimPrefix(d, "-"), "P")
		}
		return false
	}
	return false
}

func isTimeLike(v interface{}, layout string) bool {
	switch t := v.(type) {
	case time.Time:
		return true
	case string:
		_, err := time.Parse(layout, t)
		return err == nil
	}
	return false
}

func isGuid(s string) bool {
	if len(s) != 36 {
		return false
	}
	for i, c := range s {
		switch i {
		case 8, 13, 18, 23:
			if c != '-' {
				return false
			}
			continue
		}
		if !strings.ContainsRune("0123456789abcdefABCDEF", c) {
			return false
		}
	}
	return true
}
