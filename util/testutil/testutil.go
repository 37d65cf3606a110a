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

// Package testutil has helpers for tests of writers and encoders.
package testutil

import (
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"testing"

	"github.com/Comcast/quill/core"
)

// JS renders its argument as JSON or as a string indicating an error.
func JS(x interface{}) string {
	bs, err := json.Marshal(&x)
	if err != nil {
		log.Printf("warning: testutil.JS error %s for %#v", err, x)
		return fmt.Sprintf("%#v", x)
	}
	return string(bs)
}

// Dwimjs, when given a string or bytes that parse as JSON, returns
// the parsed value.  When given anything else, just returns what's
// given.
//
// See https://en.wikipedia.org/wiki/DWIM.
func Dwimjs(x interface{}) interface{} {
	switch vv := x.(type) {
	case []byte:
		return Dwimjs(string(vv))
	case string:
		var v interface{}
		if err := json.Unmarshal([]byte(vv), &v); err != nil {
			return vv
		}
		return v
	default:
		return x
	}
}

// SameJSON reports whether two values (see Dwimjs) are equal as JSON.
func SameJSON(x, y interface{}) bool {
	return JS(Dwimjs(x)) == JS(Dwimjs(y))
}

// ErrorClass fails the test unless err has the given core.Classify
// class and, when want isn't empty, a message containing want.
func ErrorClass(t testing.TB, err error, class, want string) {
	t.Helper()
	if got := core.Classify(err); got != class {
		t.Fatalf("expected %q error, got %q: %v", class, got, err)
	}
	if want != "" && !strings.Contains(err.Error(), want) {
		t.Fatalf("error %q doesn't contain %q", err, want)
	}
}
