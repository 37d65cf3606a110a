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

// Package match matches decoded payloads against patterns.
//
// A pattern is a decoded JSON (or YAML) value.  A string that starts
// with '?' is a variable, which matches anything and binds to what it
// matched.  '?' alone matches anything without binding.  A variable
// that starts with '??' is optional: when it's the value of a map
// key, the key doesn't have to be present.
//
// A map pattern matches a map that has at least the pattern's keys.
// An array pattern is a set: every element must match a distinct
// element of the fact's array, in any order.  Other values match
// when they're equal, with all numbers compared as float64s.
//
// Since array patterns can match in more than one way, Match
// returns every set of bindings that works.  No bindings means no
// match.
package match

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Bindings maps variables to the values they matched.
type Bindings map[string]interface{}

// Copy returns a shallow copy.
func (bs Bindings) Copy() Bindings {
	acc := make(Bindings, len(bs))
	for k, v := range bs {
		acc[k] = v
	}
	return acc
}

// ErrVariableKey is returned for a pattern map with a variable as a
// key.
var ErrVariableKey = errors.New("variable map keys are not supported")

// IsVariable reports whether x is a pattern variable.
func IsVariable(x interface{}) bool {
	s, is := x.(string)
	return is && strings.HasPrefix(s, "?")
}

func isOptional(x interface{}) bool {
	s, is := x.(string)
	return is && strings.HasPrefix(s, "??")
}

// Matches is Match with no initial bindings.
func Matches(pattern, fact interface{}) ([]Bindings, error) {
	return Match(pattern, fact, Bindings{})
}

// Match matches fact against pattern, extending the given bindings,
// which aren't modified.
func Match(pattern, fact interface{}, bs Bindings) ([]Bindings, error) {
	if bs == nil {
		bs = Bindings{}
	}
	return match(pattern, fact, bs.Copy())
}

func match(p, f interface{}, bs Bindings) ([]Bindings, error) {
	p, f = fudge(p), fudge(f)

	if s, is := p.(string); is && IsVariable(s) {
		if s == "?" {
			return []Bindings{bs}, nil
		}
		if have, bound := bs[s]; bound {
			return match(have, f, bs)
		}
		bs[s] = f
		return []Bindings{bs}, nil
	}

	switch pv := p.(type) {
	case map[string]interface{}:
		fv, is := f.(map[string]interface{})
		if !is {
			return nil, nil
		}
		return matchMap(pv, fv, bs)
	case []interface{}:
		fv, is := f.([]interface{})
		if !is {
			return nil, nil
		}
		return matchSet(pv, fv, []Bindings{bs})
	case nil, bool, string, float64:
		if p == f {
			return []Bindings{bs}, nil
		}
		return nil, nil
	}
	return nil, fmt.Errorf("unsupported pattern type %T", p)
}

func matchMap(p, f map[string]interface{}, bs Bindings) ([]Bindings, error) {
	bss := []Bindings{bs}
	for k, pv := range p {
		if IsVariable(k) {
			return nil, ErrVariableKey
		}
		fv, have := f[k]
		if !have {
			if isOptional(pv) {
				continue
			}
			return nil, nil
		}
		var acc []Bindings
		for _, bs := range bss {
			ext, err := match(pv, fv, bs.Copy())
			if err != nil {
				return nil, err
			}
			acc = append(acc, ext...)
		}
		if len(acc) == 0 {
			return nil, nil
		}
		bss = acc
	}
	return bss, nil
}

// matchSet matches each pattern element against an unused fact
// element, backtracking over the choices.
func matchSet(ps, fs []interface{}, bss []Bindings) ([]Bindings, error) {
	if len(ps) == 0 {
		return bss, nil
	}
	var acc []Bindings
	for i, f := range fs {
		rest := make([]interface{}, 0, len(fs)-1)
		rest = append(rest, fs[:i]...)
		rest = append(rest, fs[i+1:]...)
		for _, bs := range bss {
			ext, err := match(ps[0], f, bs.Copy())
			if err != nil {
				return nil, err
			}
			if len(ext) == 0 {
				continue
			}
			more, err := matchSet(ps[1:], rest, ext)
			if err != nil {
				return nil, err
			}
			acc = append(acc, more...)
		}
	}
	return acc, nil
}

// fudge casts numbers to float64s.
func fudge(x interface{}) interface{} {
	switch v := x.(type) {
	case float32:
		return float64(v)
	case int:
		return float64(v)
	case int32:
		return float64(v)
	case int64:
		return float64(v)
	case uint64:
		return float64(v)
	case json.Number:
		if f, err := v.Float64(); err == nil {
			return f
		}
		return v.String()
	case map[interface{}]interface{}:
		acc := make(map[string]interface{}, len(v))
		for k, y := range v {
			acc[fmt.Sprint(k)] = y
		}
		return acc
	}
	return x
}
