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

// Package format has what the payload encoders in its subpackages
// share.
//
// A nested resource info can't be written when it starts: only its
// content (a resource, a resource set, entity reference links, or
// nothing) decides its shape.  Nesting keeps the open ones until
// that's known.
package format

import (
	"strconv"
	"time"

	"github.com/Comcast/quill/model"
	"github.com/Comcast/quill/payload"
)

// Pending is an open nested resource info.
type Pending struct {
	Info *payload.NestedInfo

	// Depth is the encoder's container depth when the nested
	// resource info started.
	Depth int

	// Content is true once a resource or resource set started
	// under it.
	Content bool

	Links []string
}

// Bind reports whether the links should be written as a list rather
// than a single URL.
func (p *Pending) Bind() bool {
	return 1 < len(p.Links) || (p.Info.IsCollection != nil && *p.Info.IsCollection)
}

// Nesting is a stack of open nested resource infos.
type Nesting struct {
	open []*Pending
}

func (n *Nesting) Push(info *payload.NestedInfo, depth int) {
	n.open = append(n.open, &Pending{Info: info, Depth: depth})
}

// Pop returns the innermost nested resource info or nil.
func (n *Nesting) Pop() *Pending {
	k := len(n.open)
	if k == 0 {
		return nil
	}
	p := n.open[k-1]
	n.open = n.open[:k-1]
	return p
}

// Claim marks the innermost nested resource info as having content
// if it is still waiting at depth.  It returns that nested resource
// info, which the caller should write as a key, or nil.
func (n *Nesting) Claim(depth int) *Pending {
	k := len(n.open)
	if k == 0 {
		return nil
	}
	p := n.open[k-1]
	if p.Content || p.Depth != depth {
		return nil
	}
	p.Content = true
	return p
}

// Link adds an entity reference link to the innermost nested
// resource info.  It returns false if there isn't one.
func (n *Nesting) Link(url string) bool {
	k := len(n.open)
	if k == 0 {
		return false
	}
	n.open[k-1].Links = append(n.open[k-1].Links, url)
	return true
}

// Len returns the number of open nested resource infos.
func (n *Nesting) Len() int {
	return len(n.open)
}

// TimeLayout picks the lexical form for a time value of type t,
// which may be nil.
func TimeLayout(t *model.TypeRef) string {
	if t != nil {
		switch t.Name {
		case model.Date:
			return "2006-01-02"
		case model.TimeOfDay:
			return "15:04:05.999999999"
		}
	}
	return time.RFC3339Nano
}

// ISODuration renders d like "PT1.5S" or "-PT90S".
func ISODuration(d time.Duration) string {
	sign := ""
	if d < 0 {
		sign = "-"
		d = -d
	}
	return sign + "PT" + strconv.FormatFloat(d.Seconds(), 'f', -1, 64) + "S"
}
