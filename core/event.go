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

package core

// EventKind says what happened to a nested writer.
type EventKind int

const (
	// EventCompleted means the nested writer reached its
	// completed state.
	EventCompleted EventKind = iota

	// EventFailed means the nested writer latched into its error
	// state.
	EventFailed
)

func (k EventKind) String() string {
	switch k {
	case EventCompleted:
		return "completed"
	case EventFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Event is sent from a nested writer to the writer that created it.
type Event struct {
	Kind EventKind

	// Source is the name under which the nested writer was
	// created.
	Source string

	// Err is the failure for an EventFailed.
	Err error
}

// Notify delivers an Event to a parent writer.
//
// The parent handles the Event through its own latching path.  A
// non-nil return means the parent is now in its error state.
type Notify func(Event) error
