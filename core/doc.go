/* Copyright 2018-2019 Comcast Cable Communications Management, LLC
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

// Package core provides the state machine shared by every payload
// writer.
//
// A Grammar declares the states a writer can be in and the legal
// transitions between them.  Each state has a Kind: the single Start
// state, Open states that admit further writes, ActiveChild states
// that wait on a nested writer, and the absorbing Completed and Error
// states.
//
// A Machine is a stack of Scopes over a compiled Grammar.  Enter
// pushes a scope for a nested construct, Replace moves sideways at
// the same depth, and Leave pops.  When the last open scope is left,
// the bottom of the stack becomes the Completed state.  Every move is
// checked against the Grammar, and entering a state that counts
// toward depth is checked against the Machine's MaxDepth.
//
// Intercept and InterceptContext run an operation and, if it fails
// (or panics), latch the Machine into its Error state.  The original
// error is returned as is.  Once latched, a Machine never leaves
// Error.
//
// A writer that owns a nested writer learns about the nested writer's
// fate through an Event delivered to a Notify func rather than by
// polling.
package core
