// Copyright (C) 2021  Antonio Lassandro

// This program is free software: you can redistribute it and/or modify it
// under the terms of the GNU General Public License as published by the Free
// Software Foundation, either version 3 of the License, or (at your option)
// any later version.

// This program is distributed in the hope that it will be useful, but WITHOUT
// ANY WARRANTY; without even the implied warranty of MERCHANTABILITY or
// FITNESS FOR A PARTICULAR PURPOSE.  See the GNU General Public License for
// more details.

// You should have received a copy of the GNU General Public License along
// with this program.  If not, see <http://www.gnu.org/licenses/>.

package trace

import "github.com/lassandro/lc3vm/pkg/machine"

// ring keeps the newest len(items) values.
type ring[T any] struct {
	items []T
	next  int
	full  bool
}

func (r *ring[T]) push(value T) {
	r.items[r.next] = value
	r.next++

	if r.next == len(r.items) {
		r.next = 0
		r.full = true
	}
}

// Oldest first.
func (r *ring[T]) values() []T {
	if !r.full {
		return append([]T(nil), r.items[:r.next]...)
	}

	out := make([]T, 0, len(r.items))
	out = append(out, r.items[r.next:]...)

	return append(out, r.items[:r.next]...)
}

// Recorder keeps the most recent events and reports, each in its own ring of
// the same size.
type Recorder struct {
	events  ring[machine.Event]
	reports ring[machine.Report]
	total   uint64
}

// NewRecorder panics if size is not positive.
func NewRecorder(size int) *Recorder {
	if size <= 0 {
		panic("Recorder size must be positive")
	}

	return &Recorder{
		events:  ring[machine.Event]{items: make([]machine.Event, size)},
		reports: ring[machine.Report]{items: make([]machine.Report, size)},
	}
}

func (r *Recorder) Trace(event machine.Event) {
	r.events.push(event)
	r.total++
}

func (r *Recorder) Report(report machine.Report) {
	r.reports.push(report)
}

// Events returns the retained events, oldest first.
func (r *Recorder) Events() []machine.Event {
	return r.events.values()
}

// Tail returns at most n of the newest events, oldest first.
func (r *Recorder) Tail(n int) []machine.Event {
	events := r.Events()

	if n < 0 {
		n = 0
	}

	if n < len(events) {
		events = events[len(events)-n:]
	}

	return events
}

// Reports returns the retained reports, oldest first.
func (r *Recorder) Reports() []machine.Report {
	return r.reports.values()
}

// Total number of events seen, including those that fell out of the ring.
func (r *Recorder) Total() uint64 {
	return r.total
}
