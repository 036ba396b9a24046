// Package history keeps undo and redo state for a drawing session.
package history

// DefaultCapacity is the number of undo entries kept when none is configured.
const DefaultCapacity = 50

// MinCapacity is the smallest usable capacity: a base entry plus one change.
const MinCapacity = 2

// Stack is a bounded undo/redo stack. Undo entries live in a ring buffer;
// when a push would exceed capacity the oldest entry is dropped and the next
// oldest becomes the base that Undo cannot move past.
type Stack[S any] struct {
	ring []S
	head int
	n    int
	redo []S
}

// New creates a Stack holding at most capacity undo entries.
func New[S any](capacity int) *Stack[S] {
	if capacity < MinCapacity {
		capacity = MinCapacity
	}
	return &Stack[S]{ring: make([]S, capacity)}
}

func (s *Stack[S]) at(i int) S { return s.ring[(s.head+i)%len(s.ring)] }

func (s *Stack[S]) append(v S) {
	if s.n == len(s.ring) {
		s.ring[s.head] = v
		s.head = (s.head + 1) % len(s.ring)
		return
	}
	s.ring[(s.head+s.n)%len(s.ring)] = v
	s.n++
}

// Push records a new entry and discards any redo history.
func (s *Stack[S]) Push(v S) {
	s.append(v)
	var zero S
	for i := range s.redo {
		s.redo[i] = zero
	}
	s.redo = s.redo[:0]
}

// Undo moves the newest entry to the redo stack and returns the entry that
// is now on top. It does nothing when fewer than two entries remain.
func (s *Stack[S]) Undo() (S, bool) {
	var zero S
	if s.n <= 1 {
		return zero, false
	}
	idx := (s.head + s.n - 1) % len(s.ring)
	top := s.ring[idx]
	s.ring[idx] = zero
	s.n--
	s.redo = append(s.redo, top)
	return s.at(s.n - 1), true
}

// Redo moves the newest redo entry back onto the undo stack and returns it.
func (s *Stack[S]) Redo() (S, bool) {
	var zero S
	if len(s.redo) == 0 {
		return zero, false
	}
	last := len(s.redo) - 1
	v := s.redo[last]
	s.redo[last] = zero
	s.redo = s.redo[:last]
	s.append(v)
	return v, true
}

// Clear empties both stacks. No base entry is kept.
func (s *Stack[S]) Clear() {
	var zero S
	for i := range s.ring {
		s.ring[i] = zero
	}
	for i := range s.redo {
		s.redo[i] = zero
	}
	s.head, s.n = 0, 0
	s.redo = s.redo[:0]
}

// Top returns the newest undo entry.
func (s *Stack[S]) Top() (S, bool) {
	if s.n == 0 {
		var zero S
		return zero, false
	}
	return s.at(s.n - 1), true
}

// Entries returns the undo entries oldest first.
func (s *Stack[S]) Entries() []S {
	out := make([]S, s.n)
	for i := range out {
		out[i] = s.at(i)
	}
	return out
}

func (s *Stack[S]) Len() int     { return s.n }
func (s *Stack[S]) RedoLen() int { return len(s.redo) }
func (s *Stack[S]) Cap() int     { return len(s.ring) }

// CanUndo reports whether Undo would change anything.
func (s *Stack[S]) CanUndo() bool { return s.n > 1 }

// CanRedo reports whether Redo would change anything.
func (s *Stack[S]) CanRedo() bool { return len(s.redo) > 0 }
