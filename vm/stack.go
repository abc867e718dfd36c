package vm

// Stack is the engine's operand stack. It grows downward: the stack pointer
// starts one past the high end of the region and moves toward zero as words
// are pushed, so the deepest value sits at the highest address.
type Stack struct {
	words []Value
	sp    int
}

// NewStack creates a stack holding up to the given number of words.
func NewStack(words int) *Stack {
	if words < 1 {
		words = 1
	}
	s := &Stack{words: make([]Value, words)}
	s.sp = len(s.words)
	return s
}

// Depth returns the number of words currently on the stack.
func (s *Stack) Depth() int {
	return len(s.words) - s.sp
}

// Push stores v in the next slot down. Returns false when the stack is full.
func (s *Stack) Push(v Value) bool {
	if s.sp == 0 {
		return false
	}
	s.sp--
	s.words[s.sp] = v
	return true
}

// Pop removes and returns the top word. Returns false when the stack is
// empty.
func (s *Stack) Pop() (Value, bool) {
	if s.sp == len(s.words) {
		return Unspecified, false
	}
	v := s.words[s.sp]
	s.sp++
	return v, true
}

// Peek returns the top word without removing it.
func (s *Stack) Peek() (Value, bool) {
	if s.sp == len(s.words) {
		return Unspecified, false
	}
	return s.words[s.sp], true
}

// Pick returns the word depth slots below the top (0 = top).
func (s *Stack) Pick(depth int) (Value, bool) {
	if depth < 0 || depth >= s.Depth() {
		return Unspecified, false
	}
	return s.words[s.sp+depth], true
}

// Drop discards n words. Returns false if fewer than n are present.
func (s *Stack) Drop(n int) bool {
	if n < 0 || n > s.Depth() {
		return false
	}
	s.sp += n
	return true
}
