// Package ring provides a fixed-capacity FIFO buffer.
package ring

// Ring holds at most Cap values, oldest first.
type Ring[T any] struct {
	items []T
	head  int
	n     int
}

func New[T any](capacity int) *Ring[T] {
	if capacity < 1 {
		capacity = 1
	}
	return &Ring[T]{items: make([]T, capacity)}
}

func (r *Ring[T]) Len() int   { return r.n }
func (r *Ring[T]) Cap() int   { return len(r.items) }
func (r *Ring[T]) Full() bool { return r.n == len(r.items) }

// Push appends v. It returns false and drops v when the ring is full.
func (r *Ring[T]) Push(v T) bool {
	if r.Full() {
		return false
	}
	r.items[(r.head+r.n)%len(r.items)] = v
	r.n++
	return true
}

// Overwrite appends v, discarding the oldest value when the ring is full.
func (r *Ring[T]) Overwrite(v T) {
	if r.Full() {
		r.items[r.head] = v
		r.head = (r.head + 1) % len(r.items)
		return
	}
	r.Push(v)
}

// Front returns the oldest value.
func (r *Ring[T]) Front() (T, bool) {
	var zero T
	if r.n == 0 {
		return zero, false
	}
	return r.items[r.head], true
}

// PopFront removes and returns the oldest value.
func (r *Ring[T]) PopFront() (T, bool) {
	v, ok := r.Front()
	if !ok {
		return v, false
	}
	var zero T
	r.items[r.head] = zero
	r.head = (r.head + 1) % len(r.items)
	r.n--
	return v, true
}

// At returns the i-th value counting from the oldest.
func (r *Ring[T]) At(i int) T {
	if i < 0 || i >= r.n {
		panic("ring: index out of range")
	}
	return r.items[(r.head+i)%len(r.items)]
}

// Slice copies the contents, oldest first.
func (r *Ring[T]) Slice() []T {
	out := make([]T, r.n)
	for i := range out {
		out[i] = r.At(i)
	}
	return out
}

func (r *Ring[T]) Reset() {
	var zero T
	for i := range r.items {
		r.items[i] = zero
	}
	r.head, r.n = 0, 0
}
