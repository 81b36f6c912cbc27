package monitor

import (
	"errors"
)

// History is a bounded FIFO of executed commands
type History struct {
	items   []string
	maxSize int
}

// NewHistory creates an empty queue holding at most maxSize commands
func NewHistory(maxSize int) *History {
	return &History{maxSize: maxSize}
}

// Enqueue adds an item, dropping the oldest one when full
func (q *History) Enqueue(item string) {
	if q.maxSize > 0 && len(q.items) == q.maxSize {
		q.Dequeue()
	}
	q.items = append(q.items, item)
}

// Dequeue removes and returns the oldest item
func (q *History) Dequeue() (string, error) {
	if len(q.items) == 0 {
		return "", errors.New("history is empty")
	}
	front := q.items[0]
	q.items = q.items[1:]
	return front, nil
}

// IsEmpty checks if the queue is empty
func (q *History) IsEmpty() bool {
	return len(q.items) == 0
}

// Items returns the queued commands, oldest first
func (q *History) Items() []string {
	return append([]string(nil), q.items...)
}
