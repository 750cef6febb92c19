package combat

import (
	"context"
	"sync"
)

// Task is one deferred unit of actor work: a basic attack, a skill, a
// scripted sequence. It returns only cancellation errors.
type Task struct {
	Name string
	Run  func(ctx context.Context) error
}

// actionQueue is an actor's private FIFO. notify wakes the actor loop.
type actionQueue struct {
	mu     sync.Mutex
	tasks  []Task
	notify chan struct{}
}

func newActionQueue() *actionQueue {
	return &actionQueue{notify: make(chan struct{}, 1)}
}

func (q *actionQueue) Push(t Task) {
	q.mu.Lock()
	q.tasks = append(q.tasks, t)
	q.mu.Unlock()
	q.wake()
}

// PushFront places t ahead of everything already queued.
func (q *actionQueue) PushFront(t Task) {
	q.mu.Lock()
	q.tasks = append([]Task{t}, q.tasks...)
	q.mu.Unlock()
	q.wake()
}

func (q *actionQueue) Pop() (Task, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.tasks) == 0 {
		return Task{}, false
	}
	t := q.tasks[0]
	q.tasks[0] = Task{}
	q.tasks = q.tasks[1:]
	return t, true
}

func (q *actionQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.tasks)
}

// Clear drops every queued task and returns how many were dropped.
func (q *actionQueue) Clear() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	n := len(q.tasks)
	q.tasks = nil
	return n
}

func (q *actionQueue) wake() {
	select {
	case q.notify <- struct{}{}:
	default:
	}
}
