// internal/services/progress_service.go
package services

import (
	"sync"
	"time"
)

// Generation task statuses.
const (
	ProgressStatusRunning   = "running"
	ProgressStatusCompleted = "completed"
	ProgressStatusFailed    = "failed"
)

// ProgressUpdate is one progress notification for an outstanding
// generation request.
type ProgressUpdate struct {
	Progress int    `json:"progress"` // 0-100
	Message  string `json:"message"`
	Status   string `json:"status"`
}

// ProgressTracker follows a single outstanding generation request.
// Task ids are asset ids.
type ProgressTracker struct {
	TaskID      string
	Progress    int
	Message     string
	Status      string
	StartTime   time.Time
	UpdateTime  time.Time
	Subscribers map[chan ProgressUpdate]bool
	Done        chan struct{}
	mutex       sync.Mutex
}

// ProgressService manages trackers for all outstanding generation
// requests.
type ProgressService struct {
	trackers map[string]*ProgressTracker
	mutex    sync.RWMutex
}

// NewProgressService creates a progress service.
func NewProgressService() *ProgressService {
	return &ProgressService{
		trackers: make(map[string]*ProgressTracker),
	}
}

// CreateTracker creates (or returns an existing) tracker for a task.
func (s *ProgressService) CreateTracker(taskID string) *ProgressTracker {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if tracker, exists := s.trackers[taskID]; exists {
		return tracker
	}

	tracker := &ProgressTracker{
		TaskID:      taskID,
		Progress:    0,
		Message:     "generation request issued",
		Status:      ProgressStatusRunning,
		StartTime:   time.Now(),
		UpdateTime:  time.Now(),
		Subscribers: make(map[chan ProgressUpdate]bool),
		Done:        make(chan struct{}),
	}

	s.trackers[taskID] = tracker
	return tracker
}

// GetTracker returns the tracker for a task.
func (s *ProgressService) GetTracker(taskID string) (*ProgressTracker, bool) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	tracker, exists := s.trackers[taskID]
	return tracker, exists
}

// RemoveTracker drops a finished tracker.
func (s *ProgressService) RemoveTracker(taskID string) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	delete(s.trackers, taskID)
}

// UpdateProgress advances the task and notifies subscribers.
func (t *ProgressTracker) UpdateProgress(progress int, message string) {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	if progress > t.Progress {
		t.Progress = progress
	}
	if message != "" {
		t.Message = message
	}
	t.UpdateTime = time.Now()

	t.notifyLocked()
}

// Complete marks the task as finished.
func (t *ProgressTracker) Complete(message string) {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	t.Progress = 100
	if message != "" {
		t.Message = message
	} else {
		t.Message = "generation completed"
	}
	t.Status = ProgressStatusCompleted
	t.UpdateTime = time.Now()

	t.notifyLocked()
	t.closeDoneLocked()
}

// Fail marks the task as failed.
func (t *ProgressTracker) Fail(message string) {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	if message != "" {
		t.Message = message
	} else {
		t.Message = "generation failed"
	}
	t.Status = ProgressStatusFailed
	t.UpdateTime = time.Now()

	t.notifyLocked()
	t.closeDoneLocked()
}

// Subscribe registers a channel for progress updates.
func (t *ProgressTracker) Subscribe() chan ProgressUpdate {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	ch := make(chan ProgressUpdate, 8)
	t.Subscribers[ch] = true
	return ch
}

// Unsubscribe removes a subscriber channel.
func (t *ProgressTracker) Unsubscribe(ch chan ProgressUpdate) {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	delete(t.Subscribers, ch)
}

// notifyLocked sends the current state to all subscribers. Sends are
// non-blocking; a full channel is skipped.
func (t *ProgressTracker) notifyLocked() {
	update := ProgressUpdate{
		Progress: t.Progress,
		Message:  t.Message,
		Status:   t.Status,
	}

	for subscriber := range t.Subscribers {
		select {
		case subscriber <- update:
		default:
		}
	}
}

func (t *ProgressTracker) closeDoneLocked() {
	select {
	case <-t.Done:
	default:
		close(t.Done)
	}
}
