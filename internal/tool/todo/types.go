package todo

import "fmt"

// Status is the state of one todo item.
type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
)

var statuses = []string{
	string(StatusPending),
	string(StatusInProgress),
	string(StatusCompleted),
	string(StatusCancelled),
}

func (s Status) valid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

func (s Status) mark() string {
	switch s {
	case StatusInProgress:
		return "[~]"
	case StatusCompleted:
		return "[x]"
	case StatusCancelled:
		return "[-]"
	default:
		return "[ ]"
	}
}

// Todo is a single task item.
type Todo struct {
	Description string `json:"description"`
	Status      Status `json:"status"`
}

type ReadTodosRequest struct{}

type WriteTodosRequest struct {
	Todos []Todo `json:"todos"`
}

// Validate checks every item. An empty list is allowed and clears the plan.
func (r *WriteTodosRequest) Validate() error {
	inProgress := 0
	for i, t := range r.Todos {
		if !t.Status.valid() {
			return &InvalidStatusError{Index: i, Status: t.Status}
		}
		if t.Description == "" {
			return &EmptyDescriptionError{Index: i}
		}
		if t.Status == StatusInProgress {
			inProgress++
		}
	}
	if inProgress > 1 {
		return fmt.Errorf("%w: %d items", ErrMultipleInProgress, inProgress)
	}
	return nil
}
