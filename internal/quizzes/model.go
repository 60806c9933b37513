package quizzes

import "time"

// Quiz is the decoded quiz document owned by a user.
type Quiz struct {
	UserID    string
	Data      Document
	UpdatedAt time.Time
}

// Record is the stored row as held by a repository. Data is the raw JSON text.
type Record struct {
	UserID    string
	Data      string
	UpdatedAt time.Time
}
