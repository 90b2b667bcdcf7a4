package model

// Quiz is an instructor's quiz as returned by the API. Schedule fields are
// kept as raw strings; the status resolver decides how to read them.
type Quiz struct {
	ID          int64   `json:"id"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	PublicID    string  `json:"public_id"`
	OwnerID     int64   `json:"owner"`
	StartTime   *string `json:"start_time"`
	EndTime     *string `json:"end_time"`
	SlotCount   int     `json:"slot_count"`
	Slots       []Slot  `json:"slots,omitempty"`
	CreatedAt   string  `json:"created_at,omitempty"`
	UpdatedAt   string  `json:"updated_at,omitempty"`
}

// Window returns the raw schedule, with nil fields as empty strings.
func (q Quiz) Window() (start, end string) {
	if q.StartTime != nil {
		start = *q.StartTime
	}
	if q.EndTime != nil {
		end = *q.EndTime
	}
	return start, end
}

// Slot places one bank problem at a position inside a quiz.
type Slot struct {
	ID        int64    `json:"id"`
	QuizID    int64    `json:"quiz"`
	BankID    int64    `json:"bank"`
	ProblemID *int64   `json:"problem"`
	Label     string   `json:"label"`
	Order     int      `json:"order"`
	Problem   *Problem `json:"problem_detail,omitempty"`
}

// CreateQuizRequest is the payload for creating a quiz.
type CreateQuizRequest struct {
	Title       string `json:"title" binding:"required,min=1,max=255"`
	Description string `json:"description" binding:"omitempty,max=4000"`
}

// UpdateQuizRequest is the partial update payload for a quiz.
type UpdateQuizRequest struct {
	Title       *string `json:"title,omitempty" binding:"omitempty,min=1,max=255"`
	Description *string `json:"description,omitempty" binding:"omitempty,max=4000"`
	StartTime   *string `json:"start_time,omitempty"`
	EndTime     *string `json:"end_time,omitempty"`
}

// AddSlotRequest is the payload for adding a slot to a quiz.
type AddSlotRequest struct {
	BankID    int64  `json:"bank" binding:"required,min=1"`
	ProblemID *int64 `json:"problem,omitempty" binding:"omitempty,min=1"`
	Label     string `json:"label" binding:"omitempty,max=64"`
}
