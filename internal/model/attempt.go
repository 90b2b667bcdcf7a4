package model

// Attempt is one student's run through a quiz's slots.
type Attempt struct {
	ID                int64    `json:"id"`
	QuizID            int64    `json:"quiz"`
	StudentIdentifier string   `json:"student_identifier"`
	StartedAt         string   `json:"started_at"`
	SubmittedAt       *string  `json:"submitted_at"`
	Answers           []Answer `json:"answers,omitempty"`
}

// Submitted reports whether the attempt has been handed in.
func (a Attempt) Submitted() bool {
	return a.SubmittedAt != nil && *a.SubmittedAt != ""
}

// Answer is the rating a student gave for one slot.
type Answer struct {
	SlotID  int64   `json:"slot"`
	Rating  int     `json:"rating" binding:"min=1,max=5"`
	Comment string  `json:"comment,omitempty" binding:"omitempty,max=2000"`
	Score   *string `json:"score,omitempty"`
}

// StartAttemptRequest opens an attempt on a public quiz.
type StartAttemptRequest struct {
	StudentIdentifier string `json:"student_identifier" binding:"required,min=1,max=128"`
}

// SubmitAttemptRequest hands in the ratings of an attempt.
type SubmitAttemptRequest struct {
	Answers []Answer `json:"answers" binding:"required,min=1,dive"`
}

// PublicQuiz is the student-facing view of a published quiz.
type PublicQuiz struct {
	PublicID    string  `json:"public_id"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	StartTime   *string `json:"start_time"`
	EndTime     *string `json:"end_time"`
	Slots       []Slot  `json:"slots"`
}
