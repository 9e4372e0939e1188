package domain

import "time"

// Question is a single multiple-choice question. CorrectAnswer is a
// zero-based index into Options.
type Question struct {
	Text          string   `json:"text"`
	Options       []string `json:"options"`
	CorrectAnswer int      `json:"correctAnswer"`
	Explanation   string   `json:"explanation,omitempty"`
}

// Quiz is an ordered set of questions, created and edited by admins and
// read-only to test-takers.
type Quiz struct {
	ID        string     `json:"id"`
	Title     string     `json:"title"`
	Branch    string     `json:"branch"`
	Questions []Question `json:"questions"`
	// DurationSeconds is the countdown for one attempt; zero falls back to
	// the configured default.
	DurationSeconds int `json:"durationSeconds,omitempty"`
}

// Unanswered is the sentinel selected-answer index for a skipped question.
const Unanswered = -1

// Answer records one selected option at submission time.
type Answer struct {
	QuestionIndex  int  `json:"questionIndex"`
	SelectedAnswer int  `json:"selectedAnswer"`
	IsCorrect      bool `json:"isCorrect"`
}

// QuizResult is the persisted outcome of one attempt. At most one exists
// per (user, quiz); the store enforces this with a unique index.
type QuizResult struct {
	UserID      string    `json:"userId"`
	QuizID      string    `json:"quizId"`
	QuizTitle   string    `json:"quizTitle"`
	Score       int       `json:"score"` // integer percentage
	Answers     []Answer  `json:"answers"`
	TimeTaken   int       `json:"timeTaken"` // seconds
	Discount    int       `json:"discount"`  // scholarship discount percent
	CompletedAt time.Time `json:"completedAt"`
}

// AttemptStatus is the lifecycle state of a test-taking session.
type AttemptStatus string

const (
	AttemptInProgress AttemptStatus = "in_progress"
	AttemptSubmitted  AttemptStatus = "submitted"
)

// Attempt is an in-progress test session. Answers holds one selected index
// per question, Unanswered until recorded.
type Attempt struct {
	ID        string        `json:"id"`
	UserID    string        `json:"userId"`
	QuizID    string        `json:"quizId"`
	Status    AttemptStatus `json:"status"`
	Answers   []int         `json:"answers"`
	StartedAt time.Time     `json:"startedAt"`
	Deadline  time.Time     `json:"deadline"`
}

// Remaining returns the seconds left on the attempt clock, never negative.
func (a Attempt) Remaining(now time.Time) int {
	d := a.Deadline.Sub(now)
	if d <= 0 {
		return 0
	}
	return int(d.Seconds())
}

// Task is the smallest trackable unit of course progress.
type Task struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	IsCompleted bool       `json:"isCompleted"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
}

// Week is one module of a course roadmap. A week with no tasks is itself a
// leaf; otherwise IsCompleted is derived from its tasks.
type Week struct {
	Number      int        `json:"number"`
	Title       string     `json:"title"`
	Tasks       []Task     `json:"tasks,omitempty"`
	IsCompleted bool       `json:"isCompleted"`
	IsLocked    bool       `json:"isLocked"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
}

// Course is one student's progress through a roadmap.
type Course struct {
	UserID          string    `json:"userId"`
	CourseName      string    `json:"courseName"`
	Weeks           []Week    `json:"weeks"`
	CurrentWeek     int       `json:"currentWeek"`
	OverallProgress int       `json:"overallProgress"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// SubmissionStatus tracks an assignment through grading.
type SubmissionStatus string

const (
	SubmissionPending  SubmissionStatus = "pending"
	SubmissionApproved SubmissionStatus = "approved"
	SubmissionRejected SubmissionStatus = "rejected"
	SubmissionGraded   SubmissionStatus = "graded"
)

// Submission is one student's answer to one weekly assignment. The store
// enforces uniqueness on (student, course, week, assignment); re-submission
// is an upsert.
type Submission struct {
	ID            string           `json:"id"`
	StudentID     string           `json:"studentId"`
	CourseID      string           `json:"courseId"`
	Week          int              `json:"week"`
	AssignmentID  string           `json:"assignmentId"`
	Link          string           `json:"link,omitempty"`
	AttachmentKey string           `json:"attachmentKey,omitempty"`
	Status        SubmissionStatus `json:"status"`
	Score         *int             `json:"score,omitempty"`
	Feedback      string           `json:"feedback,omitempty"`
	GradedBy      string           `json:"gradedBy,omitempty"`
	GradedAt      *time.Time       `json:"gradedAt,omitempty"`
	SubmittedAt   time.Time        `json:"submittedAt"`
}

// Grade is an admin grading action applied to a submission.
type Grade struct {
	Score    int    `json:"score"`
	Feedback string `json:"feedback,omitempty"`
	GradedBy string `json:"gradedBy"`
}
