package domain

import "time"

// Question is a product question. AnswerCount and IsAnswered are derived
// from the answers table and only written when an answer is created.
type Question struct {
	ID          string    `json:"id"`
	ProductID   string    `json:"product_id"`
	UserID      string    `json:"user_id"`
	Body        string    `json:"body"`
	AnswerCount int       `json:"answer_count"`
	IsAnswered  bool      `json:"is_answered"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Answer is a reply to a question. HelpfulCount only ever grows.
type Answer struct {
	ID           string    `json:"id"`
	QuestionID   string    `json:"question_id"`
	UserID       string    `json:"user_id"`
	Body         string    `json:"body"`
	HelpfulCount int       `json:"helpful_count"`
	IsHelpful    bool      `json:"is_helpful"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// QuestionDetail is a question with its answers, oldest first.
type QuestionDetail struct {
	Question
	Answers []Answer `json:"answers"`
}
