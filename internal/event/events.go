package event

import (
	pkgkafka "github.com/emrahgewer/yorumatorapp/pkg/kafka"
)

// Domain event topics. The event type of an envelope equals its topic.
var (
	TopicReviewCreated       = pkgkafka.Topic("review", "created")
	TopicReviewStatusChanged = pkgkafka.Topic("review", "status_changed")
	TopicReviewLiked         = pkgkafka.Topic("review", "liked")
	TopicReviewReplied       = pkgkafka.Topic("review", "replied")
	TopicUserFollowed        = pkgkafka.Topic("user", "followed")
	TopicQuestionAnswered    = pkgkafka.Topic("question", "answered")
)

// Topics returns every topic the notification materializer subscribes to.
func Topics() []string {
	return []string{
		TopicReviewCreated,
		TopicReviewStatusChanged,
		TopicReviewLiked,
		TopicReviewReplied,
		TopicUserFollowed,
		TopicQuestionAnswered,
	}
}

// Aggregate types.
const (
	AggregateTypeReview   = "review"
	AggregateTypeUser     = "user"
	AggregateTypeQuestion = "question"
)

// ReviewCreatedData is the payload for a review.created event.
type ReviewCreatedData struct {
	ReviewID  string `json:"review_id"`
	ProductID string `json:"product_id"`
	AuthorID  string `json:"author_id"`
	Rating    int    `json:"rating"`
	Status    string `json:"status"`
}

// ReviewStatusChangedData is the payload for a review.status_changed event.
type ReviewStatusChangedData struct {
	ReviewID       string `json:"review_id"`
	ProductID      string `json:"product_id"`
	AuthorID       string `json:"author_id"`
	Rating         int    `json:"rating"`
	PreviousStatus string `json:"previous_status"`
	Status         string `json:"status"`
}

// ReviewLikedData is the payload for a review.liked event.
type ReviewLikedData struct {
	ReviewID string `json:"review_id"`
	AuthorID string `json:"author_id"`
	LikerID  string `json:"liker_id"`
}

// ReviewRepliedData is the payload for a review.replied event. The parent
// fields are set for nested replies only.
type ReviewRepliedData struct {
	ReviewID       string  `json:"review_id"`
	ReviewAuthorID string  `json:"review_author_id"`
	ReplyID        string  `json:"reply_id"`
	ReplierID      string  `json:"replier_id"`
	ParentReplyID  *string `json:"parent_reply_id,omitempty"`
	ParentAuthorID *string `json:"parent_author_id,omitempty"`
}

// UserFollowedData is the payload for a user.followed event.
type UserFollowedData struct {
	FollowerID  string `json:"follower_id"`
	FollowingID string `json:"following_id"`
}

// QuestionAnsweredData is the payload for a question.answered event.
type QuestionAnsweredData struct {
	QuestionID       string `json:"question_id"`
	QuestionAuthorID string `json:"question_author_id"`
	ProductID        string `json:"product_id"`
	AnswerID         string `json:"answer_id"`
	AnswererID       string `json:"answerer_id"`
}
