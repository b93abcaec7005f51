package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// NotificationType is the closed set of notification kinds.
type NotificationType string

const (
	NotificationNewReview        NotificationType = "new_review"
	NotificationReplyToReview    NotificationType = "reply_to_review"
	NotificationLikeOnReview     NotificationType = "like_on_review"
	NotificationNewFollower      NotificationType = "new_follower"
	NotificationProductPriceDrop NotificationType = "product_price_drop"
	NotificationAnswerToQuestion NotificationType = "answer_to_question"
)

// ValidNotificationTypes returns all notification types.
func ValidNotificationTypes() []NotificationType {
	return []NotificationType{
		NotificationNewReview, NotificationReplyToReview, NotificationLikeOnReview,
		NotificationNewFollower, NotificationProductPriceDrop, NotificationAnswerToQuestion,
	}
}

// IsValidNotificationType reports whether s is a known notification type.
func IsValidNotificationType(s string) bool {
	for _, t := range ValidNotificationTypes() {
		if string(t) == s {
			return true
		}
	}
	return false
}

// NotificationPayload is the type-specific part of a notification. The set
// of implementations is closed; each one belongs to exactly one type.
type NotificationPayload interface {
	Type() NotificationType
	isNotificationPayload()
}

// NewReviewPayload tells a follower that someone they follow reviewed a product.
type NewReviewPayload struct {
	ReviewID  string `json:"review_id"`
	ProductID string `json:"product_id"`
	AuthorID  string `json:"author_id"`
	Rating    int    `json:"rating"`
}

// ReplyToReviewPayload tells a review or reply author about a new reply.
type ReplyToReviewPayload struct {
	ReviewID      string  `json:"review_id"`
	ReplyID       string  `json:"reply_id"`
	ReplierID     string  `json:"replier_id"`
	ParentReplyID *string `json:"parent_reply_id,omitempty"`
}

// LikeOnReviewPayload tells a review author someone liked the review.
type LikeOnReviewPayload struct {
	ReviewID string `json:"review_id"`
	LikerID  string `json:"liker_id"`
}

// NewFollowerPayload tells a user they gained a follower.
type NewFollowerPayload struct {
	FollowerID string `json:"follower_id"`
}

// ProductPriceDropPayload tells a user a favorited product got cheaper.
// Prices are in minor currency units.
type ProductPriceDropPayload struct {
	ProductID string `json:"product_id"`
	OldPrice  int64  `json:"old_price"`
	NewPrice  int64  `json:"new_price"`
}

// AnswerToQuestionPayload tells a question author about a new answer.
type AnswerToQuestionPayload struct {
	QuestionID string `json:"question_id"`
	AnswerID   string `json:"answer_id"`
	AnswererID string `json:"answerer_id"`
}

func (NewReviewPayload) Type() NotificationType        { return NotificationNewReview }
func (ReplyToReviewPayload) Type() NotificationType    { return NotificationReplyToReview }
func (LikeOnReviewPayload) Type() NotificationType     { return NotificationLikeOnReview }
func (NewFollowerPayload) Type() NotificationType      { return NotificationNewFollower }
func (ProductPriceDropPayload) Type() NotificationType { return NotificationProductPriceDrop }
func (AnswerToQuestionPayload) Type() NotificationType { return NotificationAnswerToQuestion }

func (NewReviewPayload) isNotificationPayload()        {}
func (ReplyToReviewPayload) isNotificationPayload()    {}
func (LikeOnReviewPayload) isNotificationPayload()     {}
func (NewFollowerPayload) isNotificationPayload()      {}
func (ProductPriceDropPayload) isNotificationPayload() {}
func (AnswerToQuestionPayload) isNotificationPayload() {}

// DecodeNotificationPayload parses raw as the payload of type t.
func DecodeNotificationPayload(t NotificationType, raw []byte) (NotificationPayload, error) {
	var p NotificationPayload
	switch t {
	case NotificationNewReview:
		p = &NewReviewPayload{}
	case NotificationReplyToReview:
		p = &ReplyToReviewPayload{}
	case NotificationLikeOnReview:
		p = &LikeOnReviewPayload{}
	case NotificationNewFollower:
		p = &NewFollowerPayload{}
	case NotificationProductPriceDrop:
		p = &ProductPriceDropPayload{}
	case NotificationAnswerToQuestion:
		p = &AnswerToQuestionPayload{}
	default:
		return nil, fmt.Errorf("unknown notification type %q", t)
	}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, p); err != nil {
			return nil, fmt.Errorf("decode %s payload: %w", t, err)
		}
	}
	return deref(p), nil
}

// deref returns payloads by value so callers can type-switch on value types.
func deref(p NotificationPayload) NotificationPayload {
	switch v := p.(type) {
	case *NewReviewPayload:
		return *v
	case *ReplyToReviewPayload:
		return *v
	case *LikeOnReviewPayload:
		return *v
	case *NewFollowerPayload:
		return *v
	case *ProductPriceDropPayload:
		return *v
	case *AnswerToQuestionPayload:
		return *v
	}
	return p
}

// Notification is a message addressed to one user. Only IsRead ever changes
// after creation.
type Notification struct {
	ID               string              `json:"id"`
	UserID           string              `json:"user_id"`
	Type             NotificationType    `json:"type"`
	Title            string              `json:"title"`
	Message          string              `json:"message"`
	IsRead           bool                `json:"is_read"`
	RelatedProductID *string             `json:"related_product_id,omitempty"`
	RelatedReviewID  *string             `json:"related_review_id,omitempty"`
	RelatedUserID    *string             `json:"related_user_id,omitempty"`
	Payload          NotificationPayload `json:"payload"`
	CreatedAt        time.Time           `json:"created_at"`
}

// NewNotification builds an unsaved notification for recipient. The title,
// message and related ids are derived from the payload; actorName is the
// display name of whoever triggered it.
func NewNotification(recipient, actorName string, p NotificationPayload) *Notification {
	n := &Notification{UserID: recipient, Type: p.Type(), Payload: p}

	switch v := p.(type) {
	case NewReviewPayload:
		n.Title = "New review"
		n.Message = fmt.Sprintf("%s posted a %d-star review", actorName, v.Rating)
		n.RelatedReviewID, n.RelatedProductID, n.RelatedUserID = ptr(v.ReviewID), ptr(v.ProductID), ptr(v.AuthorID)
	case ReplyToReviewPayload:
		n.Title = "New reply"
		n.Message = fmt.Sprintf("%s replied to your review", actorName)
		if v.ParentReplyID != nil {
			n.Message = fmt.Sprintf("%s replied to your comment", actorName)
		}
		n.RelatedReviewID, n.RelatedUserID = ptr(v.ReviewID), ptr(v.ReplierID)
	case LikeOnReviewPayload:
		n.Title = "Your review was liked"
		n.Message = fmt.Sprintf("%s liked your review", actorName)
		n.RelatedReviewID, n.RelatedUserID = ptr(v.ReviewID), ptr(v.LikerID)
	case NewFollowerPayload:
		n.Title = "New follower"
		n.Message = fmt.Sprintf("%s started following you", actorName)
		n.RelatedUserID = ptr(v.FollowerID)
	case ProductPriceDropPayload:
		n.Title = "Price drop"
		n.Message = fmt.Sprintf("A product you saved dropped from %s to %s", formatPrice(v.OldPrice), formatPrice(v.NewPrice))
		n.RelatedProductID = ptr(v.ProductID)
	case AnswerToQuestionPayload:
		n.Title = "Your question was answered"
		n.Message = fmt.Sprintf("%s answered your question", actorName)
		n.RelatedUserID = ptr(v.AnswererID)
	}
	return n
}

func formatPrice(minor int64) string {
	return fmt.Sprintf("%d.%02d", minor/100, minor%100)
}

func ptr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// UnreadCount is the live unread notification count of a user.
type UnreadCount struct {
	UnreadCount int `json:"unread_count"`
}
