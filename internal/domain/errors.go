package domain

// Error codes returned to clients in the error envelope.
const (
	CodeProductNotFound      = "PRODUCT_NOT_FOUND"
	CodeUserNotFound         = "USER_NOT_FOUND"
	CodeReviewNotFound       = "REVIEW_NOT_FOUND"
	CodeReplyNotFound        = "REPLY_NOT_FOUND"
	CodeQuestionNotFound     = "QUESTION_NOT_FOUND"
	CodeAnswerNotFound       = "ANSWER_NOT_FOUND"
	CodeNotificationNotFound = "NOTIFICATION_NOT_FOUND"

	CodeInvalidRating       = "INVALID_RATING"
	CodeInvalidStatus       = "INVALID_STATUS"
	CodeInvalidParentReply  = "INVALID_PARENT_REPLY"
	CodeCannotFollowSelf    = "CANNOT_FOLLOW_SELF"
	CodeNotReviewOwner      = "NOT_REVIEW_OWNER"
	CodeAlreadyFollowing    = "ALREADY_FOLLOWING"
	CodeNotFollowing        = "NOT_FOLLOWING"
	CodeAlreadyFavorited    = "ALREADY_FAVORITED"
	CodeNotFavorited        = "NOT_FAVORITED"
	CodeOpinionConflict     = "OPINION_CONFLICT"
	CodeRatingRefreshFailed = "RATING_REFRESH_FAILED"
	CodeStatusNotVisible    = "STATUS_NOT_VISIBLE"
)
