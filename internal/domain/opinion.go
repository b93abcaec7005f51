package domain

// OpinionResult describes what setting an opinion did to the stored row.
type OpinionResult string

const (
	// OpinionSet means no opinion existed and one was stored.
	OpinionSet OpinionResult = "set"
	// OpinionCleared means the same opinion existed and was removed.
	OpinionCleared OpinionResult = "cleared"
	// OpinionChanged means the opposite opinion existed and was flipped.
	OpinionChanged OpinionResult = "changed"
)

// Opinion is a viewer's stance on a review.
type Opinion string

const (
	OpinionLike    Opinion = "like"
	OpinionDislike Opinion = "dislike"
)

// OpinionFromLike maps the stored polarity flag to an Opinion.
func OpinionFromLike(isLike bool) Opinion {
	if isLike {
		return OpinionLike
	}
	return OpinionDislike
}

// ResolveOpinion decides the transition from the stored opinion (nil when
// absent) to the requested polarity.
func ResolveOpinion(current *bool, isLike bool) OpinionResult {
	switch {
	case current == nil:
		return OpinionSet
	case *current == isLike:
		return OpinionCleared
	default:
		return OpinionChanged
	}
}

// OpinionOutcome is returned after an opinion toggle.
type OpinionOutcome struct {
	ReviewID string        `json:"review_id"`
	Result   OpinionResult `json:"result"`
	Opinion  *Opinion      `json:"opinion"`
}

// OpinionStats counts likes and dislikes of a review. ViewerOpinion is nil
// when there is no viewer or the viewer has no opinion.
type OpinionStats struct {
	ReviewID      string   `json:"review_id"`
	LikeCount     int      `json:"like_count"`
	DislikeCount  int      `json:"dislike_count"`
	ViewerOpinion *Opinion `json:"viewer_opinion"`
}
