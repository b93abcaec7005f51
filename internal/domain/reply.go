package domain

import "time"

// Reply is a comment on a review. Roots have no parent; children point at a
// root of the same review, so threads are at most two levels deep.
type Reply struct {
	ID            string    `json:"id"`
	ReviewID      string    `json:"review_id"`
	UserID        string    `json:"user_id"`
	ParentReplyID *string   `json:"parent_reply_id"`
	Body          string    `json:"body"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// IsRoot reports whether r has no parent.
func (r *Reply) IsRoot() bool {
	return r.ParentReplyID == nil
}

// CanParent reports whether r may be the parent of a new reply on reviewID.
func (r *Reply) CanParent(reviewID string) bool {
	return r.IsRoot() && r.ReviewID == reviewID
}

// ReplyThread is a root reply with its direct children.
type ReplyThread struct {
	Reply
	Children []Reply `json:"children"`
}

// AssembleThreads attaches children to their roots, keeping the order of
// both slices. Children whose parent is not among roots are dropped.
func AssembleThreads(roots, children []Reply) []ReplyThread {
	threads := make([]ReplyThread, len(roots))
	index := make(map[string]int, len(roots))
	for i, r := range roots {
		threads[i] = ReplyThread{Reply: r, Children: []Reply{}}
		index[r.ID] = i
	}
	for _, c := range children {
		if c.ParentReplyID == nil {
			continue
		}
		if i, ok := index[*c.ParentReplyID]; ok {
			threads[i].Children = append(threads[i].Children, c)
		}
	}
	return threads
}
