package domain

import "time"

// User is the public identity of an account.
type User struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	FullName  string    `json:"full_name"`
	AvatarURL *string   `json:"avatar_url,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Profile is a user together with live social counters. IsFollowing is nil
// when the request had no viewer.
type Profile struct {
	User
	FollowerCount  int   `json:"follower_count"`
	FollowingCount int   `json:"following_count"`
	ReviewCount    int   `json:"review_count"`
	IsFollowing    *bool `json:"is_following"`
}

// FollowEdge is one entry of a follower or following list.
type FollowEdge struct {
	User       User      `json:"user"`
	FollowedAt time.Time `json:"followed_at"`
}

// Favorite is a product saved by a user.
type Favorite struct {
	ProductID   string    `json:"product_id"`
	ProductName string    `json:"product_name"`
	CreatedAt   time.Time `json:"created_at"`
}
