package models

import (
	"time"
)

type User struct {
	ID             int64     `json:"id"`
	Username       string    `json:"username"`
	Email          string    `json:"email"`
	HashedPassword string    `json:"-"`
	Birthday       time.Time `json:"birthday"`
	CreatedDate    time.Time `json:"created_date"`
	UpdatedDate    time.Time `json:"updated_date"`
}

// PublicUser is the shape other users are allowed to see.
type PublicUser struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

func (u User) Public() PublicUser {
	return PublicUser{ID: u.ID, Username: u.Username, Email: u.Email}
}

// Subscription is a directed follow edge: FollowerID gets reminded about FollowedID.
type Subscription struct {
	ID         int64 `json:"id"`
	FollowerID int64 `json:"follower_id"`
	FollowedID int64 `json:"followed_id"`
}

type Notification struct {
	ID               int64     `json:"id"`
	SubscriptionID   int64     `json:"subscription_id"`
	NotificationTime time.Time `json:"notification_time"`
	Notificated      bool      `json:"notificated"`
}

type NotificationView struct {
	NotificationTime time.Time  `json:"notification_time"`
	Notificated      bool       `json:"notificated"`
	Target           PublicUser `json:"target_user"`
}

// LeadTime is how long before the birthday the reminder fires.
type LeadTime struct {
	Days    int `json:"days" binding:"gte=0"`
	Hours   int `json:"hours" binding:"gte=0"`
	Minutes int `json:"minutes" binding:"gte=0"`
	Seconds int `json:"seconds" binding:"gte=0"`
}

// Within reports whether the lead is at most limit. Each component is compared against
// what is left of limit before multiplying, so huge values cannot wrap around.
func (l LeadTime) Within(limit time.Duration) bool {
	rest := limit
	for _, part := range []struct {
		n    int
		unit time.Duration
	}{
		{l.Days, 24 * time.Hour},
		{l.Hours, time.Hour},
		{l.Minutes, time.Minute},
		{l.Seconds, time.Second},
	} {
		if part.n < 0 || int64(part.n) > int64(rest/part.unit) {
			return false
		}
		rest -= time.Duration(part.n) * part.unit
	}
	return true
}

// Duration converts the lead to a time.Duration. Callers check Within first.
func (l LeadTime) Duration() time.Duration {
	return time.Duration(l.Days)*24*time.Hour +
		time.Duration(l.Hours)*time.Hour +
		time.Duration(l.Minutes)*time.Minute +
		time.Duration(l.Seconds)*time.Second
}

// Profile is what a user sees about themselves.
type Profile struct {
	PublicUser
	Birthday  time.Time    `json:"birthday"`
	Followers []PublicUser `json:"followers"`
	Following []PublicUser `json:"following"`
}
