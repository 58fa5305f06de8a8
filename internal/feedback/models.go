package feedback

import "errors"

const MaxLength = 2000

var (
	ErrNotFound = errors.New("feedback not found")
	ErrEmpty    = errors.New("feedback is empty")
	ErrTooLong  = errors.New("feedback exceeds 2000 characters")
	ErrBadDate  = errors.New("date must be YYYY-MM-DD")
)

type Feedback struct {
	ID         int64  `json:"id"`
	UserID     int64  `json:"user_id"`
	Username   string `json:"username"`
	Feedback   string `json:"feedback"`
	Filtered   string `json:"filtered_feedback"`
	IsProfane  bool   `json:"is_profane"`
	IsVerified bool   `json:"is_verified"`
	CreatedAt  int64  `json:"created_at"`
	VerifiedAt *int64 `json:"verified_at,omitempty"`
}

// Public is the shape shown on the landing page: censored text only.
type Public struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	Feedback  string `json:"feedback"`
	CreatedAt int64  `json:"created_at"`
}

func (f Feedback) Public() Public {
	return Public{ID: f.ID, Username: f.Username, Feedback: f.Filtered, CreatedAt: f.CreatedAt}
}

// Query narrows the admin list. Zero values mean no filter.
type Query struct {
	Search    string // substring of original or filtered text
	User      string // substring of username or email
	Status    string // verified|unverified
	Date      string // YYYY-MM-DD, UTC
	Profanity string // clean|filtered
	Limit     int
	Offset    int
}

// ListParams is a parsed Query as the store sees it.
type ListParams struct {
	Search, User      string
	Verified, Profane *bool
	FromUnix, ToUnix  int64
	Limit, Offset     int
}

type Stats struct {
	Total      int `json:"total"`
	Verified   int `json:"verified"`
	Unverified int `json:"unverified"`
	Filtered   int `json:"filtered"`
	Users      int `json:"users"`
}

type ProfanityStats struct {
	TotalProfane      int `json:"totalProfane"`
	VerifiedProfane   int `json:"verifiedProfane"`
	UnverifiedProfane int `json:"unverifiedProfane"`
}

type RefilterResult struct {
	Processed int `json:"processed"`
	Updated   int `json:"updated"`
}
