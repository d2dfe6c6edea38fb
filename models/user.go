package models

// DefaultRating is the rating assigned to freshly registered accounts.
const DefaultRating = 100

// User is an account row. Password holds the bcrypt hash and is never
// serialized in API responses.
type User struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Password string `json:"-"`
	Rating   int    `json:"rating"`
}
