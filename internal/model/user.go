package model

// User is a participant known to the service. IDs come from the chat
// platform that fronts the service, so they are plain int64 values.
type User struct {
	ID       int64
	Username string
}

type Admin struct {
	UserID   int64
	Username string
}

// Principal is the authenticated caller extracted from the access token.
type Principal struct {
	UserID   int64
	Username string
}
