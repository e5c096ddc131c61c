package auth

// User is the sanitized per-request identity snapshot. It contains the
// allow-listed fields of a user record and nothing else, never
// credential material.
type User struct {
	ID      string // hex form of the store primary key
	Name    string // display name
	Email   string // contact identifier
	IsAdmin bool   // elevated-privilege flag, false unless the record says true
}
