package models

// User holds the identity fields the relationship subsystem reads.
// Users are owned by the account service.
type User struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	FullName string `json:"full_name"`
	Career   string `json:"career"`
	Semester *int   `json:"semester,omitempty"`
	IsActive bool   `json:"is_active"`
}

// DisplayName prefers the full name and falls back to the username.
func (u *User) DisplayName() string {
	if u.FullName != "" {
		return u.FullName
	}
	return u.Username
}
