package models

// User is a notification recipient.
type User struct {
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
	Email       string `json:"email,omitempty"`
}

// Label returns the display name, falling back to the user name.
func (u User) Label() string {
	if u.DisplayName != "" {
		return u.DisplayName
	}
	return u.Name
}

// RecipientPage is a limited slice of the users a notification was sent to.
// HasMore tells whether more users exist beyond the limit; it is not a count.
type RecipientPage struct {
	Users   []User `json:"users"`
	HasMore bool   `json:"has_more"`
}
