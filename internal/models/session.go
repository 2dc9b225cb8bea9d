package models

// Session is the identity-provider-issued principal for the current browser
// context. The bearer credential itself stays with the provider and is
// obtained through its Token accessor.
type Session struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}
