package model

// RegistrationEvent is the immutable snapshot published once per
// successful registration. It carries the new user by value so that
// subscribers never observe later mutations.
type RegistrationEvent struct {
	User User `json:"user"`
}
