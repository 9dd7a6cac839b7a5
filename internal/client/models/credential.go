package models

// Credential is the token pair issued by the API on login.
type Credential struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// Empty reports whether no access token is held.
func (c Credential) Empty() bool {
	return c.Access == ""
}

// LoginRequest is sent to POST /login/.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// RegisterRequest is sent to POST /register/.
type RegisterRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Email    string `json:"email"`
}

// User is the account returned on registration.
type User struct {
	ID       string `json:"user_id,omitempty"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// RefreshRequest is sent to POST /token/refresh/.
type RefreshRequest struct {
	Refresh string `json:"refresh"`
}
