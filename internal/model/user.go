package model

// User is the profile owned by the remote service. The password is never
// part of read state; it only travels in UserUpdate.
type User struct {
	ID       string `json:"_id"`
	Email    string `json:"email"`
	Name     string `json:"name"`
	Username string `json:"username"`
}

// UserUpdate is the body of PUT /user/:id. Nil fields are left unchanged.
type UserUpdate struct {
	Name     *string `json:"name,omitempty"`
	Username *string `json:"username,omitempty"`
	Email    *string `json:"email,omitempty"`
	Password *string `json:"password,omitempty"`
}

// Empty reports whether the update changes nothing.
func (u UserUpdate) Empty() bool {
	return u.Name == nil && u.Username == nil && u.Email == nil && u.Password == nil
}

// Credentials is the body of POST /api/auth/login.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Registration is the body of POST /api/auth/signup.
type Registration struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
	Username string `json:"username"`
}

// AuthResponse is the body returned by login and signup.
type AuthResponse struct {
	User User `json:"user"`
}

// Session records that a user id is authenticated on this device.
type Session struct {
	UserID string `json:"userId"`
}

// Valid reports whether the session carries an identity.
func (s Session) Valid() bool {
	return s.UserID != ""
}
