package domain

// RegisterRequest is the body of POST /register.
type RegisterRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginRequest is the body of POST /login.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// RegisterResponse is returned on successful registration.
type RegisterResponse struct {
	Message  string `json:"message"`
	Username string `json:"username"`
}

// LoginResponse is returned on successful login.
type LoginResponse struct {
	Message  string `json:"message"`
	Token    string `json:"token"`
	Username string `json:"username"`
}

// ReviewResponse is returned by review mutations. Review is omitted on delete.
type ReviewResponse struct {
	Message  string            `json:"message"`
	ISBN     string            `json:"isbn"`
	Reviewer string            `json:"reviewer"`
	Review   string            `json:"review,omitempty"`
	Reviews  map[string]string `json:"reviews"`
}
