package models

// LoginRequest represents the login credentials
type LoginRequest struct {
	// User's email address
	Email string `json:"email" example:"user@example.com"`
	// User's password
	Password string `json:"password" example:"password123"`
}

// SignupRequest carries the sign-up form. Name and company are optional.
type SignupRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	FullName    string `json:"full_name,omitempty"`
	CompanyName string `json:"company_name,omitempty"`
}

// LoginResponse represents the login response
type LoginResponse struct {
	// JWT token for authentication
	Token string `json:"token" example:"eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9..."`
	Type  string `json:"type" example:"bearer"`
}

// CheckoutRequest selects a plan and billing period.
type CheckoutRequest struct {
	Plan    string `json:"plan"`
	Billing string `json:"billing"`
}

type CheckoutResponse struct {
	URL string `json:"url"`
}

// GenerateResponse is returned by the report submission endpoint.
type GenerateResponse struct {
	ReportID string    `json:"reportId"`
	Report   ESGReport `json:"report"`
}
