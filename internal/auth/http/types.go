package http

// MessageResponse is the body of the session endpoints.
type MessageResponse struct {
	Message string `json:"message" example:"hello Alice"`
}

// RegisterRequest is the body of POST /auth/register.
type RegisterRequest struct {
	Email    string `json:"email" example:"alice@example.com"`
	Password string `json:"password" example:"verysecurepassword123"`
	Name     string `json:"name,omitempty" example:"Alice"`
}

// LoginRequest is the body of POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email" example:"alice@example.com"`
	Password string `json:"password" example:"verysecurepassword123"`
}

// MeResponse describes the authenticated account.
type MeResponse struct {
	ID    string `json:"id" example:"01JNB6ZQ4D5V3Y0K8W2S7H9T1C"`
	Email string `json:"email" example:"alice@example.com"`
	Name  string `json:"name" example:"Alice"`
}

// NoteRequest is the body of POST /notes/me.
type NoteRequest struct {
	Content string `json:"content" example:"buy milk"`
}

// NoteResponse is the caller's note.
type NoteResponse struct {
	Content   string `json:"content" example:"buy milk"`
	UpdatedAt string `json:"updated_at" example:"2025-03-01T12:00:00Z"`
}

// HealthResponse is returned by the health probes.
type HealthResponse struct {
	Status  string        `json:"status" example:"ok"`
	Uptime  string        `json:"uptime" example:"1h2m3s"`
	Version string        `json:"version" example:"0.1.0"`
	Checks  *HealthChecks `json:"checks,omitempty"`
}

// HealthChecks reports dependency state for /readyz.
type HealthChecks struct {
	Database string `json:"database" example:"ok"`
}
