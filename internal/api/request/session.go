package request

// CreateSessionRequest installs the tenant identity and bearer credential
// obtained from the authentication flow.
type CreateSessionRequest struct {
	TenantID string `json:"tenantId"`
	Name     string `json:"name,omitempty"`
	Token    string `json:"token"`
}
