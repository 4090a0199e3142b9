package model

// Session identifies the tenant on whose behalf the agent operates.
// The token is an opaque bearer credential issued by the backend; the
// agent only ever forwards it, it never inspects or refreshes it.
type Session struct {
	TenantID string `json:"tenantId"`
	Name     string `json:"name,omitempty"`
	Token    string `json:"token"`
}
