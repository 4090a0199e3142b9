package validation

import "github.com/kariuki-dev/tenant-payment-agent/internal/api/request"

// ValidateCreateSession validates a session installation request.
// The tenant ID and bearer token are both required; the display name is not.
func ValidateCreateSession(req request.CreateSessionRequest) error {
	errors := make(map[string]string)

	if req.TenantID == "" {
		errors["tenantId"] = "tenantId is required"
	}
	if req.Token == "" {
		errors["token"] = "token is required"
	}

	if len(errors) > 0 {
		return &Error{Fields: errors}
	}

	return nil
}
