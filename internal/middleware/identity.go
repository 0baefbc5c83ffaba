package middleware

import "github.com/labstack/echo/v4"

// Identity is the authenticated staff member of a request.
type Identity struct {
	UserID    string
	Role      string
	CompanyID string
	AgencyID  string
}

// Staff returns the identity stored by JWTAuth.  ok is false on routes
// that JWTAuth does not guard.
func Staff(c echo.Context) (id Identity, ok bool) {
	id.UserID, ok = c.Get("user_id").(string)
	if !ok || id.UserID == "" {
		return Identity{}, false
	}
	id.Role, _ = c.Get("role").(string)
	id.CompanyID, _ = c.Get("company_id").(string)
	id.AgencyID, _ = c.Get("agency_id").(string)
	return id, true
}

// userID identifies the caller for rate limiting; "anon" for public
// requests.
func userID(c echo.Context) string {
	if id, ok := Staff(c); ok {
		return id.UserID
	}
	return "anon"
}
