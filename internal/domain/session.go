package domain

// AuthSession records that an administrator signed in. Holding a record with
// IsAuthenticated=true is what "logged in" means; there is no server-side
// verification behind it.
type AuthSession struct {
	Username        string `json:"username"`
	IsAuthenticated bool   `json:"isAuthenticated"`
}

// Valid reports whether the record grants access to the admin pages.
func (s *AuthSession) Valid() bool {
	return s != nil && s.IsAuthenticated
}
