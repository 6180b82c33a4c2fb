package auth

type Role string

const (
	RoleFarmer     Role = "farmer"
	RoleGovernment Role = "government"
	RoleResearcher Role = "researcher"
)

// Valid reports whether the role is one of the closed set. Route guards
// and registration both reject anything outside it.
func (r Role) Valid() bool {
	switch r {
	case RoleFarmer, RoleGovernment, RoleResearcher:
		return true
	default:
		return false
	}
}

// FarmProfile carries the optional farm attributes collected at
// registration. Typically present for farmers and absent for the
// government and researcher roles.
type FarmProfile struct {
	FarmSize string   `json:"farmSize,omitempty"`
	District string   `json:"district,omitempty"`
	Crops    []string `json:"crops,omitempty"`
}

// User is the published identity: what the session record persists and
// what the rest of the application sees. It deliberately has no
// password field; credentials live only in the store-side record.
type User struct {
	ID      string       `json:"id"`
	Email   string       `json:"email"`
	Name    string       `json:"name"`
	Role    Role         `json:"role"`
	Profile *FarmProfile `json:"profile,omitempty"`
}

// RegisterRequest contains self-registration data supplied by callers.
// The role is fixed at registration time and cannot be changed later.
type RegisterRequest struct {
	Email    string       `json:"email"`
	Password string       `json:"password"`
	Name     string       `json:"name"`
	Role     Role         `json:"role"`
	Profile  *FarmProfile `json:"profile,omitempty"`
}

// LoginRequest contains user login credentials.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}
