package auth

// demoPassword is shared by every seeded demo account.
const demoPassword = "demo123"

// demoAccounts is the fixed evaluation identity set. It is compiled in,
// never persisted by registration, and never deleted. Login checks it
// before the durable registry, so a demo credential pair always wins an
// email collision with a registered account.
var demoAccounts = map[string]User{
	"farmer@demo.com": {
		ID:    "farmer-1",
		Email: "farmer@demo.com",
		Name:  "Ram Prasad",
		Role:  RoleFarmer,
		Profile: &FarmProfile{
			FarmSize: "2.5",
			District: "Cuttack",
			Crops:    []string{"rice", "maize"},
		},
	},
	"govt@demo.com": {
		ID:    "govt-1",
		Email: "govt@demo.com",
		Name:  "Dr. Priya Sharma",
		Role:  RoleGovernment,
	},
	"research@demo.com": {
		ID:    "research-1",
		Email: "research@demo.com",
		Name:  "Dr. Rajesh Kumar",
		Role:  RoleResearcher,
	},
}

// IsDemoEmail reports whether the email belongs to a seeded demo
// account.
func IsDemoEmail(email string) bool {
	_, ok := demoAccounts[email]
	return ok
}
