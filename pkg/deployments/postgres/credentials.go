package postgres

import (
	"fmt"

	"github.com/sethvargo/go-password/password"
)

const (
	// DefaultUser is the application account the scenarios connect as.
	DefaultUser = "testu"

	// DefaultDatabase is the database the scenarios operate on.
	DefaultDatabase = "testdb"
)

// Credentials is the string bag of database coordinates handed to templates
// and deployments. No invariants beyond non-emptiness.
type Credentials struct {
	User     string
	Password string
	Database string
}

// NewCredentials provides the default scenario account with a freshly
// generated password.
func NewCredentials() (Credentials, error) {
	secret, err := GeneratePassword()
	if err != nil {
		return Credentials{}, err
	}
	return Credentials{
		User:     DefaultUser,
		Password: secret,
		Database: DefaultDatabase,
	}, nil
}

// GeneratePassword generates a random 16 character alphanumeric password.
// Symbols are left out so the value passes through template parameters and
// connection strings unescaped.
func GeneratePassword() (string, error) {
	return password.Generate(16, 5, 0, false, false)
}

// Validate rejects partially filled credentials.
func (c Credentials) Validate() error {
	if c.User == "" || c.Password == "" || c.Database == "" {
		return fmt.Errorf("credentials require user, password and database, got %+v", Credentials{
			User:     c.User,
			Database: c.Database,
			Password: mask(c.Password),
		})
	}
	return nil
}

func mask(s string) string {
	if s == "" {
		return ""
	}
	return "****"
}
