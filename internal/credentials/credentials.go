// Package credentials resolves the basic-auth pair used between the backup
// client and server when mutual TLS is disabled.
package credentials

import (
	"github.com/angeloszaimis/backup-config/internal/properties"
)

// Path is where both roles look for the basic-auth pair, relative to the
// job namespace.
const Path = "endpoint_credentials"

// Credentials serializes as an empty mapping when unset.
type Credentials struct {
	Username string `yaml:"Username,omitempty"`
	Password string `yaml:"Password,omitempty"`
}

func (c Credentials) IsEmpty() bool {
	return c.Username == "" && c.Password == ""
}

// Resolve reads username and password from bag, which must be scoped at the
// credentials path. Empty values count as missing. Under mutual TLS the bag
// is never read and the result is empty, even when credentials are present.
func Resolve(bag properties.Bag, mutualTLS bool) (Credentials, error) {
	if mutualTLS {
		return Credentials{}, nil
	}

	username, err := bag.NonEmptyString("username")
	if err != nil {
		return Credentials{}, err
	}

	password, err := bag.NonEmptyString("password")
	if err != nil {
		return Credentials{}, err
	}

	return Credentials{Username: username, Password: password}, nil
}
