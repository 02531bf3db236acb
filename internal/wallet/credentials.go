package wallet

import (
	"fmt"
	"strings"

	"github.com/tyler-smith/go-bip39"
)

// SecretKind identifies the kind of secret material a session starts from.
type SecretKind string

const (
	SecretSeed  SecretKind = "seed"
	SecretXPriv SecretKind = "xpriv"
	SecretXPub  SecretKind = "xpub"
)

// Credentials is the secret material and unlock codes for a start request.
// Exactly one of SeedPhrase, XPriv or XPub must be set.
type Credentials struct {
	SeedPhrase string
	XPriv      string
	XPub       string

	// Hardware marks a hardware-key session. Hardware sessions always use
	// the Local backend.
	Hardware bool

	PIN      string
	Password string
}

// Kind returns the secret kind, validating that exactly one secret is set.
func (c *Credentials) Kind() (SecretKind, error) {
	var kinds []SecretKind
	if c.SeedPhrase != "" {
		kinds = append(kinds, SecretSeed)
	}
	if c.XPriv != "" {
		kinds = append(kinds, SecretXPriv)
	}
	if c.XPub != "" {
		kinds = append(kinds, SecretXPub)
	}

	switch len(kinds) {
	case 0:
		return "", fmt.Errorf("no secret material provided")
	case 1:
		return kinds[0], nil
	default:
		return "", fmt.Errorf("ambiguous secret material: %d kinds provided", len(kinds))
	}
}

// Validate checks the credentials are usable for a start request.
func (c *Credentials) Validate() error {
	kind, err := c.Kind()
	if err != nil {
		return err
	}

	if kind == SecretSeed {
		mnemonic := strings.TrimSpace(c.SeedPhrase)
		if !bip39.IsMnemonicValid(mnemonic) {
			return fmt.Errorf("invalid seed phrase")
		}
	}

	if c.PIN == "" {
		return fmt.Errorf("pin is required")
	}

	return nil
}
