package app

import (
	"fmt"
	"strings"

	"github.com/charlesng35/guestbook/pkg/crypto"
)

const sessionSecretBytes = 48

// ApplyRuntimeDefaults fills in secrets missing from the configuration. It returns
// the keys that were generated so callers can log the event without exposing values.
// A generated session secret lives only as long as the process, so sessions do not
// survive a restart.
func ApplyRuntimeDefaults(cfg *Config) (map[string]bool, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is nil")
	}

	generated := make(map[string]bool)

	if strings.TrimSpace(cfg.Session.Secret) == "" {
		secret, err := crypto.GenerateToken(sessionSecretBytes)
		if err != nil {
			return nil, fmt.Errorf("generate session secret: %w", err)
		}
		cfg.Session.Secret = secret
		generated["session.secret"] = true
	}

	return generated, nil
}
