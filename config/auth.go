package config

import "github.com/ananya-001/FleetFlow/core/auth"

// AuthConfig sets the role the service acts under when no caller role is
// given, e.g. for the long-running daemon.
type AuthConfig struct {
	Role string `json:"role"`
}

// SetDefaults applies sane defaults.
func (c *AuthConfig) SetDefaults() {
	if c.Role == "" {
		c.Role = string(auth.RoleDispatcher)
	}
}

// Validate checks that the role is known.
func (c AuthConfig) Validate() error {
	_, err := auth.ParseRole(c.Role)
	return err
}
