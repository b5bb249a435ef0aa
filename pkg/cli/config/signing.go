package config

import "github.com/urfave/cli/v3"

// Signing holds the secret used to sign run summaries
type Signing struct {
	Secret string `masq:"secret"`
}

// Flags returns CLI flags for signing configuration
func (c *Signing) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "signing-secret",
			Usage:       "HMAC secret for the run summary signature",
			Destination: &c.Secret,
			Sources:     cli.EnvVars("FORK_HMAC_SECRET", "HMAC_SECRET"),
		},
	}
}

// Key returns the secret as bytes, nil when unset
func (c *Signing) Key() []byte {
	if c.Secret == "" {
		return nil
	}
	return []byte(c.Secret)
}
