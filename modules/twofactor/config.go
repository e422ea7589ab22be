package twofactor

// Config controls the setup wizard and enforcement.
type Config struct {
	Issuer     string `env:"TOTP_ISSUER" envDefault:"Settlex"`
	LandingURL string `env:"TWOFACTOR_LANDING_URL" envDefault:"/my-settlements/"`
	AdminURL   string `env:"TWOFACTOR_ADMIN_URL" envDefault:"/admin/"`
	// SetupURL is used when the setup route name cannot be resolved.
	SetupURL string `env:"TWOFACTOR_SETUP_URL" envDefault:"/account/two_factor/setup/"`
	// VerifyURL is used when the token route name cannot be resolved.
	VerifyURL      string   `env:"TWOFACTOR_VERIFY_URL" envDefault:"/account/two_factor/verify/"`
	ExemptPrefixes []string `env:"TWOFACTOR_EXEMPT_PREFIXES" envDefault:"/static/,/media/,/admin/" envSeparator:","`
	QRSize         int      `env:"TWOFACTOR_QR_SIZE" envDefault:"256"`
}

// DefaultConfig mirrors the env defaults.
func DefaultConfig() Config {
	return Config{
		Issuer:         "Settlex",
		LandingURL:     "/my-settlements/",
		AdminURL:       "/admin/",
		SetupURL:       "/account/two_factor/setup/",
		VerifyURL:      "/account/two_factor/verify/",
		ExemptPrefixes: []string{"/static/", "/media/", "/admin/"},
		QRSize:         256,
	}
}
