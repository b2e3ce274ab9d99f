package config

// Vesting configures the linear vesting engine.
type Vesting struct {
	DurationSeconds uint64 `toml:"DurationSeconds"`
	MinPenaltyBps   uint64 `toml:"MinPenaltyBps"`
}

// Token configures the reference token ledger.
type Token struct {
	// CapWei bounds NUT supply and the combined esNUT+NUT supply.
	CapWei string `toml:"CapWei"`
	// InitialEsNUT is minted to the admin at genesis when non-empty.
	InitialEsNUT string `toml:"InitialEsNUT"`
	// UnlockTransfers disables the esNUT transfer lock at genesis.
	UnlockTransfers bool `toml:"UnlockTransfers"`
}

// Auth configures gateway JWT verification.
type Auth struct {
	HMACSecret string `toml:"HMACSecret"`
	Issuer     string `toml:"Issuer"`
	Audience   string `toml:"Audience"`
}

// RateLimit throttles claim submissions per client.
type RateLimit struct {
	ClaimsPerMinute float64 `toml:"ClaimsPerMinute"`
	Burst           int     `toml:"Burst"`
}

// Telemetry configures the OTLP exporters. An empty endpoint disables them.
type Telemetry struct {
	Endpoint string `toml:"Endpoint"`
	Insecure bool   `toml:"Insecure"`
	Headers  string `toml:"Headers"`
}

// Distribution describes an airdrop published at startup.
type Distribution struct {
	ID    string `toml:"ID"`
	Token string `toml:"Token"`
	Root  string `toml:"Root"`
	// Total is optional; when empty it is summed from the proof documents.
	Total string `toml:"Total"`
	// ArtifactsPath points at the per-address proof document JSON.
	ArtifactsPath string `toml:"ArtifactsPath"`
	// Fund moves Total from the admin into custody when first published.
	Fund bool `toml:"Fund"`
}
