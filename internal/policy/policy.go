package policy

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"

	dErrors "reserveguard/pkg/domain-errors"
)

// Documented defaults. A policy document only needs the fields it overrides.
const (
	DefaultMaxStrikes         = 3
	DefaultBlacklistThreshold = 5
	DefaultPenaltyFee         = 1000
	DefaultSuspensionDuration = 3600 // seconds
	DefaultReputationPenalty  = -10
)

// Config is the moderation policy. It is loaded once per operation and never
// mutated afterwards.
type Config struct {
	// MaxStrikes is the strike count at which a participant is blacklisted.
	MaxStrikes uint32 `toml:"max_strikes" json:"max_strikes"`
	// BlacklistThreshold is reserved for a secondary threshold; it does not
	// gate any transition today.
	BlacklistThreshold uint32 `toml:"blacklist_threshold" json:"blacklist_threshold"`
	// PenaltyFee and SuspensionDuration are informational.
	PenaltyFee         uint64 `toml:"penalty_fee" json:"penalty_fee"`
	SuspensionDuration uint64 `toml:"suspension_duration" json:"suspension_duration"`
	// ReputationPenalty is added to reputation on every adverse verdict.
	ReputationPenalty int `toml:"reputation_penalty" json:"reputation_penalty"`
	// AllowAppealRereview lets an already reviewed appeal be reviewed again.
	AllowAppealRereview bool `toml:"allow_appeal_rereview" json:"allow_appeal_rereview"`
}

// Default returns the documented default policy.
func Default() *Config {
	return &Config{
		MaxStrikes:         DefaultMaxStrikes,
		BlacklistThreshold: DefaultBlacklistThreshold,
		PenaltyFee:         DefaultPenaltyFee,
		SuspensionDuration: DefaultSuspensionDuration,
		ReputationPenalty:  DefaultReputationPenalty,
	}
}

// Suspension returns SuspensionDuration as a time.Duration.
func (c *Config) Suspension() time.Duration {
	return time.Duration(c.SuspensionDuration) * time.Second
}

// Validate checks invariants the moderation engine relies on.
func (c *Config) Validate() error {
	if c.MaxStrikes == 0 {
		return dErrors.New(dErrors.CodeValidation, "max_strikes must be at least 1")
	}
	return nil
}

// Decode reads a TOML policy document over the defaults. Unknown keys are
// rejected so a misspelt field cannot silently fall back to its default.
func Decode(r io.Reader) (*Config, error) {
	cfg := Default()
	dec := toml.NewDecoder(r).DisallowUnknownFields()
	if err := dec.Decode(cfg); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeValidation, "decode policy")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Load reads the policy document at path. A missing document is not an
// error: the defaults are returned and found is false.
func Load(path string) (cfg *Config, found bool, err error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Default(), false, nil
		}
		return nil, false, dErrors.Wrap(err, dErrors.CodePersistence, "open policy")
	}
	defer f.Close()

	cfg, err = Decode(f)
	if err != nil {
		return nil, true, fmt.Errorf("policy %s: %w", path, err)
	}
	return cfg, true, nil
}

// Encode writes cfg as a TOML document.
func Encode(w io.Writer, cfg *Config) error {
	return toml.NewEncoder(w).Encode(cfg)
}
