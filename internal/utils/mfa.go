package utils

import (
	"strings"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

// MFAConfig holds configuration for multi-factor authentication
type MFAConfig struct {
	Issuer     string
	Period     uint
	Digits     otp.Digits
	Algorithm  otp.Algorithm
	SecretSize uint
}

// DefaultMFAConfig returns the default MFA configuration
func DefaultMFAConfig() MFAConfig {
	return MFAConfig{
		Issuer:     "TrustZedFund",
		Period:     30,
		Digits:     otp.DigitsSix,
		Algorithm:  otp.AlgorithmSHA1,
		SecretSize: 20,
	}
}

// MFAKey represents a TOTP key for multi-factor authentication
type MFAKey struct {
	Secret string
	URL    string
}

// GenerateTOTPKey generates a new TOTP key for MFA
func GenerateTOTPKey(config MFAConfig, accountName string) (*MFAKey, error) {
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      config.Issuer,
		AccountName: accountName,
		Period:      config.Period,
		Digits:      config.Digits,
		Algorithm:   config.Algorithm,
		SecretSize:  config.SecretSize,
	})
	if err != nil {
		return nil, err
	}

	return &MFAKey{
		Secret: key.Secret(),
		URL:    key.URL(),
	}, nil
}

// ValidateTOTPCode validates a TOTP code
func ValidateTOTPCode(secret, code string, config MFAConfig) bool {
	code = strings.ReplaceAll(code, " ", "")

	valid, err := totp.ValidateCustom(
		code,
		secret,
		time.Now().UTC(),
		totp.ValidateOpts{
			Period:    config.Period,
			Digits:    config.Digits,
			Algorithm: config.Algorithm,
		},
	)
	if err != nil {
		return false
	}

	return valid
}
