package security

import (
	"fmt"

	"github.com/pquerna/otp/totp"
)

// GenerateTOTPSecret provisions a new TOTP secret for an admin account and
// returns the secret plus the otpauth:// provisioning URL.
func GenerateTOTPSecret(issuer, accountName string) (secret string, url string, err error) {
	key, errGenerate := totp.Generate(totp.GenerateOpts{
		Issuer:      issuer,
		AccountName: accountName,
	})
	if errGenerate != nil {
		return "", "", fmt.Errorf("security: generate totp secret: %w", errGenerate)
	}
	return key.Secret(), key.URL(), nil
}

// ValidateTOTP reports whether the passcode is valid for the secret now.
func ValidateTOTP(secret, passcode string) bool {
	if secret == "" || passcode == "" {
		return false
	}
	return totp.Validate(passcode, secret)
}
