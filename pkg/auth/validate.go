package auth

import (
	"regexp"

	"github.com/flaitravel/mobile-core/pkg/api"
	"github.com/flaitravel/mobile-core/pkg/apperr"
)

var (
	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	phonePattern = regexp.MustCompile(`^\+?[\d\s\-()]{10,}$`)
)

// validateLogin enforces the login contract before any I/O: exactly one of
// email or phone, in a plausible format.
func validateLogin(email, phone string) error {
	if email == "" && phone == "" {
		return apperr.New(apperr.KindInvalidInput, apperr.CodeMissingCredentials,
			"email or phone is required")
	}
	if email != "" && !emailPattern.MatchString(email) {
		return &apperr.Error{
			Kind: apperr.KindInvalidInput, Code: apperr.CodeInvalidEmail,
			Field: "email", Message: "invalid email format",
		}
	}
	if phone != "" && !phonePattern.MatchString(phone) {
		return &apperr.Error{
			Kind: apperr.KindInvalidInput, Code: apperr.CodeInvalidPhone,
			Field: "phone", Message: "invalid phone format",
		}
	}
	return nil
}

// validateDeviceInfo enforces the registration contract before any I/O.
func validateDeviceInfo(info api.DeviceInfo) error {
	if info.DeviceID == "" || info.Platform == "" || info.AppVersion == "" {
		return apperr.New(apperr.KindInvalidInput, apperr.CodeInvalidDeviceInfo,
			"invalid device information")
	}
	return nil
}
