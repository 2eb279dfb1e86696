package validation

import (
	"errors"
	"strings"
)

// ValidateEvidenceURL checks the link to the published post. Only the
// literal "http" prefix is required, which admits both http and https.
func ValidateEvidenceURL(url string) error {
	if !strings.HasPrefix(url, "http") {
		return errors.New("invalid URL: must start with http")
	}
	return nil
}
