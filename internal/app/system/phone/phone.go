// Package phone normalizes lead phone numbers to E.164.
package phone

import (
	"errors"
	"fmt"
	"strings"

	"github.com/nyaruka/phonenumbers"
)

// DefaultRegion is used when a number has no country prefix.
const DefaultRegion = "IN"

// ErrInvalid is returned for numbers that parse but are not dialable.
var ErrInvalid = errors.New("invalid phone number")

// Normalizer converts numbers to E.164 using a default region for local
// numbers.
type Normalizer struct {
	region string
}

// New returns a Normalizer for region (ISO 3166 alpha-2). Empty means
// DefaultRegion.
func New(region string) (*Normalizer, error) {
	region = strings.ToUpper(strings.TrimSpace(region))
	if region == "" {
		region = DefaultRegion
	}
	if phonenumbers.GetCountryCodeForRegion(region) == 0 {
		return nil, fmt.Errorf("unknown phone region %q", region)
	}
	return &Normalizer{region: region}, nil
}

// Region reports the default region.
func (n *Normalizer) Region() string { return n.region }

// Normalize returns phone in E.164 form. Empty input returns "" and no
// error since phone is optional on a lead.
func (n *Normalizer) Normalize(phone string) (string, error) {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return "", nil
	}
	parsed, err := phonenumbers.Parse(phone, n.region)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if !phonenumbers.IsValidNumber(parsed) {
		return "", ErrInvalid
	}
	return phonenumbers.Format(parsed, phonenumbers.E164), nil
}

// Display formats an E.164 number for people, falling back to the input.
func (n *Normalizer) Display(e164 string) string {
	parsed, err := phonenumbers.Parse(e164, n.region)
	if err != nil {
		return e164
	}
	return phonenumbers.Format(parsed, phonenumbers.INTERNATIONAL)
}
