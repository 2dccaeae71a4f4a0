package album

import (
	"encoding/json"
	"strings"

	apperrors "mitenedl/pkg/errors"
)

// The album provider embeds everything this tool needs as plain strings
// in the page markup. These markers are a private, versioned contract
// with the provider: if its markup changes, only this file breaks.
const (
	passwordChallengeMarker = "Please enter your password"
	authenticityTokenMarker = `name="authenticity_token" value="`
	listingStartMarker      = "//<![CDATA[\nwindow.gon={};gon.media="
	listingEndMarker        = ";gon.familyUserIdToColorMap="
)

// hasPasswordChallenge reports whether the page is the password prompt
// instead of the album listing.
func hasPasswordChallenge(body string) bool {
	return strings.Contains(body, passwordChallengeMarker)
}

// extractAuthenticityToken pulls the one-time login form token out of
// the challenge page.
func extractAuthenticityToken(body string) (string, error) {
	_, rest, found := strings.Cut(body, authenticityTokenMarker)
	if !found {
		return "", apperrors.New(apperrors.ErrorTypeProtocol, "could not find authenticity token in login page")
	}

	token, _, found := strings.Cut(rest, `"`)
	if !found || token == "" {
		return "", apperrors.New(apperrors.ErrorTypeProtocol, "could not parse authenticity token")
	}

	return token, nil
}

// extractMediaListing pulls the embedded media JSON out of an album
// page and decodes it into the page's items.
func extractMediaListing(body string) ([]Item, error) {
	_, rest, found := strings.Cut(body, listingStartMarker)
	if !found {
		return nil, apperrors.New(apperrors.ErrorTypeProtocol, "album page does not contain a media listing")
	}

	raw, _, found := strings.Cut(rest, listingEndMarker)
	if !found {
		return nil, apperrors.New(apperrors.ErrorTypeProtocol, "album page media listing is not terminated")
	}

	var payload listingPayload
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return nil, apperrors.New(apperrors.ErrorTypeProtocol, "album page media listing is malformed: %v", err)
	}

	return payload.MediaFiles, nil
}
