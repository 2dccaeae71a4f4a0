// Package album talks to the mitene.us / family-album.com web album.
//
// The Session type owns the authenticated HTTP context for one run:
// created once, authenticated at most once (when the first page turns
// out to be a password challenge), then shared read-only by every
// concurrent download. Page enumeration is strictly sequential; page
// k+1 is never requested before page k completed.
//
// The provider embeds both the password challenge and the media listing
// as plain strings in its page markup. That contract lives in parser.go
// and nowhere else, so a markup change on the provider's side stays a
// one-file fix.
package album
