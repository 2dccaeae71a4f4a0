package album

import "fmt"

// PageURL returns the enumeration URL for one page of the album
func PageURL(albumURL string, page int) string {
	return fmt.Sprintf("%s?page=%d", albumURL, page)
}

// LoginURL returns the password submission endpoint for the album
func LoginURL(albumURL string) string {
	return albumURL + "/login"
}

// DownloadURL returns the media bytes endpoint for one item
func DownloadURL(albumURL, uuid string) string {
	return fmt.Sprintf("%s/media_files/%s/download", albumURL, uuid)
}
