package document

import (
	"net/url"
	"strings"
)

// Resolve normalizes a document link for downloading. Google Drive share
// links (the "file view" and "open" forms) are rewritten into the direct
// download form; every other link is returned unchanged. Resolve never
// fails: anything it does not recognize is passed through for a best-effort
// fetch downstream.
func Resolve(link string) string {
	parsed, err := url.Parse(strings.TrimSpace(link))
	if err != nil || parsed.Host == "" {
		return link
	}

	if !strings.EqualFold(parsed.Hostname(), "drive.google.com") {
		return link
	}

	id := driveFileID(parsed)
	if id == "" {
		return link
	}

	q := url.Values{}
	q.Set("export", "download")
	q.Set("id", id)

	return "https://drive.google.com/uc?" + q.Encode()
}

// driveFileID extracts the file identifier from the two share-link shapes:
// /file/d/<id>/... and /open?id=<id>.
func driveFileID(u *url.URL) string {
	segments := strings.Split(strings.Trim(u.Path, "/"), "/")

	if len(segments) >= 3 && segments[0] == "file" && segments[1] == "d" {
		return strings.TrimSpace(segments[2])
	}

	if len(segments) >= 1 && segments[0] == "open" {
		return strings.TrimSpace(u.Query().Get("id"))
	}

	return ""
}
