package extract

import (
	"net/url"
	"regexp"
	"strings"
)

var videoID = regexp.MustCompile(`^[A-Za-z0-9_-]{6,}$`)

// VideoID returns the YouTube video ID in rawURL. Accepted forms are
// youtube.com/watch?v=, youtu.be/, youtube.com/shorts/, /embed/ and /live/.
func VideoID(rawURL string) (string, bool) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return "", false
	}
	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	host = strings.TrimPrefix(host, "m.")
	var id string
	switch host {
	case "youtu.be":
		id = strings.Trim(u.Path, "/")
	case "youtube.com", "music.youtube.com", "youtube-nocookie.com":
		if u.Path == "/watch" {
			id = u.Query().Get("v")
			break
		}
		for _, prefix := range []string{"/shorts/", "/embed/", "/live/", "/v/"} {
			if rest, ok := strings.CutPrefix(u.Path, prefix); ok {
				id, _, _ = strings.Cut(rest, "/")
				break
			}
		}
	}
	if !videoID.MatchString(id) {
		return "", false
	}
	return id, true
}
