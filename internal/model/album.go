package model

import (
	"strconv"
	"strings"
)

// AlbumsResult is a single album entry of the Apple Music marketing RSS feed.
type AlbumsResult struct {
	ID                    string  `json:"id"`
	Name                  string  `json:"name"`
	ArtistName            string  `json:"artistName"`
	ArtistID              string  `json:"artistId"`
	ArtistURL             string  `json:"artistUrl"`
	ReleaseDate           string  `json:"releaseDate"`
	Kind                  string  `json:"kind"`
	ContentAdvisoryRating string  `json:"contentAdvisoryRating"`
	ArtworkURL100         string  `json:"artworkUrl100"`
	Genres                []Genre `json:"genres"`
	URL                   string  `json:"url"`
}

type Genre struct {
	GenreID string `json:"genreId"`
	Name    string `json:"name"`
	URL     string `json:"url"`
}

// GenreNames returns the genre names in feed order, skipping the catch-all "Music".
func (a AlbumsResult) GenreNames() []string {
	names := make([]string, 0, len(a.Genres))
	for _, g := range a.Genres {
		if g.Name == "" || g.Name == "Music" {
			continue
		}
		names = append(names, g.Name)
	}
	return names
}

func (a AlbumsResult) Explicit() bool {
	return strings.EqualFold(a.ContentAdvisoryRating, "Explicit")
}

// ReleaseYear returns the YYYY prefix of ReleaseDate, or "" if the date is malformed.
func (a AlbumsResult) ReleaseYear() string {
	if len(a.ReleaseDate) < 4 {
		return ""
	}
	year := a.ReleaseDate[:4]
	for _, c := range year {
		if c < '0' || c > '9' {
			return ""
		}
	}
	return year
}

// Artwork rewrites the 100x100 artwork URL to the requested square size.
// The CDN serves any size when the path segment is swapped.
func (a AlbumsResult) Artwork(size int) string {
	if a.ArtworkURL100 == "" || size <= 0 {
		return a.ArtworkURL100
	}
	const marker = "100x100"
	idx := strings.LastIndex(a.ArtworkURL100, marker)
	if idx == -1 {
		return a.ArtworkURL100
	}
	dim := strconv.Itoa(size)
	return a.ArtworkURL100[:idx] + dim + "x" + dim + a.ArtworkURL100[idx+len(marker):]
}
