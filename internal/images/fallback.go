package images

import "discovery/internal/models"

var (
	palette = []string{"#667eea", "#f093fb", "#4facfe", "#43e97b", "#fa709a"}
	icons   = []string{"🏛️", "🍽️", "☕", "🖼️", "🌳"}
)

// Fallback picks gradient colours and an icon from the marker number.
func Fallback(markerNumber int) *models.Image {
	n := len(palette)
	i := ((markerNumber % n) + n) % n
	return &models.Image{
		Source: "fallback",
		Fallback: &models.Fallback{
			From: palette[i],
			To:   palette[(i+1)%n],
			Icon: icons[i],
		},
	}
}
