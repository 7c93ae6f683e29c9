package catalog

import (
	"strings"

	"profile-viewer/models"
)

const notFoundMessage = "User not found. Try: tech_enthusiast, travel_explorer, or private_user"

var (
	keys = []string{"tech_enthusiast", "travel_explorer", "private_user"}

	profiles = map[string]models.ProfileRecord{
		"tech_enthusiast": {
			Username:          "tech_enthusiast",
			FullName:          "Alex Rodriguez",
			Biography:         "🚀 Software Developer | Tech Blogger | Coffee Enthusiast ☕\n📍 San Francisco, CA\n💻 Building the future, one line of code at a time",
			FollowerCount:     15420,
			FollowingCount:    892,
			PostCount:         156,
			ProfilePictureURL: "https://images.pexels.com/photos/2379004/pexels-photo-2379004.jpeg",
			IsPrivate:         false,
			IsVerified:        true,
		},
		"travel_explorer": {
			Username:          "travel_explorer",
			FullName:          "Emma Johnson",
			Biography:         "✈️ Digital Nomad | 📸 Travel Photographer\n🌍 Exploring 50 countries before 30\n📧 emma@travelwithme.com",
			FollowerCount:     28930,
			FollowingCount:    1203,
			PostCount:         342,
			ProfilePictureURL: "https://images.pexels.com/photos/774909/pexels-photo-774909.jpeg",
			IsPrivate:         false,
			IsVerified:        false,
		},
		"private_user": {
			Username:          "private_user",
			FullName:          "John Smith",
			ProfilePictureURL: "https://images.pexels.com/photos/220453/pexels-photo-220453.jpeg",
			IsPrivate:         true,
		},
	}
)

func Normalize(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

func Lookup(key string) (models.ProfileRecord, bool) {
	record, ok := profiles[key]
	return record, ok
}

func Keys() []string {
	out := make([]string, len(keys))
	copy(out, keys)
	return out
}

func IsKey(key string) bool {
	_, ok := profiles[key]
	return ok
}

func NotFoundMessage() string {
	return notFoundMessage
}
