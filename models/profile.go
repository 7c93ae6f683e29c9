package models

type ProfileRecord struct {
	Username          string `json:"username"`
	FullName          string `json:"fullName"`
	Biography         string `json:"biography"`
	FollowerCount     int64  `json:"followerCount"`
	FollowingCount    int64  `json:"followingCount"`
	PostCount         int64  `json:"postCount"`
	ProfilePictureURL string `json:"profilePictureUrl"`
	IsPrivate         bool   `json:"isPrivate"`
	IsVerified        bool   `json:"isVerified"`
}
