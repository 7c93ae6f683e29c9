package viewer

import (
	"profile-viewer/catalog"
	"profile-viewer/models"
)

type ViewKind string

const (
	ViewIdle          ViewKind = "idle"
	ViewLoading       ViewKind = "loading"
	ViewError         ViewKind = "error"
	ViewResultPublic  ViewKind = "public"
	ViewResultPrivate ViewKind = "private"
)

const privateNotice = "This account is private. Profile data is not accessible."

type Field struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

type ProfileView struct {
	Username    string  `json:"username"`
	FullName    string  `json:"fullName"`
	AvatarURL   string  `json:"avatarUrl"`
	IsVerified  bool    `json:"isVerified"`
	IsPrivate   bool    `json:"isPrivate"`
	AccountType string  `json:"accountType"`
	Stats       []Field `json:"stats,omitempty"`
	Biography   string  `json:"biography,omitempty"`
	Details     []Field `json:"details,omitempty"`
}

type View struct {
	Kind          ViewKind     `json:"kind"`
	Input         string       `json:"input"`
	Message       string       `json:"message,omitempty"`
	Profile       *ProfileView `json:"profile,omitempty"`
	DemoUsernames []string     `json:"demoUsernames"`
}

// Select maps a query state to exactly one view variant. Loading wins over
// an error, and an error wins over a record.
func Select(state models.QueryState) View {
	view := View{
		Kind:          ViewIdle,
		Input:         state.Input,
		DemoUsernames: catalog.Keys(),
	}

	switch {
	case state.Loading:
		view.Kind = ViewLoading
	case state.Error != "":
		view.Kind = ViewError
		view.Message = state.Error
	case state.Record != nil && state.Record.IsPrivate:
		view.Kind = ViewResultPrivate
		view.Message = privateNotice
		view.Profile = privateProfile(*state.Record)
	case state.Record != nil:
		view.Kind = ViewResultPublic
		view.Profile = publicProfile(*state.Record)
	}
	return view
}

func privateProfile(r models.ProfileRecord) *ProfileView {
	return &ProfileView{
		Username:    r.Username,
		FullName:    r.FullName,
		AvatarURL:   r.ProfilePictureURL,
		IsVerified:  r.IsVerified,
		IsPrivate:   true,
		AccountType: "Private",
	}
}

func publicProfile(r models.ProfileRecord) *ProfileView {
	return &ProfileView{
		Username:    r.Username,
		FullName:    r.FullName,
		AvatarURL:   r.ProfilePictureURL,
		IsVerified:  r.IsVerified,
		AccountType: "Public",
		Stats: []Field{
			{Label: "Posts", Value: FormatNumber(r.PostCount)},
			{Label: "Followers", Value: FormatNumber(r.FollowerCount)},
			{Label: "Following", Value: FormatNumber(r.FollowingCount)},
		},
		Biography: r.Biography,
		Details: []Field{
			{Label: "Profile Picture URL", Value: r.ProfilePictureURL},
			{Label: "Account Type", Value: "Public"},
		},
	}
}
