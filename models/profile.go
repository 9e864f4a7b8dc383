package models

// UserProfile is the stored form of a user. Mail is the primary key.
// Following holds mails only; followers are derived from other profiles.
type UserProfile struct {
	Mail            string   `json:"mail"`
	Name            string   `json:"name"`
	Surname         string   `json:"surname"`
	Pseudo          string   `json:"pseudo"`
	Bio             string   `json:"bio"`
	ProfileImageURL string   `json:"profile_image_url"`
	Following       []string `json:"following"`
	FavoritesPaths  []string `json:"favorites_paths"`
}

// ProfileSummary is the resolved, read-time snapshot of a related profile.
type ProfileSummary struct {
	Mail            string `json:"mail"`
	Name            string `json:"name"`
	Surname         string `json:"surname"`
	Pseudo          string `json:"pseudo"`
	ProfileImageURL string `json:"profile_image_url"`
}

// ProfileView is a profile with its relations resolved.
type ProfileView struct {
	UserProfile
	Followers     []ProfileSummary `json:"followers"`
	FollowingList []ProfileSummary `json:"following_profiles"`
}

// Summary returns the snapshot used when p appears in another profile's lists.
func (p UserProfile) Summary() ProfileSummary {
	return ProfileSummary{
		Mail:            p.Mail,
		Name:            p.Name,
		Surname:         p.Surname,
		Pseudo:          p.Pseudo,
		ProfileImageURL: p.ProfileImageURL,
	}
}

// IsFollowing reports whether p follows mail.
func (p UserProfile) IsFollowing(mail string) bool {
	for _, m := range p.Following {
		if m == mail {
			return true
		}
	}
	return false
}

// Credential holds the password hash for a profile.
type Credential struct {
	Mail         string `json:"mail"`
	PasswordHash string `json:"-"`
}
