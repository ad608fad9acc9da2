package federation

// Google endpoint constants.
const (
	googleAuthURL     = "https://accounts.google.com/o/oauth2/v2/auth"
	googleTokenURL    = "https://oauth2.googleapis.com/token"
	googleUserInfoURL = "https://www.googleapis.com/oauth2/v3/userinfo"
)

// GoogleConfig fills a Config with Google's OAuth endpoints and the userinfo
// scopes. Caller supplies credentials and the redirect URI.
func GoogleConfig(clientID, clientSecret, redirectURI string) Config {
	return Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURI:  redirectURI,
		AuthURL:      googleAuthURL,
		TokenURL:     googleTokenURL,
		UserInfoURL:  googleUserInfoURL,
		Scopes:       []string{"openid", "email", "profile"},
	}
}
