package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"
)

// Profile is the provider's asserted view of the authenticated user: the
// stable external identifier plus display attributes. It is all the rest of
// the system ever learns from a handshake.
type Profile struct {
	ID        int64  `json:"id"`         // provider's numeric user ID, stable
	Login     string `json:"login"`      // username at the provider
	Email     string `json:"email"`      // primary email; empty if hidden
	AvatarURL string `json:"avatar_url"` // profile picture URL
}

// Provider drives the redirect-based OAuth exchange with an external
// identity provider. The rest of the system treats the provider as an
// opaque protocol peer behind this interface.
type Provider interface {
	// AuthURL returns the provider URL to redirect the user's browser to.
	// state is an unguessable nonce echoed back on the callback.
	AuthURL(state string) string
	// Exchange trades the callback's authorization code for the
	// authenticated user's profile.
	Exchange(ctx context.Context, code string) (*Profile, error)
}

// GitHubProvider implements Provider for GitHub's authorization-code flow
// via golang.org/x/oauth2. The code-for-token exchange runs server to
// server with the client secret; the access token never reaches a browser.
type GitHubProvider struct {
	config  *oauth2.Config
	userAPI string
}

var _ Provider = (*GitHubProvider)(nil)

// NewGitHubProvider creates a GitHubProvider with the given OAuth app
// credentials. callbackURL must match the app's registered callback exactly.
// Requested scopes cover the public profile and email addresses.
func NewGitHubProvider(clientID, clientSecret, callbackURL string) *GitHubProvider {
	return &GitHubProvider{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  callbackURL,
			Scopes:       []string{"read:user", "user:email"},
			Endpoint:     github.Endpoint,
		},
		userAPI: "https://api.github.com/user",
	}
}

// AuthURL returns GitHub's authorization URL carrying our callback address,
// requested scopes and the CSRF state nonce.
func (p *GitHubProvider) AuthURL(state string) string {
	return p.config.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

// Exchange completes the handshake: code → access token → /user profile.
func (p *GitHubProvider) Exchange(ctx context.Context, code string) (*Profile, error) {
	oauthToken, err := p.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("auth: exchanging OAuth code: %w", err)
	}

	// Config.Client returns an *http.Client that attaches the bearer token
	// to every request.
	client := p.config.Client(ctx, oauthToken)

	resp, err := client.Get(p.userAPI)
	if err != nil {
		return nil, fmt.Errorf("auth: calling GitHub /user API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("auth: GitHub /user API returned status %d", resp.StatusCode)
	}

	var profile Profile
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return nil, fmt.Errorf("auth: decoding GitHub /user response: %w", err)
	}

	if profile.ID == 0 {
		return nil, fmt.Errorf("auth: GitHub returned an invalid user (ID = 0)")
	}

	return &profile, nil
}
