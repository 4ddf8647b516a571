package auth

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	oauth2api "google.golang.org/api/oauth2/v2"
	"google.golang.org/api/option"

	"recipebox/internal/user"
)

// ErrNoEmail is returned when the provider does not share a verified email.
var ErrNoEmail = errors.New("identity provider returned no email")

// IdentityProvider signs users in through an external OAuth provider.
type IdentityProvider interface {
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) (user.Identity, error)
}

// GoogleProvider implements IdentityProvider with Google sign-in.
type GoogleProvider struct {
	oauth *oauth2.Config
}

// NewGoogleProvider creates a GoogleProvider for the given OAuth client.
func NewGoogleProvider(clientID, clientSecret, redirectURL string) *GoogleProvider {
	return &GoogleProvider{
		oauth: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Endpoint:     google.Endpoint,
			Scopes: []string{
				oauth2api.UserinfoEmailScope,
				oauth2api.UserinfoProfileScope,
			},
		},
	}
}

// AuthCodeURL returns the consent page URL carrying state.
func (g *GoogleProvider) AuthCodeURL(state string) string {
	return g.oauth.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

// Exchange trades an authorization code for the signed-in user's profile.
func (g *GoogleProvider) Exchange(ctx context.Context, code string) (user.Identity, error) {
	token, err := g.oauth.Exchange(ctx, code)
	if err != nil {
		return user.Identity{}, fmt.Errorf("failed to exchange oauth code: %w", err)
	}

	svc, err := oauth2api.NewService(ctx, option.WithTokenSource(g.oauth.TokenSource(ctx, token)))
	if err != nil {
		return user.Identity{}, fmt.Errorf("failed to create userinfo client: %w", err)
	}

	info, err := svc.Userinfo.Get().Context(ctx).Do()
	if err != nil {
		return user.Identity{}, fmt.Errorf("failed to fetch userinfo: %w", err)
	}
	if info.Email == "" || (info.VerifiedEmail != nil && !*info.VerifiedEmail) {
		return user.Identity{}, ErrNoEmail
	}

	return user.Identity{
		Email: info.Email,
		Name:  info.Name,
		Image: info.Picture,
	}, nil
}
