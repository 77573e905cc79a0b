package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/shawty-app/shawty/internal/config"
	"github.com/shawty-app/shawty/internal/model"
	"github.com/shawty-app/shawty/internal/repository"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"
)

// UserStore is the subset of the repository the OAuth callbacks use
type UserStore interface {
	GetUserBySlackID(ctx context.Context, slackID string) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	CreateUser(ctx context.Context, user *model.User) error
	UpdateUserProfile(ctx context.Context, user *model.User) error
}

var hackclubEndpoint = oauth2.Endpoint{
	AuthURL:  "https://auth.hackclub.com/oauth/authorize",
	TokenURL: "https://auth.hackclub.com/oauth/token",
}

const (
	hackclubIdentityURL = "https://auth.hackclub.com/api/v1/me"
	githubUserURL       = "https://api.github.com/user"
	githubEmailsURL     = "https://api.github.com/user/emails"
)

// AuthService exchanges OAuth codes for identities, upserts users, and
// issues signed session tokens.
type AuthService struct {
	users         UserStore
	hackclub      *oauth2.Config
	github        *oauth2.Config
	sessionSecret []byte
	sessionTTL    time.Duration
}

func NewAuthService(users UserStore, cfg *config.Config) *AuthService {
	return &AuthService{
		users: users,
		hackclub: &oauth2.Config{
			ClientID:     cfg.OAuth.HackClubClientID,
			ClientSecret: cfg.OAuth.HackClubClientSecret,
			RedirectURL:  cfg.App.PublicURL + "/auth/callback",
			Scopes:       []string{"email"},
			Endpoint:     hackclubEndpoint,
		},
		github: &oauth2.Config{
			ClientID:     cfg.OAuth.GitHubClientID,
			ClientSecret: cfg.OAuth.GitHubClientSecret,
			RedirectURL:  cfg.App.PublicURL + "/auth/github/callback",
			Scopes:       []string{"read:user", "user:email"},
			Endpoint:     github.Endpoint,
		},
		sessionSecret: []byte(cfg.Auth.SessionSecret),
		sessionTTL:    cfg.Auth.SessionTTL,
	}
}

// HackClubLoginURL is where the login route sends the browser
func (s *AuthService) HackClubLoginURL(state string) string {
	return s.hackclub.AuthCodeURL(state)
}

// GitHubLoginURL is where the GitHub login route sends the browser
func (s *AuthService) GitHubLoginURL(state string) string {
	return s.github.AuthCodeURL(state)
}

type hackclubIdentity struct {
	Identity struct {
		ID           string `json:"id"`
		PrimaryEmail string `json:"primary_email"`
	} `json:"identity"`
}

// HandleHackClubCallback exchanges the code, fetches the identity and
// upserts the user keyed by their HackClub (Slack) id.
func (s *AuthService) HandleHackClubCallback(ctx context.Context, code string) (*model.User, error) {
	token, err := s.hackclub.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("hackclub code exchange failed: %w", err)
	}

	var identity hackclubIdentity
	if err := fetchJSON(ctx, s.hackclub.Client(ctx, token), hackclubIdentityURL, &identity); err != nil {
		return nil, fmt.Errorf("hackclub identity fetch failed: %w", err)
	}
	if identity.Identity.ID == "" {
		return nil, errors.New("hackclub identity missing id")
	}

	existing, err := s.users.GetUserBySlackID(ctx, identity.Identity.ID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, repository.ErrUserNotFound) {
		return nil, err
	}

	email := identity.Identity.PrimaryEmail
	name := "User"
	if at := strings.IndexByte(email, '@'); at > 0 {
		name = email[:at]
	}

	slackID := identity.Identity.ID
	user := &model.User{
		Email:   email,
		Name:    name,
		SlackID: &slackID,
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}

type githubUser struct {
	Login string `json:"login"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type githubEmail struct {
	Email   string `json:"email"`
	Primary bool   `json:"primary"`
}

// HandleGitHubCallback exchanges the code, resolves the primary email and
// upserts the user keyed by email. GitHub users carry no Slack id.
func (s *AuthService) HandleGitHubCallback(ctx context.Context, code string) (*model.User, error) {
	token, err := s.github.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("github code exchange failed: %w", err)
	}

	client := s.github.Client(ctx, token)

	var ghUser githubUser
	if err := fetchJSON(ctx, client, githubUserURL, &ghUser); err != nil {
		return nil, fmt.Errorf("github user fetch failed: %w", err)
	}

	email := ghUser.Email
	var emails []githubEmail
	if err := fetchJSON(ctx, client, githubEmailsURL, &emails); err == nil {
		for _, e := range emails {
			if e.Primary {
				email = e.Email
				break
			}
		}
	}
	if email == "" {
		return nil, errors.New("github identity missing email")
	}

	firstName, lastName := splitName(ghUser.Name)

	existing, err := s.users.GetUserByEmail(ctx, email)
	if err == nil {
		existing.Name = ghUser.Login
		existing.FirstName = firstName
		existing.LastName = lastName
		if err := s.users.UpdateUserProfile(ctx, existing); err != nil {
			return nil, err
		}
		return existing, nil
	}
	if !errors.Is(err, repository.ErrUserNotFound) {
		return nil, err
	}

	user := &model.User{
		Email:     email,
		Name:      ghUser.Login,
		FirstName: firstName,
		LastName:  lastName,
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}

// IssueSession signs a session token carrying the user id
func (s *AuthService) IssueSession(userID string) (string, error) {
	claims := &jwt.RegisteredClaims{
		Subject:   userID,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(s.sessionTTL)),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.sessionSecret)
}

// SessionTTL exposes the configured session lifetime for cookie expiry
func (s *AuthService) SessionTTL() time.Duration {
	return s.sessionTTL
}

func fetchJSON(ctx context.Context, client *http.Client, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d from %s", resp.StatusCode, url)
	}

	return json.NewDecoder(resp.Body).Decode(out)
}

func splitName(full string) (first, last *string) {
	full = strings.TrimSpace(full)
	if full == "" {
		return nil, nil
	}
	parts := strings.SplitN(full, " ", 2)
	first = &parts[0]
	if len(parts) == 2 && parts[1] != "" {
		last = &parts[1]
	}
	return first, last
}
