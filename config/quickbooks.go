package config

import (
	"os"
	"strings"
)

// QuickBooksSettings carries the OAuth credentials and realm for the
// QuickBooks Online company this importer reads from. Tokens live in .env and
// are rewritten there when the client refreshes them.
type QuickBooksSettings struct {
	ClientId     string
	ClientSecret string
	Environment  string // "sandbox" or "production"
	RedirectURI  string
	AccessToken  string
	RefreshToken string
	RealmId      string
	MinorVersion string
}

func GetQuickBooksSettings() QuickBooksSettings {
	environment := strings.TrimSpace(os.Getenv("QB_ENVIRONMENT"))
	if environment == "" {
		environment = "sandbox"
	}
	minorVersion := strings.TrimSpace(os.Getenv("QB_MINOR_VERSION"))
	if minorVersion == "" {
		minorVersion = "65"
	}
	return QuickBooksSettings{
		ClientId:     strings.TrimSpace(os.Getenv("QB_CLIENT_ID")),
		ClientSecret: strings.TrimSpace(os.Getenv("QB_CLIENT_SECRET")),
		Environment:  environment,
		RedirectURI:  strings.TrimSpace(os.Getenv("QB_REDIRECT_URI")),
		AccessToken:  strings.TrimSpace(os.Getenv("QB_ACCESS_TOKEN")),
		RefreshToken: strings.TrimSpace(os.Getenv("QB_REFRESH_TOKEN")),
		RealmId:      strings.TrimSpace(os.Getenv("QB_REALM_ID")),
		MinorVersion: minorVersion,
	}
}

// AllQuickBooksKeysPresent reports whether the import run can be attempted at
// all. Checked before any collaborator is contacted.
func AllQuickBooksKeysPresent() bool {
	s := GetQuickBooksSettings()
	return s.ClientId != "" && s.ClientSecret != "" && s.AccessToken != "" && s.RefreshToken != "" && s.RealmId != ""
}

// AuthKeysPresent reports whether the one-time OAuth grant (cmd/qb-oauth) can
// run.
func AuthKeysPresent() bool {
	s := GetQuickBooksSettings()
	return s.ClientId != "" && s.ClientSecret != "" && s.RedirectURI != ""
}
