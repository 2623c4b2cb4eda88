// qb-oauth performs the one-time QuickBooks OAuth2 grant. It prints the
// authorization URL, waits for Intuit to redirect back to the local callback,
// exchanges the code for tokens, and writes QB_ACCESS_TOKEN, QB_REFRESH_TOKEN
// and QB_REALM_ID back into .env.
//
// Usage:
//
//	QB_CLIENT_ID=... QB_CLIENT_SECRET=... QB_REDIRECT_URI=http://localhost:8000/callback go run ./cmd/qb-oauth
//
// The redirect URI must match one registered on the Intuit developer app.
package main

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aiengrshafiq/QuickBooksImporter/config"
	"github.com/aiengrshafiq/QuickBooksImporter/qbclient"
	"github.com/aiengrshafiq/QuickBooksImporter/utils"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const defaultPort = "8000"

func main() {
	if !config.AuthKeysPresent() {
		fmt.Fprintln(os.Stderr, "missing OAuth settings. Set QB_CLIENT_ID, QB_CLIENT_SECRET and QB_REDIRECT_URI.")
		os.Exit(1)
	}

	logger := config.GetLogger()
	settings := config.GetQuickBooksSettings()

	envPath := os.Getenv("QB_ENV_FILE")
	if envPath == "" {
		envPath = ".env"
	}

	port := defaultPort
	if u, err := url.Parse(settings.RedirectURI); err == nil && u.Port() != "" {
		port = u.Port()
	}

	state := uuid.NewString()
	fmt.Println("Open this URL in your browser and authorize the app:")
	fmt.Println()
	fmt.Println("  " + qbclient.BuildAuthorizeURL(settings.ClientId, settings.RedirectURI, state))
	fmt.Println()

	sigCtx, stopSignals := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stopSignals()

	done := make(chan struct{})

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.GET("/callback", func(c *gin.Context) {
		if c.Query("state") != state {
			c.String(http.StatusBadRequest, "state mismatch; restart qb-oauth and try again")
			return
		}
		code := c.Query("code")
		realmId := c.Query("realmId")
		if code == "" || realmId == "" {
			c.String(http.StatusBadRequest, "missing code or realmId in callback")
			return
		}

		tokens, err := qbclient.ExchangeAuthCode(c.Request.Context(), settings.ClientId, settings.ClientSecret, code, settings.RedirectURI)
		if err != nil {
			logger.WithFields(logrus.Fields{"module": "qb-oauth"}).
				Error("token exchange failed: " + err.Error())
			c.String(http.StatusBadGateway, "token exchange failed: %s", err.Error())
			return
		}

		if err := utils.UpdateEnvValues(envPath, map[string]string{
			"QB_ACCESS_TOKEN":  tokens.AccessToken,
			"QB_REFRESH_TOKEN": tokens.RefreshToken,
			"QB_REALM_ID":      realmId,
		}); err != nil {
			logger.WithFields(logrus.Fields{"module": "qb-oauth"}).
				Error("failed to write tokens to " + envPath + ": " + err.Error())
			c.String(http.StatusInternalServerError, "tokens obtained but could not be saved: %s", err.Error())
			return
		}

		logger.WithFields(logrus.Fields{"module": "qb-oauth", "realmId": realmId}).
			Info("tokens saved to " + envPath)
		c.Header("Content-Type", "text/html; charset=utf-8")
		c.String(http.StatusOK, "<h3>Authorization complete.</h3><p>Tokens saved. You can close this tab and run qb-import.</p>")
		close(done)
	})

	srv := &http.Server{
		Addr:    ":" + port,
		Handler: r,
	}
	serverErrCh := make(chan error, 1)
	go func() {
		serverErrCh <- srv.ListenAndServe()
	}()
	fmt.Printf("Waiting for the OAuth callback on :%s ...\n", port)

	select {
	case <-done:
		// Give the browser a moment to receive the success page.
		time.Sleep(500 * time.Millisecond)
	case <-sigCtx.Done():
		fmt.Fprintln(os.Stderr, "interrupted before the OAuth callback arrived")
	case err := <-serverErrCh:
		if err != nil && err != http.ErrServerClosed {
			logger.WithFields(logrus.Fields{"module": "qb-oauth"}).
				Fatal("callback server failed: " + err.Error())
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}
