package qbclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/aiengrshafiq/QuickBooksImporter/config"
	"github.com/aiengrshafiq/QuickBooksImporter/utils"
	"github.com/sirupsen/logrus"
)

const (
	sandboxBaseURL    = "https://sandbox-quickbooks.api.intuit.com"
	productionBaseURL = "https://quickbooks.api.intuit.com"
	tokenEndpoint     = "https://oauth.platform.intuit.com/oauth2/v1/tokens/bearer"

	invoicePageSize = 100 // QuickBooks API limit per query call
)

// Client is an authenticated QuickBooks Online API client. It refreshes the
// access token on 401 responses and persists the new token pair back to .env.
type Client struct {
	baseURL      string
	tokenURL     string
	realmId      string
	minorVersion string
	clientId     string
	clientSecret string
	accessToken  string
	refreshToken string
	envPath      string
	http         *http.Client
	logger       *logrus.Logger
}

// NewClient builds a client from the QB_* settings and verifies the
// connection by fetching CompanyInfo, mirroring the importer's up-front
// connection check. A failure here is fatal to the whole run.
func NewClient(ctx context.Context) (*Client, error) {
	settings := config.GetQuickBooksSettings()
	if settings.AccessToken == "" || settings.RefreshToken == "" || settings.RealmId == "" {
		return nil, errors.New("quickbooks tokens or realm id missing; run ./cmd/qb-oauth first")
	}

	baseURL := strings.TrimSpace(os.Getenv("QB_API_BASE_URL"))
	if baseURL == "" {
		baseURL = sandboxBaseURL
		if strings.EqualFold(settings.Environment, "production") {
			baseURL = productionBaseURL
		}
	}
	tokenURL := strings.TrimSpace(os.Getenv("QB_TOKEN_ENDPOINT"))
	if tokenURL == "" {
		tokenURL = tokenEndpoint
	}
	envPath := strings.TrimSpace(os.Getenv("QB_ENV_FILE"))
	if envPath == "" {
		envPath = ".env"
	}

	c := &Client{
		baseURL:      strings.TrimRight(baseURL, "/"),
		tokenURL:     tokenURL,
		realmId:      settings.RealmId,
		minorVersion: settings.MinorVersion,
		clientId:     settings.ClientId,
		clientSecret: settings.ClientSecret,
		accessToken:  settings.AccessToken,
		refreshToken: settings.RefreshToken,
		envPath:      envPath,
		http:         &http.Client{Timeout: 30 * time.Second},
		logger:       config.GetLogger(),
	}

	info, err := c.getCompanyInfo(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize QuickBooks client: %w", err)
	}
	if info != nil {
		c.logger.WithFields(logrus.Fields{
			"module":  "qbclient",
			"company": info.CompanyName,
			"realmId": c.realmId,
		}).Info("QuickBooks connection successful")
	}
	return c, nil
}

// QueryInvoices fetches invoices with a transaction date inside [start, end].
// A positive limit caps the whole run in a single call; otherwise results are
// paginated in pages of 100 until a page comes back empty.
func (c *Client) QueryInvoices(ctx context.Context, start, end time.Time, limit int) ([]Invoice, error) {
	base := fmt.Sprintf("SELECT * FROM Invoice WHERE TxnDate >= '%s' AND TxnDate <= '%s'",
		start.Format("2006-01-02"), end.Format("2006-01-02"))

	if limit > 0 {
		var resp queryResponse
		if err := c.query(ctx, fmt.Sprintf("%s MAXRESULTS %d", base, limit), &resp); err != nil {
			return nil, err
		}
		return resp.QueryResponse.Invoice, nil
	}

	var all []Invoice
	startPos := 1
	for {
		var resp queryResponse
		q := fmt.Sprintf("%s STARTPOSITION %d MAXRESULTS %d", base, startPos, invoicePageSize)
		if err := c.query(ctx, q, &resp); err != nil {
			return nil, err
		}
		batch := resp.QueryResponse.Invoice
		if len(batch) == 0 {
			break
		}
		all = append(all, batch...)
		startPos += invoicePageSize
		c.logger.WithFields(logrus.Fields{
			"module": "qbclient",
			"batch":  len(batch),
			"total":  len(all),
		}).Debug("fetched invoice page")
	}
	return all, nil
}

func (c *Client) GetPurchaseOrder(ctx context.Context, id string) (*PurchaseOrder, error) {
	var env purchaseOrderEnvelope
	if err := c.get(ctx, "purchaseorder/"+url.PathEscape(id), &env); err != nil {
		return nil, err
	}
	return &env.PurchaseOrder, nil
}

func (c *Client) GetVendor(ctx context.Context, id string) (*Vendor, error) {
	var env vendorEnvelope
	if err := c.get(ctx, "vendor/"+url.PathEscape(id), &env); err != nil {
		return nil, err
	}
	return &env.Vendor, nil
}

func (c *Client) GetItem(ctx context.Context, id string) (*Item, error) {
	var env itemEnvelope
	if err := c.get(ctx, "item/"+url.PathEscape(id), &env); err != nil {
		return nil, err
	}
	return &env.Item, nil
}

// QueryAttachments returns attachment metadata for the given owning object.
func (c *Client) QueryAttachments(ctx context.Context, entityType string, entityId string) ([]Attachable, error) {
	q := fmt.Sprintf("SELECT * FROM Attachable WHERE AttachableRef.EntityRef.value = '%s' AND AttachableRef.EntityRef.type = '%s'",
		entityId, entityType)
	var resp queryResponse
	if err := c.query(ctx, q, &resp); err != nil {
		return nil, err
	}
	return resp.QueryResponse.Attachable, nil
}

// DownloadAttachment fetches the attachment bytes through the authenticated
// session; FileAccessUri requires the same bearer token as the API.
func (c *Client) DownloadAttachment(ctx context.Context, att Attachable) ([]byte, error) {
	if att.FileAccessUri == "" {
		return nil, fmt.Errorf("attachment %s has no FileAccessUri", att.FileName)
	}

	downloadURL := att.FileAccessUri
	if strings.HasPrefix(downloadURL, "/") {
		downloadURL = c.baseURL + downloadURL
	}
	body, err := c.doAuthenticated(ctx, downloadURL, "")
	if err != nil {
		return nil, fmt.Errorf("failed to download attachment %s: %w", att.FileName, err)
	}
	return body, nil
}

func (c *Client) getCompanyInfo(ctx context.Context) (*CompanyInfo, error) {
	var resp queryResponse
	if err := c.query(ctx, "SELECT * FROM CompanyInfo", &resp); err != nil {
		return nil, err
	}
	if len(resp.QueryResponse.CompanyInfo) == 0 {
		return nil, nil
	}
	return &resp.QueryResponse.CompanyInfo[0], nil
}

func (c *Client) query(ctx context.Context, q string, out any) error {
	params := url.Values{}
	params.Set("query", q)
	endpoint := fmt.Sprintf("%s/v3/company/%s/query?%s", c.baseURL, url.PathEscape(c.realmId), c.withMinorVersion(params))
	body, err := c.doAuthenticated(ctx, endpoint, "application/text")
	if err != nil {
		return err
	}
	return json.Unmarshal(body, out)
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	endpoint := fmt.Sprintf("%s/v3/company/%s/%s?%s", c.baseURL, url.PathEscape(c.realmId), path, c.withMinorVersion(url.Values{}))
	body, err := c.doAuthenticated(ctx, endpoint, "")
	if err != nil {
		return err
	}
	return json.Unmarshal(body, out)
}

func (c *Client) withMinorVersion(params url.Values) string {
	params.Set("minorversion", c.minorVersion)
	return params.Encode()
}

// doAuthenticated performs a GET with the bearer token, refreshing the token
// pair and retrying once on 401.
func (c *Client) doAuthenticated(ctx context.Context, endpoint string, contentType string) ([]byte, error) {
	body, status, err := c.doOnce(ctx, endpoint, contentType)
	if err != nil {
		return nil, err
	}
	if status == http.StatusUnauthorized {
		if err := c.refreshTokens(ctx); err != nil {
			return nil, err
		}
		body, status, err = c.doOnce(ctx, endpoint, contentType)
		if err != nil {
			return nil, err
		}
	}
	if status < 200 || status >= 300 {
		return nil, fmt.Errorf("quickbooks api error %d: %s", status, strings.TrimSpace(string(body)))
	}
	return body, nil
}

func (c *Client) doOnce(ctx context.Context, endpoint string, contentType string) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("Authorization", "Bearer "+c.accessToken)
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	return body, resp.StatusCode, nil
}

// refreshTokens exchanges the refresh token for a new token pair and persists
// it to the dotenv file so later runs keep working after the old access token
// expires.
func (c *Client) refreshTokens(ctx context.Context) error {
	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("refresh_token", c.refreshToken)

	tokens, err := requestTokens(ctx, c.http, c.tokenURL, c.clientId, c.clientSecret, form)
	if err != nil {
		return fmt.Errorf("token refresh failed: %w", err)
	}

	c.accessToken = tokens.AccessToken
	c.refreshToken = tokens.RefreshToken
	c.logger.WithFields(logrus.Fields{"module": "qbclient"}).Info("QuickBooks token was refreshed")

	if err := c.persistTokens(); err != nil {
		// Not fatal: the run continues with the in-memory tokens.
		c.logger.WithFields(logrus.Fields{"module": "qbclient", "envPath": c.envPath}).
			Warn("could not persist refreshed tokens: " + err.Error())
	}
	return nil
}

func (c *Client) persistTokens() error {
	if _, err := os.Stat(c.envPath); err != nil {
		return err
	}
	return utils.UpdateEnvValues(c.envPath, map[string]string{
		"QB_ACCESS_TOKEN":  c.accessToken,
		"QB_REFRESH_TOKEN": c.refreshToken,
	})
}
