package onedrive

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"puretrack/errs"
	"puretrack/logger"
	settingModel "puretrack/models/setting"
	settingsService "puretrack/services/settings"
	"puretrack/types"

	"gorm.io/gorm"
)

const graphAPIURL = "https://graph.microsoft.com/v1.0"

// SubscriptionTTL is how far out Graph change subscriptions are set to
// expire. Graph caps drive-item subscriptions around three days; two keeps a
// comfortable renewal margin.
const SubscriptionTTL = 48 * time.Hour

const oauthScope = "User.Read Files.ReadWrite.All offline_access"

// clientState lets the notification receiver check a callback really belongs
// to the subscription we registered.
const clientState = "puretrack_state_check"

// Client talks to Microsoft Graph for the configured OneDrive account.
type Client struct {
	db     *gorm.DB
	http   *http.Client
	apiLog *logger.AsyncLogger
	token  string
}

// SubscriptionInfo is the locally stored state of the change subscription.
type SubscriptionInfo struct {
	ID         string    `json:"id"`
	Expiration time.Time `json:"expiration"`
}

// New builds a client, refreshing the access token from the stored refresh
// token when needed. Returns ErrExternalService when the account is not
// authenticated.
func New(db *gorm.DB, apiLog *logger.AsyncLogger) (*Client, error) {
	c := &Client{
		db:     db,
		http:   &http.Client{Timeout: 30 * time.Second},
		apiLog: apiLog,
	}

	cfg, err := settingsService.LoadGraph(db)
	if err != nil {
		return nil, err
	}
	if cfg.AccessToken != "" {
		c.token = cfg.AccessToken
		return c, nil
	}
	if cfg.RefreshToken == "" {
		return nil, errs.Externalf("not authenticated with Microsoft")
	}
	if err := c.refreshToken(cfg); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Client) refreshToken(cfg *settingsService.GraphConfig) error {
	tokenURL := fmt.Sprintf("https://login.microsoftonline.com/%s/oauth2/v2.0/token", cfg.TenantID)
	form := url.Values{
		"client_id":     {cfg.ClientID},
		"client_secret": {cfg.ClientSecret},
		"scope":         {oauthScope},
		"refresh_token": {cfg.RefreshToken},
		"grant_type":    {"refresh_token"},
	}

	resp, err := c.http.PostForm(tokenURL, form)
	if err != nil {
		return errs.Externalf("Microsoft token refresh failed: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2000))
		return errs.Externalf("Microsoft token refresh rejected (%d): %s", resp.StatusCode, string(body))
	}

	var tokens struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&tokens); err != nil {
		return errs.Externalf("Microsoft token response unreadable: %v", err)
	}

	if err := settingsService.Set(c.db, settingModel.KeyMSAccessToken, tokens.AccessToken, true); err != nil {
		return err
	}
	if tokens.RefreshToken != "" {
		if err := settingsService.Set(c.db, settingModel.KeyMSRefreshToken, tokens.RefreshToken, true); err != nil {
			return err
		}
	}
	c.token = tokens.AccessToken
	return nil
}

// DownloadFile fetches the raw content of a drive item.
func (c *Client) DownloadFile(ctx context.Context, fileID string) ([]byte, error) {
	endpoint := fmt.Sprintf("%s/me/drive/items/%s/content", graphAPIURL, fileID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, errs.Wrap(err, "build download request")
	}
	req.Header.Set("Authorization", "Bearer "+c.token)

	start := time.Now()
	resp, err := c.http.Do(req)
	c.logCall("GET", endpoint, resp, err, "", start)
	if err != nil {
		return nil, errs.Externalf("OneDrive download failed: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, errs.Externalf("OneDrive download rejected (%d)", resp.StatusCode)
	}
	content, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errs.Externalf("OneDrive download truncated: %v", err)
	}
	return content, nil
}

// ListExcelFiles searches the drive for spreadsheets the operator can pick
// as the sync source.
func (c *Client) ListExcelFiles(ctx context.Context) ([]map[string]interface{}, error) {
	endpoint := fmt.Sprintf("%s/me/drive/root/search(q='.xlsx')", graphAPIURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, errs.Wrap(err, "build search request")
	}
	req.Header.Set("Authorization", "Bearer "+c.token)

	start := time.Now()
	resp, err := c.http.Do(req)
	c.logCall("GET", endpoint, resp, err, "", start)
	if err != nil {
		return nil, errs.Externalf("OneDrive search failed: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, errs.Externalf("OneDrive search rejected (%d)", resp.StatusCode)
	}

	var data struct {
		Value []struct {
			ID              string                 `json:"id"`
			Name            string                 `json:"name"`
			File            map[string]interface{} `json:"file"`
			LastModified    string                 `json:"lastModifiedDateTime"`
			ParentReference struct {
				Path string `json:"path"`
			} `json:"parentReference"`
		} `json:"value"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, errs.Externalf("OneDrive search response unreadable: %v", err)
	}

	files := make([]map[string]interface{}, 0, len(data.Value))
	for _, item := range data.Value {
		if item.File == nil {
			continue
		}
		if !strings.HasSuffix(item.Name, ".xlsx") && !strings.HasSuffix(item.Name, ".xls") {
			continue
		}
		files = append(files, map[string]interface{}{
			"id":           item.ID,
			"name":         item.Name,
			"path":         strings.Replace(item.ParentReference.Path, "/drive/root:", "", 1),
			"lastModified": item.LastModified,
		})
		if len(files) == 20 {
			break
		}
	}
	return files, nil
}

// CreateSubscription registers a Graph change notification for the file so
// sync runs on push instead of polling. The subscription id and expiry are
// stored for the renewal job.
func (c *Client) CreateSubscription(ctx context.Context, fileID string) (*SubscriptionInfo, error) {
	notificationURL := os.Getenv("PUBLIC_API_URL")
	if notificationURL == "" {
		return nil, errs.Validationf("PUBLIC_API_URL must be set to receive change notifications")
	}

	expiration := time.Now().UTC().Add(SubscriptionTTL)
	payload := map[string]interface{}{
		"changeType":         "updated",
		"notificationUrl":    strings.TrimRight(notificationURL, "/") + "/api/webhooks/onedrive",
		"resource":           fmt.Sprintf("/me/drive/items/%s", fileID),
		"expirationDateTime": expiration.Format(time.RFC3339),
		"clientState":        clientState,
	}

	data, err := c.postJSON(ctx, graphAPIURL+"/subscriptions", http.MethodPost, payload, http.StatusCreated)
	if err != nil {
		return nil, err
	}

	id, _ := data["id"].(string)
	if id == "" {
		return nil, errs.Externalf("Graph API subscription response missing id")
	}
	info := &SubscriptionInfo{ID: id, Expiration: expiration}
	if exp, ok := data["expirationDateTime"].(string); ok {
		if t, parseErr := time.Parse(time.RFC3339, exp); parseErr == nil {
			info.Expiration = t
		}
	}

	if err := settingsService.Set(c.db, settingModel.KeyOneDriveSubscriptionID, info.ID, false); err != nil {
		return nil, err
	}
	if err := settingsService.Set(c.db, settingModel.KeyOneDriveSubscriptionExpiry, info.Expiration.Format(time.RFC3339), false); err != nil {
		return nil, err
	}
	return info, nil
}

// RenewSubscription pushes the expiry of an existing subscription out by the
// TTL. Must run before the old expiry or Graph silently stops delivering.
func (c *Client) RenewSubscription(ctx context.Context, subscriptionID string) (*SubscriptionInfo, error) {
	expiration := time.Now().UTC().Add(SubscriptionTTL)
	payload := map[string]interface{}{
		"expirationDateTime": expiration.Format(time.RFC3339),
	}

	endpoint := fmt.Sprintf("%s/subscriptions/%s", graphAPIURL, subscriptionID)
	if _, err := c.postJSON(ctx, endpoint, http.MethodPatch, payload, http.StatusOK); err != nil {
		return nil, err
	}

	info := &SubscriptionInfo{ID: subscriptionID, Expiration: expiration}
	if err := settingsService.Set(c.db, settingModel.KeyOneDriveSubscriptionExpiry, info.Expiration.Format(time.RFC3339), false); err != nil {
		return nil, err
	}
	return info, nil
}

// ValidClientState checks a notification's clientState.
func ValidClientState(state string) bool {
	return state == clientState
}

// StoredSubscription reads the locally recorded subscription, nil when none.
func StoredSubscription(db *gorm.DB) (*SubscriptionInfo, error) {
	id, err := settingsService.Get(db, settingModel.KeyOneDriveSubscriptionID)
	if err != nil {
		return nil, err
	}
	if id == "" {
		return nil, nil
	}
	info := &SubscriptionInfo{ID: id}
	if expiry, err := settingsService.Get(db, settingModel.KeyOneDriveSubscriptionExpiry); err == nil && expiry != "" {
		if t, parseErr := time.Parse(time.RFC3339, expiry); parseErr == nil {
			info.Expiration = t
		}
	}
	return info, nil
}

func (c *Client) postJSON(ctx context.Context, endpoint, method string, payload map[string]interface{}, wantStatus int) (map[string]interface{}, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, errs.Wrap(err, "encode request")
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, errs.Wrap(err, "build request")
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	c.logCall(method, endpoint, resp, err, string(body), start)
	if err != nil {
		return nil, errs.Externalf("Graph API call failed: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 5000))
	if resp.StatusCode != wantStatus {
		return nil, errs.Externalf("Graph API rejected %s %s (%d): %s", method, endpoint, resp.StatusCode, string(respBody))
	}

	data := map[string]interface{}{}
	if len(respBody) > 0 {
		if err := json.Unmarshal(respBody, &data); err != nil {
			return nil, errs.Externalf("Graph API response unreadable: %v", err)
		}
	}
	return data, nil
}

func (c *Client) logCall(method, endpoint string, resp *http.Response, err error, payload string, start time.Time) {
	if c.apiLog == nil {
		return
	}
	entry := types.ApiCallEntry{
		Provider:       "MS_GRAPH",
		Endpoint:       endpoint,
		Method:         method,
		RequestPayload: payload,
		DurationMs:     time.Since(start).Milliseconds(),
		CreatedAt:      time.Now(),
	}
	if err != nil {
		entry.ErrorMessage = err.Error()
	} else if resp != nil {
		entry.StatusCode = resp.StatusCode
	}
	c.apiLog.Log(entry)
}
