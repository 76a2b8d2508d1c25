// Package shopware is a minimal client for the Shopware 6 admin API, covering
// the operations the store sync needs: language and product lookup, localized
// description updates, and media upload with name-based de-duplication.
package shopware

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	defaultTimeout = 30 * time.Second
	uploadTimeout  = 180 * time.Second
)

// languageHeader scopes a write to one translation.
const languageHeader = "sw-language-id"

// duplicateNameCode is Shopware's violation code for a media file name that
// already exists.
const duplicateNameCode = "CONTENT__MEDIA_DUPLICATED_FILE_NAME"

// errDuplicateFileName signals the one recoverable upload failure; the caller
// retries exactly once under a disambiguated name.
var errDuplicateFileName = errors.New("duplicated media file name")

// Client holds credentials and a bearer token fetched once on first use.
type Client struct {
	baseURL      string
	clientID     string
	clientSecret string

	client       *http.Client
	uploadClient *http.Client

	// accessToken is set by the first call to token and reused afterwards.
	accessToken string
}

// New creates a client for the admin API at baseURL.
func New(baseURL, clientID, clientSecret string) *Client {
	return &Client{
		baseURL:      strings.TrimRight(baseURL, "/"),
		clientID:     clientID,
		clientSecret: clientSecret,
		client:       &http.Client{Timeout: defaultTimeout},
		uploadClient: &http.Client{Timeout: uploadTimeout},
	}
}

// token returns the cached bearer token, fetching it via the client
// credentials grant on first use.
func (c *Client) token(ctx context.Context) (string, error) {
	if c.accessToken != "" {
		return c.accessToken, nil
	}

	payload := map[string]string{
		"grant_type":    "client_credentials",
		"client_id":     c.clientID,
		"client_secret": c.clientSecret,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal token request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/oauth/token", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("token request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("oauth token request failed (%d): %s", resp.StatusCode, readBody(resp))
	}

	var token struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&token); err != nil {
		return "", fmt.Errorf("decode token response: %w", err)
	}
	if token.AccessToken == "" {
		return "", errors.New("oauth response contained no access_token")
	}

	c.accessToken = token.AccessToken
	return c.accessToken, nil
}

type searchFilter struct {
	Type  string `json:"type"`
	Field string `json:"field"`
	Value string `json:"value"`
}

type searchRequest struct {
	Filter []searchFilter `json:"filter"`
	Limit  int            `json:"limit,omitempty"`
}

// SearchLanguageID returns the language id for a locale code such as de-DE,
// or empty when the shop has no such language.
func (c *Client) SearchLanguageID(ctx context.Context, localeCode string) (string, error) {
	return c.searchID(ctx, "language", searchRequest{
		Filter: []searchFilter{{Type: "equals", Field: "locale.code", Value: localeCode}},
	})
}

// FindProductID returns the product id for a business product number, or
// empty when no product matches.
func (c *Client) FindProductID(ctx context.Context, productNumber string) (string, error) {
	return c.searchID(ctx, "product", searchRequest{
		Filter: []searchFilter{{Type: "equals", Field: "productNumber", Value: productNumber}},
	})
}

// SearchMediaByName returns the media id matching the synthetic file name and
// extension, or empty when none exists.
func (c *Client) SearchMediaByName(ctx context.Context, fileName, extension string) (string, error) {
	return c.searchID(ctx, "media", searchRequest{
		Filter: []searchFilter{
			{Type: "equals", Field: "fileName", Value: fileName},
			{Type: "equals", Field: "fileExtension", Value: strings.ToLower(extension)},
		},
		Limit: 1,
	})
}

// searchID posts a search request for one entity and returns the first
// matching id, or empty when nothing matched.
func (c *Client) searchID(ctx context.Context, entity string, search searchRequest) (string, error) {
	resp, err := c.doJSON(ctx, http.MethodPost, c.baseURL+"/api/search/"+entity, search, "")
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%s search failed (%d): %s", entity, resp.StatusCode, readBody(resp))
	}

	var result struct {
		Data []struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("decode %s search response: %w", entity, err)
	}
	if len(result.Data) == 0 {
		return "", nil
	}
	return result.Data[0].ID, nil
}

// PatchProductDescription replaces a product's description. A non-empty
// languageID scopes the write to that translation; empty hits the shop's
// default language.
func (c *Client) PatchProductDescription(ctx context.Context, productID, description, languageID string) error {
	payload := map[string]string{"description": description}

	resp, err := c.doJSON(ctx, http.MethodPatch, c.baseURL+"/api/product/"+productID, payload, languageID)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		return fmt.Errorf("product update failed (%d): %s", resp.StatusCode, readBody(resp))
	}
	return nil
}

// ProductMedia links a media record to a product at an ordered position.
type ProductMedia struct {
	MediaID  string `json:"mediaId"`
	Position int    `json:"position"`
}

// SetProductMedia replaces a product's media list and, when coverID is set,
// its cover image.
func (c *Client) SetProductMedia(ctx context.Context, productID string, media []ProductMedia, coverID string) error {
	payload := map[string]any{"media": media}
	if coverID != "" {
		payload["coverId"] = coverID
	}

	resp, err := c.doJSON(ctx, http.MethodPatch, c.baseURL+"/api/product/"+productID, payload, "")
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		return fmt.Errorf("product media update failed (%d): %s", resp.StatusCode, readBody(resp))
	}
	return nil
}

// UploadMedia uploads an image under its synthetic name (repo name plus file
// stem). An existing record with the same name has its binary replaced and
// keeps its id; otherwise a fresh record is created. A duplicate-name
// conflict on the fresh upload is retried exactly once under a name
// disambiguated with the record id's first 8 characters.
func (c *Client) UploadMedia(ctx context.Context, filePath, repoName string) (string, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return "", fmt.Errorf("read image: %w", err)
	}
	if len(data) == 0 {
		return "", fmt.Errorf("image file is empty: %s", filePath)
	}

	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filePath), "."))
	if ext == "" {
		ext = "png"
	}
	stem := strings.TrimSuffix(filepath.Base(filePath), filepath.Ext(filePath))
	fileName := repoName + "__" + stem

	mimeType := mime.TypeByExtension("." + ext)
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}

	existingID, err := c.SearchMediaByName(ctx, fileName, ext)
	if err != nil {
		return "", err
	}
	if existingID != "" {
		if err := c.uploadBinary(ctx, existingID, fileName, ext, mimeType, data); err != nil {
			return "", fmt.Errorf("replace media %s: %w", fileName, err)
		}
		return existingID, nil
	}

	mediaID := newMediaID()
	if err := c.createMedia(ctx, mediaID); err != nil {
		return "", err
	}

	err = c.uploadBinary(ctx, mediaID, fileName, ext, mimeType, data)
	if errors.Is(err, errDuplicateFileName) {
		altName := fileName + "-" + mediaID[:8]
		err = c.uploadBinary(ctx, mediaID, altName, ext, mimeType, data)
	}
	if err != nil {
		return "", fmt.Errorf("upload media %s: %w", fileName, err)
	}

	return mediaID, nil
}

// createMedia registers an empty media record under the given id.
func (c *Client) createMedia(ctx context.Context, mediaID string) error {
	resp, err := c.doJSON(ctx, http.MethodPost, c.baseURL+"/api/media?_response=true", map[string]string{"id": mediaID}, "")
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("media creation failed (%d): %s", resp.StatusCode, readBody(resp))
	}
	return nil
}

// uploadBinary streams the raw file content into a media record. Returns
// errDuplicateFileName when the server rejects the name as taken.
func (c *Client) uploadBinary(ctx context.Context, mediaID, fileName, ext, mimeType string, data []byte) error {
	token, err := c.token(ctx)
	if err != nil {
		return err
	}

	endpoint := fmt.Sprintf("%s/api/_action/media/%s/upload?extension=%s&fileName=%s",
		c.baseURL, mediaID, url.QueryEscape(ext), url.QueryEscape(fileName))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("create upload request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", mimeType)
	req.ContentLength = int64(len(data))

	resp, err := c.uploadClient.Do(req)
	if err != nil {
		return fmt.Errorf("upload request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusNoContent {
		return nil
	}

	body := readBody(resp)
	if (resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusConflict) &&
		strings.Contains(body, duplicateNameCode) {
		return fmt.Errorf("%s: %w", fileName, errDuplicateFileName)
	}
	return fmt.Errorf("media upload failed (%d): %s", resp.StatusCode, body)
}

// doJSON sends a JSON request with the bearer token and optional language
// scope header, returning the raw response for the caller to decode.
func (c *Client) doJSON(ctx context.Context, method, endpoint string, payload any, languageID string) (*http.Response, error) {
	token, err := c.token(ctx)
	if err != nil {
		return nil, err
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")
	if languageID != "" {
		req.Header.Set(languageHeader, languageID)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	return resp, nil
}

// newMediaID generates a 32-hex media id without dashes, the format the admin
// API expects.
func newMediaID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// readBody drains a response body for error messages.
func readBody(resp *http.Response) string {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(body))
}
