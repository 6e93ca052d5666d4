package cloudinary

import (
	"bytes"
	"context"
	"crypto/sha1"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/bytedance/sonic"

	"evaladmin/internal/textnorm"
)

const defaultBaseURL = "https://api.cloudinary.com/v1_1"

// Client uploads and removes professor images through the Cloudinary REST API.
type Client struct {
	CloudName string
	APIKey    string
	APISecret string
	Folder    string
	BaseURL   string
	HTTP      *http.Client

	now func() time.Time
}

// New creates a Cloudinary client.
func New(cloudName, apiKey, apiSecret, folder string) *Client {
	return &Client{
		CloudName: cloudName,
		APIKey:    apiKey,
		APISecret: apiSecret,
		Folder:    folder,
		BaseURL:   defaultBaseURL,
		HTTP:      &http.Client{Timeout: 30 * time.Second},
		now:       time.Now,
	}
}

// Configured reports whether credentials are present.
func (c *Client) Configured() bool {
	return c != nil && c.CloudName != "" && c.APIKey != "" && c.APISecret != ""
}

// UploadResult holds the response from Cloudinary after a successful upload.
type UploadResult struct {
	PublicID  string `json:"public_id"`
	SecureURL string `json:"secure_url"`
	URL       string `json:"url"`
	Format    string `json:"format"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
	Bytes     int    `json:"bytes"`
}

type destroyResult struct {
	Result string `json:"result"`
}

var nonSlug = regexp.MustCompile(`[^a-z0-9]+`)

// PublicID derives the asset id used for an owner's image. The same owner
// name always maps to the same id, so a new upload replaces the old one.
func PublicID(ownerName string) string {
	slug := strings.Trim(nonSlug.ReplaceAllString(textnorm.Normalize(ownerName), "_"), "_")
	if slug == "" {
		slug = "unnamed"
	}
	return slug
}

// Upload stores data as the owner's image and returns its public URL. Any
// existing image for the owner is deleted first.
func (c *Client) Upload(ctx context.Context, data []byte, ownerName, filename string) (string, error) {
	if len(data) == 0 {
		return "", errors.New("cloudinary: empty file")
	}
	if err := c.DeleteByOwnerName(ctx, ownerName); err != nil {
		return "", err
	}
	res, err := c.UploadBytes(ctx, data, filename, PublicID(ownerName))
	if err != nil {
		return "", err
	}
	if res.SecureURL != "" {
		return res.SecureURL, nil
	}
	return res.URL, nil
}

// DeleteByOwnerName removes the owner's image. A missing image is not an error.
func (c *Client) DeleteByOwnerName(ctx context.Context, ownerName string) error {
	return c.Destroy(ctx, c.qualified(PublicID(ownerName)))
}

// UploadBytes uploads raw image bytes under publicID.
func (c *Client) UploadBytes(ctx context.Context, data []byte, filename, publicID string) (*UploadResult, error) {
	params := c.params()
	if c.Folder != "" {
		params["folder"] = c.Folder
	}
	if publicID != "" {
		params["public_id"] = publicID
		params["overwrite"] = "true"
		params["invalidate"] = "true"
	}
	params["signature"] = c.sign(params)

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range params {
		_ = w.WriteField(k, v)
	}
	part, err := w.CreateFormFile("file", filename)
	if err != nil {
		return nil, fmt.Errorf("cloudinary: create form file failed: %w", err)
	}
	if _, err := io.Copy(part, bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("cloudinary: write file failed: %w", err)
	}
	w.Close()

	body, err := c.post(ctx, "image/upload", w.FormDataContentType(), &buf)
	if err != nil {
		return nil, fmt.Errorf("cloudinary: upload failed: %w", err)
	}
	var result UploadResult
	if err := sonic.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("cloudinary: decode response failed: %w", err)
	}
	return &result, nil
}

// Destroy deletes an asset by its full public id.
func (c *Client) Destroy(ctx context.Context, publicID string) error {
	params := c.params()
	params["public_id"] = publicID
	params["invalidate"] = "true"
	params["signature"] = c.sign(params)

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range params {
		_ = w.WriteField(k, v)
	}
	w.Close()

	body, err := c.post(ctx, "image/destroy", w.FormDataContentType(), &buf)
	if err != nil {
		return fmt.Errorf("cloudinary: destroy failed: %w", err)
	}
	var res destroyResult
	if err := sonic.Unmarshal(body, &res); err != nil {
		return fmt.Errorf("cloudinary: decode response failed: %w", err)
	}
	switch res.Result {
	case "ok", "not found":
		return nil
	default:
		return fmt.Errorf("cloudinary: destroy %s: %s", publicID, res.Result)
	}
}

func (c *Client) qualified(publicID string) string {
	if c.Folder == "" {
		return publicID
	}
	return c.Folder + "/" + publicID
}

func (c *Client) params() map[string]string {
	now := time.Now
	if c.now != nil {
		now = c.now
	}
	return map[string]string{
		"timestamp": strconv.FormatInt(now().Unix(), 10),
		"api_key":   c.APIKey,
	}
}

func (c *Client) post(ctx context.Context, path, contentType string, body io.Reader) ([]byte, error) {
	base := c.BaseURL
	if base == "" {
		base = defaultBaseURL
	}
	url := fmt.Sprintf("%s/%s/%s", strings.TrimRight(base, "/"), c.CloudName, path)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	out, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("status %d: %s", resp.StatusCode, string(out))
	}
	return out, nil
}

// sign computes the Cloudinary API signature from the given params.
// api_key and file are excluded from the signature.
func (c *Client) sign(params map[string]string) string {
	excludeKeys := map[string]bool{"api_key": true, "file": true, "resource_type": true}

	pairs := make([]string, 0, len(params))
	for k, v := range params {
		if !excludeKeys[k] && v != "" {
			pairs = append(pairs, k+"="+v)
		}
	}
	sort.Strings(pairs)

	payload := strings.Join(pairs, "&") + c.APISecret
	h := sha1.New()
	h.Write([]byte(payload))
	return fmt.Sprintf("%x", h.Sum(nil))
}
