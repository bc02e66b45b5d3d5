package translate

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// DefaultDeepLEndpoint is the free-tier API base. The paid tier lives on
// api.deepl.com and is selected via config.
const DefaultDeepLEndpoint = "https://api-free.deepl.com"

// DeepLClient talks to the DeepL v2 REST API.
type DeepLClient struct {
	endpoint string
	authKey  string
	httpc    *http.Client
}

func NewDeepLClient(endpoint, authKey string) *DeepLClient {
	if endpoint == "" {
		endpoint = DefaultDeepLEndpoint
	}
	return &DeepLClient{
		endpoint: strings.TrimRight(endpoint, "/"),
		authKey:  authKey,
		httpc:    &http.Client{},
	}
}

type deeplResponse struct {
	Translations []struct {
		DetectedSourceLanguage string `json:"detected_source_language"`
		Text                   string `json:"text"`
	} `json:"translations"`
}

// Detect returns the detected source language of text. DeepL has no
// standalone detection endpoint; the detected language rides along on a
// translate call, so we translate into the default target and read it off.
func (c *DeepLClient) Detect(ctx context.Context, text string) (string, error) {
	resp, err := c.translate(ctx, text, "EN")
	if err != nil {
		return "", err
	}
	if resp.Translations[0].DetectedSourceLanguage == "" {
		return "", fmt.Errorf("deepl: empty detected language")
	}
	return resp.Translations[0].DetectedSourceLanguage, nil
}

// Translate converts text into targetLang.
func (c *DeepLClient) Translate(ctx context.Context, text, targetLang string) (string, error) {
	resp, err := c.translate(ctx, text, targetLang)
	if err != nil {
		return "", err
	}
	return resp.Translations[0].Text, nil
}

func (c *DeepLClient) translate(ctx context.Context, text, targetLang string) (*deeplResponse, error) {
	form := url.Values{}
	form.Set("text", text)
	form.Set("target_lang", strings.ToUpper(targetLang))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.endpoint+"/v2/translate", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "DeepL-Auth-Key "+c.authKey)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	httpResp, err := c.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("deepl: %w", err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(httpResp.Body, 512))
		return nil, fmt.Errorf("deepl: status %d: %s", httpResp.StatusCode, strings.TrimSpace(string(body)))
	}

	var resp deeplResponse
	if err := json.NewDecoder(httpResp.Body).Decode(&resp); err != nil {
		return nil, fmt.Errorf("deepl: decode response: %w", err)
	}
	if len(resp.Translations) == 0 {
		return nil, fmt.Errorf("deepl: empty translations array")
	}
	return &resp, nil
}
