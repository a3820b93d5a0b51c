package clashapi

import (
	"context"
	"encoding/base64"
	"fmt"
	"slices"
	"strings"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/valyala/fasthttp"
)

const maxPortalKeys = 10

var errPortalKeyLimit = crerr.New("developer portal key limit reached")

// portalLogin signs in to the developer portal and returns an API key bound
// to the caller's current IP, reusing an existing key when one matches.
func (c *Client) portalLogin(ctx context.Context) (string, error) {
	body, err := sonic.Marshal(portalLoginRequest{Email: c.email, Password: c.password})
	if err != nil {
		return "", fmt.Errorf("encode login request: %w", err)
	}

	cookies, raw, err := c.portalPost(ctx, "/api/login", "", body)
	if err != nil {
		return "", err
	}
	var login portalLoginResponse
	if err := sonic.Unmarshal(raw, &login); err != nil {
		return "", fmt.Errorf("decode login response: %w", err)
	}
	ip, err := ipFromTemporaryToken(login.TemporaryAPIToken)
	if err != nil {
		return "", err
	}

	_, raw, err = c.portalPost(ctx, "/api/apikey/list", cookies, []byte("{}"))
	if err != nil {
		return "", err
	}
	var list portalKeyListResponse
	if err := sonic.Unmarshal(raw, &list); err != nil {
		return "", fmt.Errorf("decode key list: %w", err)
	}
	if key, ok := matchingKey(list.Keys, c.keyName, ip); ok {
		c.logger.DebugContext(ctx, "reusing developer portal key", "key_name", c.keyName)
		return key, nil
	}
	if len(list.Keys) >= maxPortalKeys {
		return "", fmt.Errorf("%w: %d keys exist and none match ip %s", errPortalKeyLimit, len(list.Keys), ip)
	}

	body, err = sonic.Marshal(portalKeyCreateRequest{
		Name:        c.keyName,
		Description: "created by clash-tables for " + ip,
		CidrRanges:  []string{ip},
		Scopes:      []string{"clash"},
	})
	if err != nil {
		return "", fmt.Errorf("encode key create request: %w", err)
	}
	_, raw, err = c.portalPost(ctx, "/api/apikey/create", cookies, body)
	if err != nil {
		return "", err
	}
	var created portalKeyCreateResponse
	if err := sonic.Unmarshal(raw, &created); err != nil {
		return "", fmt.Errorf("decode key create response: %w", err)
	}
	if created.Key.Key == "" {
		return "", fmt.Errorf("developer portal returned an empty key")
	}
	c.logger.InfoContext(ctx, "created developer portal key", "key_name", c.keyName)
	return created.Key.Key, nil
}

// portalPost returns the session cookies set by the response alongside its
// body. The portal is not retried: bad credentials never heal.
func (c *Client) portalPost(ctx context.Context, path, cookies string, body []byte) (string, []byte, error) {
	if err := ctx.Err(); err != nil {
		return "", nil, err
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(c.developerURL + path)
	req.Header.SetMethod(fasthttp.MethodPost)
	req.Header.SetContentType("application/json")
	req.Header.Set("Accept", "application/json")
	if cookies != "" {
		req.Header.Set("Cookie", cookies)
	}
	req.SetBody(body)

	if err := c.httpClient.DoTimeout(req, resp, c.timeout); err != nil {
		return "", nil, fmt.Errorf("developer portal %s: %w", path, err)
	}
	raw := append([]byte(nil), resp.Body()...)
	if status := resp.StatusCode(); status < 200 || status >= 300 {
		return "", nil, fmt.Errorf("developer portal %s status=%d: %w", path, status, ErrAccessDenied)
	}

	var jar []string
	for _, v := range resp.Header.PeekAll(fasthttp.HeaderSetCookie) {
		pair, _, _ := strings.Cut(string(v), ";")
		if pair = strings.TrimSpace(pair); pair != "" {
			jar = append(jar, pair)
		}
	}
	if len(jar) == 0 {
		jar = append(jar, cookies)
	}
	return strings.Join(jar, "; "), raw, nil
}

// ipFromTemporaryToken reads the caller IP from the CIDR limit claim of the
// portal's temporary JWT.
func ipFromTemporaryToken(token string) (string, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return "", fmt.Errorf("malformed temporary api token")
	}
	payload, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(parts[1], "="))
	if err != nil {
		return "", fmt.Errorf("decode temporary api token: %w", err)
	}
	var claims temporaryTokenClaims
	if err := sonic.Unmarshal(payload, &claims); err != nil {
		return "", fmt.Errorf("decode temporary api token claims: %w", err)
	}
	for _, limit := range claims.Limits {
		for _, cidr := range limit.Cidrs {
			ip, _, _ := strings.Cut(cidr, "/")
			if ip != "" {
				return ip, nil
			}
		}
	}
	return "", fmt.Errorf("temporary api token carries no ip limit")
}

func matchingKey(keys []portalKey, name, ip string) (string, bool) {
	for _, k := range keys {
		if k.Name == name && slices.Contains(k.CidrRanges, ip) {
			return k.Key, true
		}
	}
	return "", false
}
