package browser

import (
	"strings"
	"testing"

	"github.com/chromedp/cdproto/network"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/venari/internal/common"
)

func TestNewServicePicksPoolAgentWhenUnconfigured(t *testing.T) {
	cfg := common.NewDefaultConfig()

	svc := NewService(&cfg.Browser, &cfg.Crawler, arbor.NewLogger())
	assert.Contains(t, userAgentPool, svc.UserAgent())

	cfg.Crawler.UserAgent = "custom-agent/1.0"
	svc = NewService(&cfg.Browser, &cfg.Crawler, arbor.NewLogger())
	assert.Equal(t, "custom-agent/1.0", svc.UserAgent())
}

func TestUserAgentPoolLooksLikeDesktopChrome(t *testing.T) {
	require.NotEmpty(t, userAgentPool)
	for _, ua := range userAgentPool {
		assert.Contains(t, ua, "Chrome/")
		assert.Contains(t, ua, "Mozilla/5.0")
		assert.NotContains(t, ua, "Headless")
	}
}

func TestMaskingScriptCoversAutomationMarkers(t *testing.T) {
	assert.Contains(t, maskingScript, "webdriver")
	assert.Contains(t, maskingScript, "languages")
	assert.Contains(t, maskingScript, "plugins")
	assert.Contains(t, maskingScript, "window.chrome")
	assert.Contains(t, maskingScript, "'platform'")
	assert.Contains(t, maskingScript, "'hardwareConcurrency'")
	assert.Contains(t, maskingScript, "'deviceMemory'")
	assert.Contains(t, maskingScript, "$cdc_", "chromedriver leaves its marker on window and document")
}

func TestFromCDPCookies(t *testing.T) {
	raw := []*network.Cookie{
		{
			Name: "token", Value: "abc", Domain: ".example.com", Path: "/",
			Expires: 1893456000, Secure: true, HTTPOnly: true,
			SameSite: network.CookieSameSiteLax,
		},
		{
			Name: "session", Value: "xyz", Domain: ".example.com", Path: "/",
			Expires: -1, // session cookie
		},
	}

	cookies := fromCDPCookies(raw)
	require.Len(t, cookies, 2)

	assert.Equal(t, "token", cookies[0].Name)
	assert.Equal(t, float64(1893456000), cookies[0].Expires)
	assert.True(t, cookies[0].Secure)
	assert.Equal(t, "Lax", cookies[0].SameSite)

	assert.Zero(t, cookies[1].Expires, "session cookies carry no expiry")
}

func TestSelectorProbeEscapesQuotes(t *testing.T) {
	script, err := selectorProbe(`a[title="x"]`)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(script, "document.querySelector("))
	assert.Contains(t, script, `\"x\"`)
}

func TestStorageScripts(t *testing.T) {
	dump := dumpStorageScript("localStorage")
	assert.Contains(t, dump, "localStorage.key(i)")
	assert.Contains(t, dump, "localStorage.getItem(key)")

	load, err := loadStorageScript("sessionStorage", map[string]string{"k": `va"lue`})
	require.NoError(t, err)
	assert.Contains(t, load, "sessionStorage.setItem(key, value)")
	assert.Contains(t, load, `va\"lue`)
}
