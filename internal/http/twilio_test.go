package http

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeE164(t *testing.T) {
	cases := map[string]string{
		"+1 (555) 123-4567": "+15551234567",
		"5551234567":        "+15551234567",
		"+447911123456":     "+447911123456",
		"  ":                "",
		"abc":               "",
	}
	for in, want := range cases {
		assert.Equal(t, want, NormalizeE164(in), "input %q", in)
	}
}

func TestBuildAbsoluteURL(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/sms/twilio?x=1", nil)
	req.Host = "internal:8080"
	assert.Equal(t, "http://internal:8080/sms/twilio?x=1", buildAbsoluteURL(req))

	req.Header.Set("X-Forwarded-Proto", "https")
	req.Header.Set("X-Forwarded-Host", "sms.example.com")
	assert.Equal(t, "https://sms.example.com/sms/twilio?x=1", buildAbsoluteURL(req))
}

func TestValidTwilioSignature(t *testing.T) {
	const (
		token      = "twilio-token"
		webhookURL = "https://sms.example.com/sms/twilio"
	)
	form := url.Values{"From": {"+15551234567"}, "Body": {"AAPL"}}

	newReq := func(sig string) *http.Request {
		req := httptest.NewRequest(http.MethodPost, "/sms/twilio", strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		if sig != "" {
			req.Header.Set(twilioSignatureHeader, sig)
		}
		return req
	}

	good := twilioSignature(token, webhookURL, form)
	assert.True(t, validTwilioSignature(newReq(good), token, webhookURL))
	assert.False(t, validTwilioSignature(newReq(good), "other-token", webhookURL))
	assert.False(t, validTwilioSignature(newReq(good), token, webhookURL+"/x"))
	assert.False(t, validTwilioSignature(newReq(""), token, webhookURL))
}
