package http

import (
	"crypto/hmac"
	"crypto/sha1"
	"encoding/base64"
	"encoding/xml"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
)

const twilioSignatureHeader = "X-Twilio-Signature"

// twilioInbound son los campos del webhook de Twilio que usamos.
type twilioInbound struct {
	MessageSid string
	From       string
	To         string
	Body       string
}

// twimlResponse se serializa como <Response><Message>...</Message></Response>.
type twimlResponse struct {
	XMLName xml.Name `xml:"Response"`
	Message string   `xml:"Message,omitempty"`
}

func parseTwilioInbound(r *http.Request) (twilioInbound, error) {
	if err := r.ParseForm(); err != nil {
		return twilioInbound{}, fmt.Errorf("parse form: %w", err)
	}
	return twilioInbound{
		MessageSid: r.PostFormValue("MessageSid"),
		From:       r.PostFormValue("From"),
		To:         r.PostFormValue("To"),
		Body:       r.PostFormValue("Body"),
	}, nil
}

// validTwilioSignature recalcula el HMAC-SHA1 de Twilio sobre URL + params ordenados.
func validTwilioSignature(r *http.Request, authToken, webhookURL string) bool {
	signature := r.Header.Get(twilioSignatureHeader)
	if signature == "" {
		return false
	}
	if err := r.ParseForm(); err != nil {
		return false
	}
	expected := twilioSignature(authToken, webhookURL, r.PostForm)
	return hmac.Equal([]byte(signature), []byte(expected))
}

func twilioSignature(authToken, webhookURL string, params url.Values) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var payload strings.Builder
	payload.WriteString(webhookURL)
	for _, k := range keys {
		for _, v := range params[k] {
			payload.WriteString(k)
			payload.WriteString(v)
		}
	}

	mac := hmac.New(sha1.New, []byte(authToken))
	mac.Write([]byte(payload.String()))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// buildAbsoluteURL reconstruye la URL pública detrás de un proxy.
func buildAbsoluteURL(r *http.Request) string {
	if r.URL == nil {
		return ""
	}
	if r.URL.Scheme != "" {
		return r.URL.String()
	}
	scheme := r.Header.Get("X-Forwarded-Proto")
	if scheme == "" {
		scheme = "https"
		if r.TLS == nil {
			scheme = "http"
		}
	}
	host := r.Header.Get("X-Forwarded-Host")
	if host == "" {
		host = r.Host
	}
	return fmt.Sprintf("%s://%s%s", scheme, host, r.URL.RequestURI())
}

// NormalizeE164 deja solo dígitos con prefijo "+". Diez dígitos se asumen de EE.UU.
func NormalizeE164(value string) string {
	var digits strings.Builder
	for _, r := range strings.TrimSpace(value) {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	d := digits.String()
	switch {
	case d == "":
		return ""
	case len(d) == 10:
		return "+1" + d
	default:
		return "+" + d
	}
}
