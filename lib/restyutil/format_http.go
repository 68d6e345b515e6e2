package restyutil

import (
	"fmt"
	"io"
	"maps"
	"net/http"
	"net/url"
	"slices"
	"strings"

	"github.com/go-resty/resty/v2"
)

const redacted = "[redacted]"

// headers and form fields that carry credentials, compared lowercased
var secretHeaders = map[string]bool{
	"cookie":             true,
	"set-cookie":         true,
	"x-csrf-token":       true,
	"authenticity_token": true,
}

var secretFields = map[string]bool{
	"user[password]":     true,
	"authenticity_token": true,
}

func formatHeaders(headers http.Header) string {
	var out strings.Builder
	for _, k := range slices.Sorted(maps.Keys(headers)) {
		for _, v := range headers[k] {
			if secretHeaders[strings.ToLower(k)] {
				v = redacted
			}
			fmt.Fprintf(&out, "%s: %s\n", k, v)
		}
	}
	return strings.TrimSuffix(out.String(), "\n")
}

// redactForm blanks credential fields of a urlencoded body. Bodies that
// don't parse as a form are returned unchanged.
func redactForm(body string) string {
	form, err := url.ParseQuery(body)
	if err != nil {
		return body
	}
	changed := false
	for key, values := range form {
		if !secretFields[strings.ToLower(key)] {
			continue
		}
		for i := range values {
			values[i] = redacted
		}
		changed = true
	}
	if !changed {
		return body
	}
	return form.Encode()
}

func formatRequestBody(req *http.Request) string {
	if req == nil || req.GetBody == nil || req.Body == nil || req.Body == http.NoBody {
		return ""
	}
	body, err := req.GetBody()
	if err != nil {
		return fmt.Sprintf("failed to get request body: %s", err.Error())
	}
	if body == nil {
		return ""
	}
	defer body.Close()
	readBody, err := io.ReadAll(body)
	if err != nil {
		return fmt.Sprintf("failed to read request body: %s", err.Error())
	}
	if strings.HasPrefix(req.Header.Get("Content-Type"), "application/x-www-form-urlencoded") {
		return redactForm(string(readBody))
	}
	return string(readBody)
}

// formatHttpMessage renders a whole exchange the way it is written to a
// dump file: request line, headers and body, then the same for the
// response.
func formatHttpMessage(res *resty.Response) string {
	var out strings.Builder

	out.WriteString("---- REQUEST ----\n\n")
	fmt.Fprintf(&out, "%s %s\n\n", res.Request.Method, res.Request.URL)
	if res.Request.RawRequest != nil {
		out.WriteString(formatHeaders(res.Request.RawRequest.Header))
	}
	out.WriteString("\n\n")
	out.WriteString(formatRequestBody(res.Request.RawRequest))

	// a redirect is reported with its target so dumps of form posts
	// show where the archive sent us
	responseUrl := res.Request.URL
	if redirected, err := res.RawResponse.Location(); err == nil {
		responseUrl = redirected.String()
	}

	out.WriteString("\n\n---- RESPONSE ----\n\n")
	fmt.Fprintf(&out, "%d %s\n\n", res.StatusCode(), responseUrl)
	out.WriteString(formatHeaders(res.Header()))
	out.WriteString("\n\n")
	out.WriteString(res.String())
	return out.String()
}
