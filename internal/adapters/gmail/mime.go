package gmail

import (
	"encoding/base64"
	"strings"

	gmailv1 "google.golang.org/api/gmail/v1"
)

// extractPlainText walks a MIME part tree and returns the first text/plain
// body found (base64url decoded), preferring text/plain within
// multipart/alternative.
func extractPlainText(part *gmailv1.MessagePart) string {
	if part == nil {
		return ""
	}
	if strings.EqualFold(part.MimeType, "text/plain") && part.Body != nil && part.Body.Data != "" {
		return decodeBase64URL(part.Body.Data)
	}
	for _, sub := range part.Parts {
		if strings.EqualFold(sub.MimeType, "text/plain") {
			if body := extractPlainText(sub); body != "" {
				return body
			}
		}
	}
	for _, sub := range part.Parts {
		if body := extractPlainText(sub); body != "" {
			return body
		}
	}
	return ""
}

// extractHTML walks a MIME part tree and returns the first text/html body
// found (base64url decoded).
func extractHTML(part *gmailv1.MessagePart) string {
	if part == nil {
		return ""
	}
	if strings.EqualFold(part.MimeType, "text/html") && part.Body != nil && part.Body.Data != "" {
		return decodeBase64URL(part.Body.Data)
	}
	for _, sub := range part.Parts {
		if body := extractHTML(sub); body != "" {
			return body
		}
	}
	return ""
}

// stripHTMLTags removes tags and decodes common entities to produce readable
// fallback text when a message has no text/plain part.
func stripHTMLTags(html string) string {
	for _, tag := range []string{"<br>", "<br/>", "<br />", "</p>", "</div>", "</tr>", "</li>"} {
		html = strings.ReplaceAll(html, tag, "\n")
		html = strings.ReplaceAll(html, strings.ToUpper(tag), "\n")
	}

	var b strings.Builder
	inTag := false
	for _, r := range html {
		switch {
		case r == '<':
			inTag = true
		case r == '>':
			inTag = false
		case !inTag:
			b.WriteRune(r)
		}
	}
	result := strings.NewReplacer(
		"&amp;", "&",
		"&lt;", "<",
		"&gt;", ">",
		"&quot;", "\"",
		"&#39;", "'",
		"&nbsp;", " ",
	).Replace(b.String())

	for strings.Contains(result, "\n\n\n") {
		result = strings.ReplaceAll(result, "\n\n\n", "\n\n")
	}
	return strings.TrimSpace(result)
}

func decodeBase64URL(data string) string {
	b, err := base64.URLEncoding.DecodeString(data)
	if err != nil {
		// Gmail uses unpadded base64url.
		b, err = base64.RawURLEncoding.DecodeString(data)
		if err != nil {
			return ""
		}
	}
	return string(b)
}
