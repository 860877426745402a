package gmail

import (
	"encoding/base64"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gmailv1 "google.golang.org/api/gmail/v1"
)

func b64(s string) string {
	return base64.URLEncoding.EncodeToString([]byte(s))
}

func TestExtractPlainText_PrefersPlainInAlternative(t *testing.T) {
	part := &gmailv1.MessagePart{
		MimeType: "multipart/alternative",
		Parts: []*gmailv1.MessagePart{
			{MimeType: "text/html", Body: &gmailv1.MessagePartBody{Data: b64("<b>hi</b>")}},
			{MimeType: "text/plain", Body: &gmailv1.MessagePartBody{Data: b64("hi")}},
		},
	}
	assert.Equal(t, "hi", extractPlainText(part))
	assert.Equal(t, "<b>hi</b>", extractHTML(part))
}

func TestExtractPlainText_Nested(t *testing.T) {
	part := &gmailv1.MessagePart{
		MimeType: "multipart/mixed",
		Parts: []*gmailv1.MessagePart{
			{
				MimeType: "multipart/alternative",
				Parts: []*gmailv1.MessagePart{
					{MimeType: "text/plain", Body: &gmailv1.MessagePartBody{Data: b64("nested body")}},
				},
			},
		},
	}
	assert.Equal(t, "nested body", extractPlainText(part))
}

func TestExtractPlainText_UnpaddedBase64(t *testing.T) {
	raw := base64.RawURLEncoding.EncodeToString([]byte("unpadded"))
	part := &gmailv1.MessagePart{
		MimeType: "text/plain",
		Body:     &gmailv1.MessagePartBody{Data: raw},
	}
	assert.Equal(t, "unpadded", extractPlainText(part))
}

func TestStripHTMLTags(t *testing.T) {
	got := stripHTMLTags("<div>Hello &amp; welcome<br>to the <b>filter</b></div>")
	assert.Equal(t, "Hello & welcome\nto the filter", got)
}

func TestToMailboxMessage(t *testing.T) {
	msg := &gmailv1.Message{
		Id:           "m1",
		ThreadId:     "t1",
		InternalDate: time.Date(2025, 3, 1, 10, 30, 0, 0, time.UTC).UnixMilli(),
		LabelIds:     []string{"INBOX", "IMPORTANT"},
		Payload: &gmailv1.MessagePart{
			MimeType: "multipart/mixed",
			Headers: []*gmailv1.MessagePartHeader{
				{Name: "From", Value: "Alice Smith <Alice@Example.com>"},
				{Name: "Subject", Value: "Quarterly report"},
				{Name: "To", Value: "bob@example.com, Carol <carol@example.com>"},
			},
			Parts: []*gmailv1.MessagePart{
				{MimeType: "text/plain", Body: &gmailv1.MessagePartBody{Data: b64("see attached")}},
				{
					MimeType: "application/pdf",
					Filename: "report.pdf",
					Body:     &gmailv1.MessagePartBody{AttachmentId: "att-1"},
				},
			},
		},
	}

	got := toMailboxMessage(msg)
	require.NotNil(t, got)
	assert.Equal(t, "m1", got.MessageID)
	assert.Equal(t, "t1", got.ThreadID)
	assert.Equal(t, "alice@example.com", got.Sender)
	assert.Equal(t, "Quarterly report", got.Subject)
	assert.Equal(t, []string{"bob@example.com", "carol@example.com"}, got.Recipients)
	assert.Equal(t, "see attached", got.Content)
	assert.True(t, got.HasAttachments)
	assert.Equal(t, time.Date(2025, 3, 1, 10, 30, 0, 0, time.UTC), got.ReceivedAt)
}

func TestNormalizeAddress(t *testing.T) {
	assert.Equal(t, "user@example.com", normalizeAddress(`"User" <User@Example.com>`))
	assert.Equal(t, "plain@example.com", normalizeAddress("plain@example.com"))
	assert.Equal(t, "not-an-address", normalizeAddress(" Not-An-Address "))
}
