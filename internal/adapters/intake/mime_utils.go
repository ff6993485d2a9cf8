package intake

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"net/mail"
	"strings"

	"github.com/mikey/llm-email-assistant/internal/core"
)

// noTextContent stands in for the body of a message without a text/plain part
const noTextContent = "[No text content found in multipart message]"

// maxMultipartDepth bounds recursion into nested multipart bodies
const maxMultipartDepth = 5

var headerDecoder = &mime.WordDecoder{}

// decodeHeader decodes RFC 2047 encoded words, returning the input unchanged on failure
func decodeHeader(value string) string {
	decoded, err := headerDecoder.DecodeHeader(value)
	if err != nil {
		return value
	}
	return decoded
}

// parseRecord builds an email record from a raw RFC 5322 message. The envelope
// sender and recipients take precedence over the From and To headers.
func parseRecord(raw []byte, envelopeFrom string, envelopeTo []string) (*core.EmailRecord, *mail.Message, error) {
	msg, err := mail.ReadMessage(bytes.NewReader(raw))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse email message: %w", err)
	}

	body, err := extractTextFromMessage(msg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to extract text content: %w", err)
	}

	from := envelopeFrom
	if from == "" {
		from = decodeHeader(msg.Header.Get("From"))
	}
	to := strings.Join(envelopeTo, ", ")
	if to == "" {
		to = decodeHeader(msg.Header.Get("To"))
	}

	return &core.EmailRecord{
		From:    from,
		To:      to,
		Subject: decodeHeader(msg.Header.Get("Subject")),
		Body:    strings.TrimSpace(body),
	}, msg, nil
}

// extractTextFromMessage extracts the text content from an email message.
// For multipart messages it collects the text/plain parts.
func extractTextFromMessage(msg *mail.Message) (string, error) {
	return extractText(msg.Header.Get("Content-Type"), msg.Header.Get("Content-Transfer-Encoding"), msg.Body, 0)
}

func extractText(contentType, transferEncoding string, body io.Reader, depth int) (string, error) {
	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil || !strings.HasPrefix(mediaType, "multipart/") {
		// Not multipart (or unparseable): the body is the text
		b, err := io.ReadAll(decodeTransfer(transferEncoding, body))
		if err != nil {
			return "", err
		}
		return string(b), nil
	}

	boundary, ok := params["boundary"]
	if !ok || depth >= maxMultipartDepth {
		b, err := io.ReadAll(body)
		if err != nil {
			return "", err
		}
		return string(b), nil
	}

	mr := multipart.NewReader(body, boundary)
	var textContent strings.Builder
	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			// Keep whatever was read before the malformed part
			break
		}

		partType := part.Header.Get("Content-Type")
		partMedia, _, _ := mime.ParseMediaType(partType)
		switch {
		case partType == "" || partMedia == "text/plain":
			b, err := io.ReadAll(decodeTransfer(part.Header.Get("Content-Transfer-Encoding"), part))
			if err != nil {
				continue
			}
			textContent.Write(b)
			textContent.WriteString("\n")
		case strings.HasPrefix(partMedia, "multipart/"):
			nested, err := extractText(partType, "", part, depth+1)
			if err == nil && nested != noTextContent {
				textContent.WriteString(nested)
			}
		}
		// Other parts (HTML, attachments) are skipped
	}

	if textContent.Len() > 0 {
		return textContent.String(), nil
	}
	return noTextContent, nil
}

// decodeTransfer undoes a quoted-printable or base64 transfer encoding
func decodeTransfer(encoding string, r io.Reader) io.Reader {
	switch strings.ToLower(strings.TrimSpace(encoding)) {
	case "quoted-printable":
		return quotedprintable.NewReader(r)
	case "base64":
		return base64.NewDecoder(base64.StdEncoding, r)
	default:
		return r
	}
}
