package mailgate

import (
	"io"
	"mime"
	"mime/multipart"
	"net/mail"
	"strings"
)

// extractText pulls the plain-text content out of a message for
// classification. Multipart messages contribute their text/plain parts;
// nested multiparts are walked recursively. Attachments are ignored.
func extractText(msg *mail.Message) (string, error) {
	contentType := msg.Header.Get("Content-Type")

	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil || !strings.HasPrefix(mediaType, "multipart/") {
		body, err := io.ReadAll(msg.Body)
		if err != nil {
			return "", err
		}
		return string(body), nil
	}

	boundary, ok := params["boundary"]
	if !ok {
		body, err := io.ReadAll(msg.Body)
		if err != nil {
			return "", err
		}
		return string(body), nil
	}

	var text strings.Builder
	collectTextParts(multipart.NewReader(msg.Body, boundary), &text, 0)
	if text.Len() == 0 {
		return "[no text content found in multipart message]", nil
	}
	return text.String(), nil
}

// collectTextParts appends every text/plain part to out. Depth is capped
// to guard against pathological nesting.
func collectTextParts(mr *multipart.Reader, out *strings.Builder, depth int) {
	if depth > 4 {
		return
	}
	for {
		part, err := mr.NextPart()
		if err != nil {
			return
		}

		partType, partParams, err := mime.ParseMediaType(part.Header.Get("Content-Type"))
		if err != nil {
			partType = "text/plain"
		}

		switch {
		case strings.HasPrefix(partType, "text/plain"):
			data, err := io.ReadAll(part)
			if err != nil {
				continue
			}
			out.Write(data)
			out.WriteString("\n")
		case strings.HasPrefix(partType, "multipart/"):
			if nested, ok := partParams["boundary"]; ok {
				collectTextParts(multipart.NewReader(part, nested), out, depth+1)
			}
		}
	}
}
