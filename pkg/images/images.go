// Package images decides whether raw portrait downloads are actually images.
// The upstream image host answers missing ids with an HTML error page and a
// 200 status, so the response body itself is the only thing worth inspecting.
package images

import (
	"bytes"
	"encoding/base64"
	"errors"

	"github.com/PuerkitoBio/goquery"
	"github.com/disintegration/imaging"
)

// Sniffer reports whether a payload is a usable raster image. A nil error
// means yes. Implementations must not depend on transport metadata like
// Content-Type headers.
type Sniffer interface {
	Sniff(payload []byte) error
}

// Logger matches the logging surface of logrus.
type Logger interface {
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
	Debugf(format string, args ...interface{})
}

// DecodeSniffer accepts a payload if it decodes as a raster image.
type DecodeSniffer struct{}

func (DecodeSniffer) Sniff(payload []byte) error {
	_, err := imaging.Decode(bytes.NewReader(payload))
	return err
}

// DocumentSniffer rejects payloads that parse as an HTML document carrying an
// <html> element. It exists as an alternative discriminator; DecodeSniffer is
// the default gate.
type DocumentSniffer struct{}

func (DocumentSniffer) Sniff(payload []byte) error {
	// The HTML parser wraps any input in html/head/body nodes, so only
	// payloads that actually start with markup are worth parsing.
	head := bytes.TrimSpace(payload)
	if len(head) == 0 {
		return errors.New("payload is empty")
	}
	if head[0] != '<' {
		return nil
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(payload))
	if err != nil {
		return nil
	}
	if title := doc.Find("title").First().Text(); title != "" {
		return errors.New("payload is an HTML page titled " + title)
	}
	return errors.New("payload is an HTML page")
}

// Classify maps each payload to its base64 encoding if the sniffer accepts
// it, or to "" with one diagnostic if it does not. Payload index i belongs to
// character source id i+1; portrait ids are 1-based and contiguous.
func Classify(payloads [][]byte, sniffer Sniffer, log Logger) map[int]string {
	if sniffer == nil {
		sniffer = DecodeSniffer{}
	}

	images := make(map[int]string, len(payloads))
	for i, payload := range payloads {
		id := i + 1
		if err := sniffer.Sniff(payload); err != nil {
			if log != nil {
				log.Warnf("Image error for character %d, it will be uploaded without an image: %v", id, err)
			}
			images[id] = ""
			continue
		}
		images[id] = base64.StdEncoding.EncodeToString(payload)
	}
	return images
}
