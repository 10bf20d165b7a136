package mapview

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"unicode/utf16"
)

// EventName is the client event the search response triggers after the
// swap. Its detail is a Payload.
const EventName = "directory:results"

// TriggerHeader is the htmx response header that carries the payload.
const TriggerHeader = "HX-Trigger-After-Swap"

// MaxTriggerBytes bounds the TriggerHeader value. Proxies commonly reject
// response headers past 4-8 KB, so larger result sets go out without the
// header and the client reads the cards instead.
const MaxTriggerBytes = 4 << 10

// ErrNoPayload is returned by ParseTrigger when the header carries no
// results event.
var ErrNoPayload = errors.New("no results payload")

// Payload is the structured copy of a search response's cards.
type Payload struct {
	Items []Item `json:"items"`
}

// EncodeTrigger builds the TriggerHeader value for items. Non-ASCII
// characters are escaped so the value is safe in an HTTP header.
func EncodeTrigger(items []Item) (string, error) {
	if items == nil {
		items = []Item{}
	}
	data, err := json.Marshal(map[string]Payload{EventName: {Items: items}})
	if err != nil {
		return "", fmt.Errorf("encoding results payload: %w", err)
	}
	return asciiJSON(string(data)), nil
}

// ParseTrigger extracts the payload from a TriggerHeader value.
func ParseTrigger(header string) (*Payload, error) {
	header = strings.TrimSpace(header)
	if header == "" || header[0] != '{' {
		return nil, ErrNoPayload
	}
	var events map[string]json.RawMessage
	if err := json.Unmarshal([]byte(header), &events); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", TriggerHeader, err)
	}
	raw, ok := events[EventName]
	if !ok {
		return nil, ErrNoPayload
	}
	var p Payload
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("decoding %s payload: %w", EventName, err)
	}
	if p.Items == nil {
		p.Items = []Item{}
	}
	return &p, nil
}

// asciiJSON rewrites every non-ASCII rune as a \u escape. Only valid inside
// JSON strings, which is the only place encoding/json emits them.
func asciiJSON(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r < 0x80 {
			b.WriteRune(r)
			continue
		}
		if r > 0xFFFF {
			hi, lo := utf16.EncodeRune(r)
			fmt.Fprintf(&b, `\u%04x\u%04x`, hi, lo)
			continue
		}
		fmt.Fprintf(&b, `\u%04x`, r)
	}
	return b.String()
}
