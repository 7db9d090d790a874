package settings

import (
	"encoding/json"
	"fmt"
)

// TermsContent is the off-chain document body stored in the content store.
// The canonical byte sequence produced by CanonicalContent is what gets
// priced and uploaded, so the struct carries exactly the two content fields:
// id, bump and loading are local-only and must never reach the store.
type TermsContent struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// CanonicalContent serializes the draft's content fields to the canonical
// byte sequence: a JSON object with fixed key order and no extraneous
// fields. The same bytes must be used for pricing and for upload.
func (d *TermsDraft) CanonicalContent() []byte {
	out, err := json.Marshal(TermsContent{Title: d.Title, Description: d.Description})
	if err != nil {
		// A two-string struct cannot fail to marshal.
		panic(err)
	}
	return out
}

// ParseTermsContent decodes a stored document body.
func ParseTermsContent(data []byte) (*TermsContent, error) {
	var content TermsContent
	if err := json.Unmarshal(data, &content); err != nil {
		return nil, fmt.Errorf("settings: parse terms content: %w", err)
	}
	return &content, nil
}
