package models

// Result sources.
const (
	SourceExtracted = "extracted"
	SourceFallback  = "fallback"
)

// MetadataResult is the link-preview card for one URL.
//
// Domain is always set. The pointer fields are nil when nothing was found
// and serialize as JSON null.
type MetadataResult struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Image       *string `json:"image"`
	Price       *string `json:"price"`
	Domain      string  `json:"domain"`

	// Diagnostics, not part of the card itself.
	Source      string `json:"-"`
	FinalURL    string `json:"-"`
	ProductCode string `json:"-"`
	FetchMethod string `json:"-"`
}

// IsFallback reports whether the result came from the placeholder path.
func (r *MetadataResult) IsFallback() bool {
	return r.Source == SourceFallback
}

// StringPtr returns a pointer to s, or nil when s is empty.
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// Deref returns the pointed-to string or "".
func Deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
