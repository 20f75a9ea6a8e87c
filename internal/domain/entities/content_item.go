package entities

// ContentItem is an indexed page or resource a navigation step can point at.
type ContentItem struct {
	ID          string   `json:"id" db:"id"`
	TenantID    string   `json:"tenant_id" db:"tenant_id"`
	URL         string   `json:"url" db:"url"`
	Title       string   `json:"title" db:"title"`
	Language    string   `json:"language" db:"language"`
	Tags        []string `json:"tags,omitempty" db:"tags"`
	ContentType string   `json:"content_type" db:"content_type"`
	Description string   `json:"description,omitempty" db:"description"`
}
