package domain

import "time"

// RefreshNotice announces a newly written dataset file on the refresh
// topic. Any message on the topic triggers a reload; the fields only
// enrich logging, so a notice that fails to decode still counts.
type RefreshNotice struct {
	DatasetPath string    `json:"dataset_path"`
	GeneratedAt time.Time `json:"generated_at"`
	SiteCount   int       `json:"site_count"`
	Source      string    `json:"source,omitempty"`
}
