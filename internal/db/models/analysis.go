package models

import (
	"encoding/json"
	"time"

	"gorm.io/gorm"
)

// WebsiteAnalysis stores the audit scores and the generated improvement
// suggestions for one lead's website.
type WebsiteAnalysis struct {
	gorm.Model
	LeadID uint `json:"lead_id" gorm:"not null;index"`

	SEOScore           int `json:"seo_score"`
	PerformanceScore   int `json:"performance_score"`
	AccessibilityScore int `json:"accessibility_score"`
	BestPracticesScore int `json:"best_practices_score"`

	Issues         json.RawMessage `json:"issues,omitempty" gorm:"type:jsonb"`
	LLMSuggestions string          `json:"llm_suggestions,omitempty" gorm:"type:text"`

	AnalyzedAt time.Time     `json:"analyzed_at"`
	Duration   time.Duration `json:"analysis_duration"`
}
