package storage

import (
	"time"
)

// ProgramRecord is one enrolled program of a learner at a fixed position.
type ProgramRecord struct {
	ID             string `gorm:"primaryKey;size:36"`
	LearnerID      string `gorm:"not null;size:191;index:idx_program_learner_position,priority:1"`
	Position       int    `gorm:"not null;index:idx_program_learner_position,priority:2"`
	ProgramID      *int64 `gorm:"column:program_id"`
	Name           string `gorm:"not null"`
	Subtitle       string
	Category       string
	MarketingURL   string
	BannerImageURL string
	Organizations  []string `gorm:"serializer:json"`
	CreatedAt      time.Time
}

// CertificateRecord is one earned certificate of a learner.
type CertificateRecord struct {
	ID            string `gorm:"primaryKey;size:36"`
	LearnerID     string `gorm:"not null;size:191;index:idx_certificate_learner_position,priority:1"`
	Position      int    `gorm:"not null;index:idx_certificate_learner_position,priority:2"`
	DisplayName   string `gorm:"not null"`
	CredentialURL string
	CreatedAt     time.Time
}

// SidebarRecord marks a learner as imported and carries the sidebar context.
type SidebarRecord struct {
	LearnerID    string `gorm:"primaryKey;size:191"`
	XSeriesURL   string `gorm:"column:xseries_url"`
	XSeriesImage string `gorm:"column:xseries_image"`
	UpdatedAt    time.Time
}
