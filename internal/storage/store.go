package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/MarkoPoloResearchLab/learner_dashboard/internal/model"
)

const (
	errorMessageMissingLearnerID = "storage: missing learner id"
	errorMessageLearnerNotFound  = "storage: learner not found"
	errorMessageImportBundle     = "storage: import bundle"
	errorMessageLoadBundle       = "storage: load bundle"

	rawFieldOrganizationName = "display_name"
)

var (
	// ErrMissingLearnerID indicates a blank learner identifier.
	ErrMissingLearnerID = errors.New(errorMessageMissingLearnerID)
	// ErrLearnerNotFound indicates a learner that was never imported.
	ErrLearnerNotFound = errors.New(errorMessageLearnerNotFound)
)

// Store reads and seeds per-learner dashboard bundles.
type Store struct {
	database *gorm.DB
}

// NewStore wraps an opened and migrated database.
func NewStore(database *gorm.DB) *Store {
	return &Store{database: database}
}

func normalizeLearnerID(learnerID string) (string, error) {
	trimmed := strings.TrimSpace(learnerID)
	if trimmed == "" {
		return "", ErrMissingLearnerID
	}
	return trimmed, nil
}

// ImportBundle replaces everything stored for learnerID with bundle,
// keeping payload order.
func (store *Store) ImportBundle(ctx context.Context, learnerID string, bundle model.Bundle) error {
	normalizedLearnerID, learnerErr := normalizeLearnerID(learnerID)
	if learnerErr != nil {
		return learnerErr
	}

	programRecords := make([]ProgramRecord, 0, len(bundle.ProgramsData))
	for position, program := range bundle.Programs().Items() {
		record := ProgramRecord{
			ID:             NewID(),
			LearnerID:      normalizedLearnerID,
			Position:       position,
			Name:           program.Name(),
			Subtitle:       program.Subtitle(),
			Category:       program.Category(),
			MarketingURL:   program.MarketingURL(),
			BannerImageURL: program.BannerImageURL(),
			Organizations:  program.Organizations(),
		}
		if identifier, found := program.ID(); found {
			record.ProgramID = &identifier
		}
		programRecords = append(programRecords, record)
	}

	certificateRecords := make([]CertificateRecord, 0, len(bundle.CertificatesData))
	for position, certificate := range bundle.Certificates().Items() {
		certificateRecords = append(certificateRecords, CertificateRecord{
			ID:            NewID(),
			LearnerID:     normalizedLearnerID,
			Position:      position,
			DisplayName:   certificate.DisplayName(),
			CredentialURL: certificate.URL(),
		})
	}

	sidebar := bundle.Sidebar()
	sidebarRecord := SidebarRecord{
		LearnerID:    normalizedLearnerID,
		XSeriesURL:   sidebar.XSeriesURL(),
		XSeriesImage: sidebar.XSeriesImage(),
	}

	transactionErr := store.database.WithContext(ctx).Transaction(func(transaction *gorm.DB) error {
		if deleteErr := transaction.Where("learner_id = ?", normalizedLearnerID).Delete(&ProgramRecord{}).Error; deleteErr != nil {
			return deleteErr
		}
		if deleteErr := transaction.Where("learner_id = ?", normalizedLearnerID).Delete(&CertificateRecord{}).Error; deleteErr != nil {
			return deleteErr
		}
		if len(programRecords) > 0 {
			if createErr := transaction.Create(&programRecords).Error; createErr != nil {
				return createErr
			}
		}
		if len(certificateRecords) > 0 {
			if createErr := transaction.Create(&certificateRecords).Error; createErr != nil {
				return createErr
			}
		}
		return transaction.Save(&sidebarRecord).Error
	})
	if transactionErr != nil {
		return fmt.Errorf("%s: %w", errorMessageImportBundle, transactionErr)
	}
	return nil
}

// LoadBundle rebuilds the bundle payload stored for learnerID.
func (store *Store) LoadBundle(ctx context.Context, learnerID string) (model.Bundle, error) {
	normalizedLearnerID, learnerErr := normalizeLearnerID(learnerID)
	if learnerErr != nil {
		return model.Bundle{}, learnerErr
	}
	database := store.database.WithContext(ctx)

	var sidebarRecord SidebarRecord
	sidebarErr := database.Where("learner_id = ?", normalizedLearnerID).Take(&sidebarRecord).Error
	if errors.Is(sidebarErr, gorm.ErrRecordNotFound) {
		return model.Bundle{}, fmt.Errorf("%w: %s", ErrLearnerNotFound, normalizedLearnerID)
	}
	if sidebarErr != nil {
		return model.Bundle{}, fmt.Errorf("%s: %w", errorMessageLoadBundle, sidebarErr)
	}

	var programRecords []ProgramRecord
	if findErr := database.Where("learner_id = ?", normalizedLearnerID).Order("position asc").Find(&programRecords).Error; findErr != nil {
		return model.Bundle{}, fmt.Errorf("%s: %w", errorMessageLoadBundle, findErr)
	}
	var certificateRecords []CertificateRecord
	if findErr := database.Where("learner_id = ?", normalizedLearnerID).Order("position asc").Find(&certificateRecords).Error; findErr != nil {
		return model.Bundle{}, fmt.Errorf("%s: %w", errorMessageLoadBundle, findErr)
	}

	bundle := model.Bundle{
		ProgramsData:     make([]map[string]any, 0, len(programRecords)),
		CertificatesData: make([]map[string]any, 0, len(certificateRecords)),
		SidebarContext: map[string]any{
			"xseriesUrl":   sidebarRecord.XSeriesURL,
			"xseriesImage": sidebarRecord.XSeriesImage,
		},
	}
	for _, record := range programRecords {
		bundle.ProgramsData = append(bundle.ProgramsData, record.payload())
	}
	for _, record := range certificateRecords {
		bundle.CertificatesData = append(bundle.CertificatesData, map[string]any{
			"display_name":   record.DisplayName,
			"credential_url": record.CredentialURL,
		})
	}
	return bundle, nil
}

func (record ProgramRecord) payload() map[string]any {
	organizations := make([]any, 0, len(record.Organizations))
	for _, name := range record.Organizations {
		organizations = append(organizations, map[string]any{rawFieldOrganizationName: name})
	}
	payload := map[string]any{
		"name":          record.Name,
		"subtitle":      record.Subtitle,
		"category":      record.Category,
		"marketing_url": record.MarketingURL,
		"organizations": organizations,
	}
	if record.BannerImageURL != "" {
		payload["banner_image_urls"] = map[string]any{model.ProgramBannerImageSize: record.BannerImageURL}
	}
	if record.ProgramID != nil {
		payload["id"] = *record.ProgramID
	}
	return payload
}
