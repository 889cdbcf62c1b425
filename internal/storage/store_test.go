package storage_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/MarkoPoloResearchLab/learner_dashboard/internal/model"
	"github.com/MarkoPoloResearchLab/learner_dashboard/internal/storage"
	"github.com/MarkoPoloResearchLab/learner_dashboard/internal/testutil"
)

const (
	testLearnerID      = "learner-1"
	testOtherLearnerID = "learner-2"
)

func sampleBundle() model.Bundle {
	return model.Bundle{
		ProgramsData: []map[string]any{
			{
				"id":                float64(12),
				"name":              "Zeta Program",
				"subtitle":          "Last alphabetically",
				"category":          "xseries",
				"marketing_url":     "https://example.com/zeta",
				"banner_image_urls": map[string]any{model.ProgramBannerImageSize: "https://example.com/zeta.jpg"},
				"organizations":     []any{map[string]any{"display_name": "MITx"}},
			},
			{"name": "Alpha Program"},
		},
		CertificatesData: []map[string]any{
			{"display_name": "Go", "credential_url": "https://example.com/cert/go"},
			{"display_name": "Go"},
		},
		SidebarContext: map[string]any{"xseriesUrl": "https://example.com/xseries"},
	}
}

func TestOpenDatabaseValidatesConfiguration(testingT *testing.T) {
	testCases := []struct {
		name          string
		configuration storage.Config
		expectedErr   error
	}{
		{name: "missing driver", configuration: storage.Config{DataSourceName: "file.db"}, expectedErr: storage.ErrMissingDatabaseDriverName},
		{name: "unsupported driver", configuration: storage.Config{DriverName: "postgres", DataSourceName: "dsn"}, expectedErr: storage.ErrUnsupportedDatabaseDriver},
		{name: "missing data source", configuration: storage.Config{DriverName: storage.DriverNameSQLite}, expectedErr: storage.ErrMissingDataSourceName},
	}
	for _, testCase := range testCases {
		testingT.Run(testCase.name, func(testingT *testing.T) {
			_, openErr := storage.OpenDatabase(testCase.configuration)
			require.ErrorIs(testingT, openErr, testCase.expectedErr)
		})
	}
}

func TestImportThenLoadKeepsOrderAndFields(testingT *testing.T) {
	store := testutil.OpenStore(testingT)
	ctx := context.Background()

	require.NoError(testingT, store.ImportBundle(ctx, testLearnerID, sampleBundle()))
	loaded, loadErr := store.LoadBundle(ctx, testLearnerID)
	require.NoError(testingT, loadErr)

	programs := loaded.Programs().Items()
	require.Len(testingT, programs, 2)
	require.Equal(testingT, "Zeta Program", programs[0].Name())
	require.Equal(testingT, "Alpha Program", programs[1].Name())
	identifier, found := programs[0].ID()
	require.True(testingT, found)
	require.Equal(testingT, int64(12), identifier)
	_, found = programs[1].ID()
	require.False(testingT, found)
	require.Equal(testingT, "https://example.com/zeta.jpg", programs[0].BannerImageURL())
	require.Equal(testingT, []string{"MITx"}, programs[0].Organizations())

	certificates := loaded.Certificates().Items()
	require.Len(testingT, certificates, 2)
	require.Equal(testingT, "https://example.com/cert/go", certificates[0].URL())
	require.Empty(testingT, certificates[1].URL())

	require.True(testingT, loaded.Sidebar().HasXSeriesLink())
}

func TestImportReplacesPreviousBundleOfSameLearnerOnly(testingT *testing.T) {
	store := testutil.OpenStore(testingT)
	ctx := context.Background()

	require.NoError(testingT, store.ImportBundle(ctx, testLearnerID, sampleBundle()))
	require.NoError(testingT, store.ImportBundle(ctx, testOtherLearnerID, sampleBundle()))
	require.NoError(testingT, store.ImportBundle(ctx, testLearnerID, model.Bundle{
		ProgramsData: []map[string]any{{"name": "Only"}},
	}))

	loaded, loadErr := store.LoadBundle(ctx, testLearnerID)
	require.NoError(testingT, loadErr)
	require.Equal(testingT, 1, loaded.Programs().Len())
	require.Zero(testingT, loaded.Certificates().Len())
	require.False(testingT, loaded.Sidebar().HasXSeriesLink())

	other, otherErr := store.LoadBundle(ctx, testOtherLearnerID)
	require.NoError(testingT, otherErr)
	require.Equal(testingT, 2, other.Programs().Len())
}

func TestLoadBundleReportsUnknownLearner(testingT *testing.T) {
	store := testutil.OpenStore(testingT)

	_, loadErr := store.LoadBundle(context.Background(), "nobody")
	require.ErrorIs(testingT, loadErr, storage.ErrLearnerNotFound)

	_, blankErr := store.LoadBundle(context.Background(), "  ")
	require.ErrorIs(testingT, blankErr, storage.ErrMissingLearnerID)
	require.ErrorIs(testingT, store.ImportBundle(context.Background(), "", model.Bundle{}), storage.ErrMissingLearnerID)
}
