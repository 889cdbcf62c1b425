package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/MarkoPoloResearchLab/learner_dashboard/internal/bundle"
	"github.com/MarkoPoloResearchLab/learner_dashboard/internal/storage"
)

const (
	flagNameFile  = "file"
	flagUsageFile = "bundle JSON file to import; {learner} is replaced by the learner id"

	importSummaryFormat = "imported %d programs and %d certificates for %s\n"
)

func configureImportFlags(flagSet *pflag.FlagSet) {
	flagSet.String(flagNameLearner, "", flagUsageLearner)
	flagSet.String(flagNameFile, "", flagUsageFile)
}

func (application *DashboardApplication) runImport(command *cobra.Command, arguments []string) error {
	if len(arguments) > 0 {
		return fmt.Errorf("%s: %s", unexpectedArgumentsMessage, strings.Join(arguments, " "))
	}

	configuration, configurationErr := application.loadConfiguration()
	if configurationErr != nil {
		return configurationErr
	}

	commandFlags := command.Flags()
	learnerID, _ := commandFlags.GetString(flagNameLearner)
	filePath, _ := commandFlags.GetString(flagNameFile)
	learnerID = strings.TrimSpace(learnerID)
	filePath = strings.TrimSpace(filePath)

	var missingParameters []string
	if learnerID == "" {
		missingParameters = append(missingParameters, flagNameLearner)
	}
	if filePath == "" {
		missingParameters = append(missingParameters, flagNameFile)
	}
	if configuration.DatabaseDataSourceName == "" {
		missingParameters = append(missingParameters, flagNameDatabaseDSN)
	}
	if validationErr := missingConfiguration(missingParameters); validationErr != nil {
		return validationErr
	}

	learnerBundle, loadErr := bundle.NewFileSource(filePath).Load(command.Context(), learnerID)
	if loadErr != nil {
		return loadErr
	}

	database, openErr := application.openStore(configuration)
	if openErr != nil {
		return openErr
	}
	defer func() {
		if sqlDatabase, sqlErr := database.DB(); sqlErr == nil {
			_ = sqlDatabase.Close()
		}
	}()

	if importErr := storage.NewStore(database).ImportBundle(command.Context(), learnerID, learnerBundle); importErr != nil {
		return importErr
	}

	_, _ = fmt.Fprintf(command.OutOrStdout(), importSummaryFormat,
		learnerBundle.Programs().Len(), learnerBundle.Certificates().Len(), learnerID)
	return nil
}
