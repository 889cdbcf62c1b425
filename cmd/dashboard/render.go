package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/MarkoPoloResearchLab/learner_dashboard/internal/dashboard"
	"github.com/MarkoPoloResearchLab/learner_dashboard/internal/page"
)

const (
	flagNameLayout    = "layout"
	flagNameLearner   = "learner"
	flagNameUserAgent = "user-agent"

	flagUsageLayout    = "page layout: programs or sidebar"
	flagUsageLearner   = "learner whose bundle is rendered"
	flagUsageUserAgent = "user agent used for touch device detection"
)

func configureRenderFlags(flagSet *pflag.FlagSet) {
	flagSet.String(flagNameLayout, string(page.LayoutPrograms), flagUsageLayout)
	flagSet.String(flagNameLearner, "", flagUsageLearner)
	flagSet.String(flagNameUserAgent, "", flagUsageUserAgent)
}

func (application *DashboardApplication) runRender(command *cobra.Command, arguments []string) error {
	if len(arguments) > 0 {
		return fmt.Errorf("%s: %s", unexpectedArgumentsMessage, strings.Join(arguments, " "))
	}

	configuration, configurationErr := application.loadConfiguration()
	if configurationErr != nil {
		return configurationErr
	}

	commandFlags := command.Flags()
	rawLayout, _ := commandFlags.GetString(flagNameLayout)
	learnerID, _ := commandFlags.GetString(flagNameLearner)
	userAgent, _ := commandFlags.GetString(flagNameUserAgent)

	learnerID = strings.TrimSpace(learnerID)
	if learnerID == "" {
		learnerID = configuration.DefaultLearnerID
	}
	if learnerID == "" {
		return missingConfiguration([]string{flagNameLearner})
	}

	layout, layoutErr := page.ParseLayout(rawLayout)
	if layoutErr != nil {
		return layoutErr
	}

	logger, loggerErr := application.loggerFactory()
	if loggerErr != nil {
		return fmt.Errorf("%s: %w", loggerCreationErrorMessage, loggerErr)
	}
	defer func() {
		_ = logger.Sync()
	}()

	components, componentsErr := application.buildComponents(configuration, logger)
	if componentsErr != nil {
		return componentsErr
	}
	defer components.close()

	return components.renderer.Render(command.Context(), dashboard.Request{
		Layout:    layout,
		LearnerID: learnerID,
		UserAgent: userAgent,
	}, command.OutOrStdout())
}
