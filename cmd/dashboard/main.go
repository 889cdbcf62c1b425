package main

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/MarkoPoloResearchLab/learner_dashboard/internal/storage"
)

const (
	commandUseName               = "dashboard"
	commandShortDescription      = "Render learner dashboards"
	commandLongDescription       = "Render learner dashboard pages from program and certificate bundles, over HTTP or on the command line"
	serveCommandUseName          = "serve"
	serveCommandDescription      = "Run the dashboard HTTP server"
	renderCommandUseName         = "render"
	renderCommandDescription     = "Render one dashboard page to standard output"
	importCommandUseName         = "import"
	importCommandDescription     = "Import a learner bundle file into the local store"
	missingConfigurationMessage  = "missing required configuration"
	loggerCreationErrorMessage   = "logger"
	logEventListening            = "listening"
	logFieldAddress              = "addr"
	logFieldServeMode            = "serve_mode"
	readHeaderTimeoutSeconds     = 5
	unexpectedArgumentsMessage   = "unexpected command arguments"
	commandInitializationFailure = "failed to configure command"
	serverFailureMessage         = "server"
)

// DatabaseOpener opens the bundle store database.
type DatabaseOpener func(storage.Config) (*gorm.DB, error)

// LoggerFactory builds the process logger.
type LoggerFactory func() (*zap.Logger, error)

// ServerRunner serves until the server stops.
type ServerRunner func(*http.Server) error

// DashboardApplication constructs and executes the dashboard commands.
type DashboardApplication struct {
	configurationLoader *viper.Viper
	databaseOpener      DatabaseOpener
	loggerFactory       LoggerFactory
	serverRunner        ServerRunner
}

// NewDashboardApplication creates a DashboardApplication with default dependencies.
func NewDashboardApplication() *DashboardApplication {
	return &DashboardApplication{
		configurationLoader: viper.New(),
		databaseOpener:      storage.OpenDatabase,
		loggerFactory:       func() (*zap.Logger, error) { return zap.NewProduction() },
		serverRunner:        func(server *http.Server) error { return server.ListenAndServe() },
	}
}

// WithDatabaseOpener overrides the database opener dependency.
func (application *DashboardApplication) WithDatabaseOpener(databaseOpener DatabaseOpener) *DashboardApplication {
	application.databaseOpener = databaseOpener
	return application
}

// WithLoggerFactory overrides how the process logger is built.
func (application *DashboardApplication) WithLoggerFactory(loggerFactory LoggerFactory) *DashboardApplication {
	application.loggerFactory = loggerFactory
	return application
}

// WithServerRunner overrides how the HTTP server is run.
func (application *DashboardApplication) WithServerRunner(serverRunner ServerRunner) *DashboardApplication {
	application.serverRunner = serverRunner
	return application
}

// Command builds the root Cobra command and its subcommands.
func (application *DashboardApplication) Command() (*cobra.Command, error) {
	rootCommand := &cobra.Command{
		Use:   commandUseName,
		Short: commandShortDescription,
		Long:  commandLongDescription,
	}
	if configurationErr := application.configureSharedFlags(rootCommand.PersistentFlags()); configurationErr != nil {
		return nil, configurationErr
	}

	serveCommand := &cobra.Command{
		Use:   serveCommandUseName,
		Short: serveCommandDescription,
		RunE:  application.runServe,
	}
	if configurationErr := application.configureServeFlags(serveCommand.Flags()); configurationErr != nil {
		return nil, configurationErr
	}

	renderCommand := &cobra.Command{
		Use:   renderCommandUseName,
		Short: renderCommandDescription,
		RunE:  application.runRender,
	}
	configureRenderFlags(renderCommand.Flags())

	importCommand := &cobra.Command{
		Use:   importCommandUseName,
		Short: importCommandDescription,
		RunE:  application.runImport,
	}
	configureImportFlags(importCommand.Flags())

	rootCommand.AddCommand(serveCommand, renderCommand, importCommand)
	return rootCommand, nil
}

func (application *DashboardApplication) runServe(command *cobra.Command, arguments []string) error {
	if len(arguments) > 0 {
		return fmt.Errorf("%s: %s", unexpectedArgumentsMessage, strings.Join(arguments, " "))
	}

	configuration, configurationErr := application.loadConfiguration()
	if configurationErr != nil {
		return configurationErr
	}
	if validationErr := ensureServeConfiguration(configuration); validationErr != nil {
		return validationErr
	}
	serveMode, serveModeErr := ParseServeMode(configuration.ServeMode)
	if serveModeErr != nil {
		return serveModeErr
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

	httpServer := &http.Server{
		Addr:              configuration.ApplicationAddress,
		Handler:           buildRouter(serveMode, configuration, components, logger),
		ReadHeaderTimeout: readHeaderTimeoutSeconds * time.Second,
	}

	logger.Info(logEventListening,
		zap.String(logFieldAddress, configuration.ApplicationAddress),
		zap.String(logFieldServeMode, string(serveMode)),
	)
	if serveErr := application.serverRunner(httpServer); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
		return fmt.Errorf("%s: %w", serverFailureMessage, serveErr)
	}
	return nil
}

func ensureServeConfiguration(configuration Configuration) error {
	var missingParameters []string

	if configuration.ApplicationAddress == "" {
		missingParameters = append(missingParameters, flagNameApplicationAddress)
	}

	if configuration.BundlePath == "" && configuration.UpstreamURL == "" && configuration.DatabaseDataSourceName == "" {
		missingParameters = append(missingParameters, flagNameDatabaseDSN)
	}

	return missingConfiguration(missingParameters)
}

func missingConfiguration(missingParameters []string) error {
	if len(missingParameters) == 0 {
		return nil
	}
	return fmt.Errorf("%s: %s", missingConfigurationMessage, strings.Join(missingParameters, ", "))
}

func main() {
	application := NewDashboardApplication()
	rootCommand, commandErr := application.Command()
	if commandErr != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", commandInitializationFailure, commandErr)
		os.Exit(1)
	}

	if executeErr := rootCommand.Execute(); executeErr != nil {
		os.Exit(1)
	}
}
