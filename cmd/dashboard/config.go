package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/MarkoPoloResearchLab/learner_dashboard/internal/storage"
)

const (
	flagNameApplicationAddress = "addr"
	flagNameServeMode          = "serve-mode"
	flagNameDatabaseDSN        = "db-dsn"
	flagNameBundlePath         = "bundle-path"
	flagNameUpstreamURL        = "upstream-url"
	flagNamePathPrefix         = "path-prefix"
	flagNameCSRFToken          = "csrf-token"
	flagNameCookieJar          = "cookie-jar"
	flagNameEmulateHTTP        = "emulate-http"
	flagNameUpstreamTimeout    = "upstream-timeout"
	flagNameShellsDirectory    = "shells-dir"
	flagNameFallbackBanner     = "fallback-banner"
	flagNameDefaultLearner     = "default-learner"
	flagNameAllowedOrigins     = "allowed-origins"
	flagNameSecureCookies      = "secure-cookies"
	flagNameForwardEvents      = "forward-events"

	flagUsageApplicationAddress = "address for the HTTP server to listen on"
	flagUsageServeMode          = "route groups to serve: monolith, web or api"
	flagUsageDatabaseDSN        = "SQLite data source holding imported bundles"
	flagUsageBundlePath         = "bundle JSON file; {learner} is replaced by the learner id"
	flagUsageUpstreamURL        = "base URL of the service bundles are fetched from"
	flagUsagePathPrefix         = "path prefix the dashboard is mounted under"
	flagUsageCSRFToken          = "static CSRF token for upstream requests"
	flagUsageCookieJar          = "file persisting upstream cookies"
	flagUsageEmulateHTTP        = "send PUT, PATCH and DELETE as POST with a method override header"
	flagUsageUpstreamTimeout    = "timeout for upstream requests"
	flagUsageShellsDirectory    = "directory with base.html and per-layout page shells"
	flagUsageFallbackBanner     = "image shown on program cards without a banner"
	flagUsageDefaultLearner     = "learner rendered when a request names none"
	flagUsageAllowedOrigins     = "origins allowed to call the API cross-origin"
	flagUsageSecureCookies      = "mark the CSRF cookie Secure"
	flagUsageForwardEvents      = "forward tracked events to the upstream service"

	environmentKeyApplicationAddress = "DASHBOARD_ADDR"
	environmentKeyServeMode          = "DASHBOARD_SERVE_MODE"
	environmentKeyDatabaseDSN        = "DASHBOARD_DB_DSN"
	environmentKeyBundlePath         = "DASHBOARD_BUNDLE_PATH"
	environmentKeyUpstreamURL        = "DASHBOARD_UPSTREAM_URL"
	environmentKeyPathPrefix         = "DASHBOARD_PATH_PREFIX"
	environmentKeyCSRFToken          = "DASHBOARD_CSRF_TOKEN"
	environmentKeyCookieJar          = "DASHBOARD_COOKIE_JAR"
	environmentKeyEmulateHTTP        = "DASHBOARD_EMULATE_HTTP"
	environmentKeyUpstreamTimeout    = "DASHBOARD_UPSTREAM_TIMEOUT"
	environmentKeyShellsDirectory    = "DASHBOARD_SHELLS_DIR"
	environmentKeyFallbackBanner     = "DASHBOARD_FALLBACK_BANNER"
	environmentKeyDefaultLearner     = "DASHBOARD_DEFAULT_LEARNER"
	environmentKeyAllowedOrigins     = "DASHBOARD_ALLOWED_ORIGINS"
	environmentKeySecureCookies      = "DASHBOARD_SECURE_COOKIES"
	environmentKeyForwardEvents      = "DASHBOARD_FORWARD_EVENTS"

	defaultApplicationAddress = ":8080"
	defaultUpstreamTimeout    = 15 * time.Second

	flagNotDefinedMessage         = "flag %s not defined"
	environmentConfigurationError = "failed to apply environment configuration"
	configurationDecodeError      = "failed to decode configuration"
)

// Configuration captures everything the dashboard commands read from flags
// and the environment.
type Configuration struct {
	ApplicationAddress     string        `mapstructure:"DASHBOARD_ADDR"`
	ServeMode              string        `mapstructure:"DASHBOARD_SERVE_MODE"`
	DatabaseDataSourceName string        `mapstructure:"DASHBOARD_DB_DSN"`
	BundlePath             string        `mapstructure:"DASHBOARD_BUNDLE_PATH"`
	UpstreamURL            string        `mapstructure:"DASHBOARD_UPSTREAM_URL"`
	PathPrefix             string        `mapstructure:"DASHBOARD_PATH_PREFIX"`
	CSRFToken              string        `mapstructure:"DASHBOARD_CSRF_TOKEN"`
	CookieJarPath          string        `mapstructure:"DASHBOARD_COOKIE_JAR"`
	EmulateHTTP            bool          `mapstructure:"DASHBOARD_EMULATE_HTTP"`
	UpstreamTimeout        time.Duration `mapstructure:"DASHBOARD_UPSTREAM_TIMEOUT"`
	ShellsDirectory        string        `mapstructure:"DASHBOARD_SHELLS_DIR"`
	FallbackBannerURL      string        `mapstructure:"DASHBOARD_FALLBACK_BANNER"`
	DefaultLearnerID       string        `mapstructure:"DASHBOARD_DEFAULT_LEARNER"`
	AllowedOrigins         []string      `mapstructure:"DASHBOARD_ALLOWED_ORIGINS"`
	SecureCookies          bool          `mapstructure:"DASHBOARD_SECURE_COOKIES"`
	ForwardEvents          bool          `mapstructure:"DASHBOARD_FORWARD_EVENTS"`
}

type flagBinding struct {
	environmentKey string
	flagName       string
}

// configureSharedFlags defines the source and rendering flags every
// subcommand understands.
func (application *DashboardApplication) configureSharedFlags(flagSet *pflag.FlagSet) error {
	loader := application.configurationLoader
	loader.SetDefault(environmentKeyDatabaseDSN, storage.DefaultDataSourceName)
	loader.SetDefault(environmentKeyBundlePath, "")
	loader.SetDefault(environmentKeyUpstreamURL, "")
	loader.SetDefault(environmentKeyPathPrefix, "")
	loader.SetDefault(environmentKeyCSRFToken, "")
	loader.SetDefault(environmentKeyCookieJar, "")
	loader.SetDefault(environmentKeyEmulateHTTP, false)
	loader.SetDefault(environmentKeyUpstreamTimeout, defaultUpstreamTimeout)
	loader.SetDefault(environmentKeyShellsDirectory, "")
	loader.SetDefault(environmentKeyFallbackBanner, "")
	loader.SetDefault(environmentKeyDefaultLearner, "")
	loader.AutomaticEnv()

	flagSet.String(flagNameDatabaseDSN, storage.DefaultDataSourceName, flagUsageDatabaseDSN)
	flagSet.String(flagNameBundlePath, "", flagUsageBundlePath)
	flagSet.String(flagNameUpstreamURL, "", flagUsageUpstreamURL)
	flagSet.String(flagNamePathPrefix, "", flagUsagePathPrefix)
	flagSet.String(flagNameCSRFToken, "", flagUsageCSRFToken)
	flagSet.String(flagNameCookieJar, "", flagUsageCookieJar)
	flagSet.Bool(flagNameEmulateHTTP, false, flagUsageEmulateHTTP)
	flagSet.Duration(flagNameUpstreamTimeout, defaultUpstreamTimeout, flagUsageUpstreamTimeout)
	flagSet.String(flagNameShellsDirectory, "", flagUsageShellsDirectory)
	flagSet.String(flagNameFallbackBanner, "", flagUsageFallbackBanner)
	flagSet.String(flagNameDefaultLearner, "", flagUsageDefaultLearner)

	return application.bindFlags(flagSet, []flagBinding{
		{environmentKey: environmentKeyDatabaseDSN, flagName: flagNameDatabaseDSN},
		{environmentKey: environmentKeyBundlePath, flagName: flagNameBundlePath},
		{environmentKey: environmentKeyUpstreamURL, flagName: flagNameUpstreamURL},
		{environmentKey: environmentKeyPathPrefix, flagName: flagNamePathPrefix},
		{environmentKey: environmentKeyCSRFToken, flagName: flagNameCSRFToken},
		{environmentKey: environmentKeyCookieJar, flagName: flagNameCookieJar},
		{environmentKey: environmentKeyEmulateHTTP, flagName: flagNameEmulateHTTP},
		{environmentKey: environmentKeyUpstreamTimeout, flagName: flagNameUpstreamTimeout},
		{environmentKey: environmentKeyShellsDirectory, flagName: flagNameShellsDirectory},
		{environmentKey: environmentKeyFallbackBanner, flagName: flagNameFallbackBanner},
		{environmentKey: environmentKeyDefaultLearner, flagName: flagNameDefaultLearner},
	})
}

// configureServeFlags defines the flags only the HTTP server reads.
func (application *DashboardApplication) configureServeFlags(flagSet *pflag.FlagSet) error {
	loader := application.configurationLoader
	loader.SetDefault(environmentKeyApplicationAddress, defaultApplicationAddress)
	loader.SetDefault(environmentKeyServeMode, string(ServeModeMonolith))
	loader.SetDefault(environmentKeyAllowedOrigins, []string{})
	loader.SetDefault(environmentKeySecureCookies, false)
	loader.SetDefault(environmentKeyForwardEvents, false)

	flagSet.String(flagNameApplicationAddress, defaultApplicationAddress, flagUsageApplicationAddress)
	flagSet.String(flagNameServeMode, string(ServeModeMonolith), flagUsageServeMode)
	flagSet.StringSlice(flagNameAllowedOrigins, nil, flagUsageAllowedOrigins)
	flagSet.Bool(flagNameSecureCookies, false, flagUsageSecureCookies)
	flagSet.Bool(flagNameForwardEvents, false, flagUsageForwardEvents)

	return application.bindFlags(flagSet, []flagBinding{
		{environmentKey: environmentKeyApplicationAddress, flagName: flagNameApplicationAddress},
		{environmentKey: environmentKeyServeMode, flagName: flagNameServeMode},
		{environmentKey: environmentKeyAllowedOrigins, flagName: flagNameAllowedOrigins},
		{environmentKey: environmentKeySecureCookies, flagName: flagNameSecureCookies},
		{environmentKey: environmentKeyForwardEvents, flagName: flagNameForwardEvents},
	})
}

func (application *DashboardApplication) bindFlags(flagSet *pflag.FlagSet, bindings []flagBinding) error {
	for _, binding := range bindings {
		if bindErr := application.bindFlag(flagSet, binding.environmentKey, binding.flagName); bindErr != nil {
			return bindErr
		}
		if environmentErr := application.applyEnvironmentConfiguration(flagSet, binding.environmentKey, binding.flagName); environmentErr != nil {
			return environmentErr
		}
	}
	return nil
}

func (application *DashboardApplication) bindFlag(flagSet *pflag.FlagSet, environmentKey string, flagName string) error {
	flag := flagSet.Lookup(flagName)
	if flag == nil {
		return fmt.Errorf(flagNotDefinedMessage, flagName)
	}

	if bindErr := application.configurationLoader.BindPFlag(environmentKey, flag); bindErr != nil {
		return bindErr
	}

	return nil
}

func (application *DashboardApplication) applyEnvironmentConfiguration(flagSet *pflag.FlagSet, environmentKey string, flagName string) error {
	environmentValue, environmentFound := os.LookupEnv(environmentKey)
	if !environmentFound {
		return nil
	}

	if setErr := flagSet.Set(flagName, environmentValue); setErr != nil {
		return fmt.Errorf("%s: %w", environmentConfigurationError, setErr)
	}

	return nil
}

func (application *DashboardApplication) loadConfiguration() (Configuration, error) {
	var configuration Configuration
	decodeErr := application.configurationLoader.Unmarshal(&configuration, viper.DecodeHook(
		mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
	))
	if decodeErr != nil {
		return Configuration{}, fmt.Errorf("%s: %w", configurationDecodeError, decodeErr)
	}

	configuration.ApplicationAddress = strings.TrimSpace(configuration.ApplicationAddress)
	configuration.DatabaseDataSourceName = strings.TrimSpace(configuration.DatabaseDataSourceName)
	configuration.BundlePath = strings.TrimSpace(configuration.BundlePath)
	configuration.UpstreamURL = strings.TrimSpace(configuration.UpstreamURL)
	configuration.DefaultLearnerID = strings.TrimSpace(configuration.DefaultLearnerID)
	configuration.FallbackBannerURL = strings.TrimSpace(configuration.FallbackBannerURL)

	allowedOrigins := make([]string, 0, len(configuration.AllowedOrigins))
	for _, origin := range configuration.AllowedOrigins {
		if trimmed := strings.TrimSpace(origin); trimmed != "" {
			allowedOrigins = append(allowedOrigins, trimmed)
		}
	}
	configuration.AllowedOrigins = allowedOrigins
	return configuration, nil
}
