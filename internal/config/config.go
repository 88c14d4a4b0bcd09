package config

import (
	"io/fs"
	"time"
)

// -----------------------------------------------------------------------------
// Build Information
// -----------------------------------------------------------------------------

// Build variables are injected via -ldflags.
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// UserAgent identifies the HTTP client towards laget.se.
var UserAgent = "Go-Laget/" + Version

// -----------------------------------------------------------------------------
// Application Constants
// -----------------------------------------------------------------------------

const (
	AppName        = "Go Laget"
	AppID          = "com.github.tartampluch.go-laget"
	KeyringService = "com.github.tartampluch.go-laget"
	LogFileName    = "app.log"
	ConfigFileName = "config.yaml"
	ConfigDirName  = "go-laget"
)

// -----------------------------------------------------------------------------
// Exit Codes
// -----------------------------------------------------------------------------

const (
	ExitCodeSuccess = 0
	ExitCodeError   = 1
)

// -----------------------------------------------------------------------------
// System & File Permissions
// -----------------------------------------------------------------------------

const (
	// FilePermUserRW represents -rw------- (Read/Write for owner only).
	// Used for sensitive files like logs, config and the local event store.
	FilePermUserRW fs.FileMode = 0600

	// DirPermUserRWX represents drwx------ (Read/Write/Exec for owner only).
	// Used for creating secure cache and config directories.
	DirPermUserRWX fs.FileMode = 0700

	// ChannelBufferSize defines the standard buffer size for internal signaling channels.
	ChannelBufferSize = 1
)

// -----------------------------------------------------------------------------
// CLI Flags & Descriptions
// -----------------------------------------------------------------------------

const (
	FlagVersion         = "version"
	FlagDebug           = "debug"
	FlagConfig          = "config"
	FlagOutput          = "output"
	FlagOnce            = "once"
	FlagIncludePractice = "include-practice"
	FlagEmail           = "email"
	FlagPassword        = "password"

	FlagDescVersion         = "Show application version and exit"
	FlagDescDebug           = "Enable debug logging to stdout"
	FlagDescConfig          = "Path to the YAML configuration file"
	FlagDescOutput          = "Output path for the iCalendar file"
	FlagDescOnce            = "Run a single scrape/sync pass and exit (disables the scheduler)"
	FlagDescIncludePractice = "Include practice events (Träning) in the output"
	FlagDescEmail           = "laget.se email address"
	FlagDescPassword        = "laget.se password (prefer LAGET_PASSWORD or the OS keyring)"

	MsgVersionOutput = "%s version %s (%s/%s)\n"
)

// -----------------------------------------------------------------------------
// Environment Variables
// -----------------------------------------------------------------------------

const (
	EnvEmail    = "LAGET_EMAIL"
	EnvPassword = "LAGET_PASSWORD"
)

// -----------------------------------------------------------------------------
// Source Portal (laget.se)
// -----------------------------------------------------------------------------

const (
	PortalBaseURL  = "https://www.laget.se"
	PortalLoginURL = "/Common/Auth/Login"
	PortalModalURL = "/Common/Rsvp/ModalContent"

	// Login form field names.
	FormFieldCSRF      = "__RequestVerificationToken"
	FormFieldReferer   = "Referer"
	FormFieldEmail     = "Email"
	FormFieldPassword  = "Password"
	FormFieldKeepAlive = "KeepAlive"
	FormValueKeepAlive = "true"

	// Modal query parameters.
	ParamPK      = "pk"
	ParamChildID = "childId"
	ParamSite    = "site"

	// CSS selectors for the invitation modal.
	SelCSRFInput      = "input[name='__RequestVerificationToken']"
	SelRefererInput   = "input#Referer[name='Referer']"
	SelRsvpLink       = "a[href*='/Common/Rsvp/ModalContent']"
	SelInviteTitle    = "p.invitation__title"
	SelInviteSubTitle = "p.invitation__subTitle"
	SelInviteLabel    = "span.invitation__label--noWidth"
	SelInviteAddress  = "span.invitation__place__address"
	SelInviteComment  = "div.invitation__comment p"
	SelInviteAttendee = "ul.invitation__attendees li"
	SelMapLink        = "a[href*='google.com/maps']"

	// Label texts on the invitation modal (Swedish).
	LabelDate      = "Datum"
	LabelTime      = "Tid"
	LabelPlace     = "Plats"
	LabelDeadline  = "Anmälningsstopp"
	LabelGathering = "Samling"

	// PrefixRegistrationFor precedes the child name in the second subtitle.
	PrefixRegistrationFor = "Anmälning för "

	// TitlePractice is the portal title for practice events, excluded by default.
	TitlePractice = "Träning"
)

// -----------------------------------------------------------------------------
// Defaults & Business Logic
// -----------------------------------------------------------------------------

const (
	// TimezoneName is the civil timezone of the source portal. All resolved
	// instants are interpreted as wall-clock times in this zone.
	TimezoneName = "Europe/Stockholm"

	DefaultOutputFile  = "laget_registrations.ics"
	DefaultListenAddr  = "127.0.0.1:18080"
	DefaultRefreshCron = "" // empty = no scheduler, single pass

	// UID derivation: "laget-<pk>-<childId>@laget.se".
	UIDSource  = "laget"
	UIDDomain  = "laget.se"
	FormatUID  = "%s-%s-%s@%s"
	TitleJoin  = " - "
	LocJoin    = ", "
	SectionSep = "\n\n"

	// Description section labels (source portal locale).
	DescTeamLabel      = "Lag: "
	DescMapLabel       = "Karta: "
	FormatRosterHeader = "Anmälda (%d):"
	FormatRosterLine   = "%d. %s"

	// DefaultDuration is the fallback event length when no end time is given.
	DefaultDuration = 1 * time.Hour
)

// ReminderOffsets is the fixed reminder policy in seconds relative to the
// event start: one day before and two hours before. Not configurable.
var ReminderOffsets = []int{-86400, -7200}

// ReminderTriggers are the ISO-8601 durations matching ReminderOffsets,
// used verbatim as VALARM TRIGGER values.
var ReminderTriggers = []string{"-P1D", "-PT2H"}

// -----------------------------------------------------------------------------
// Backend Contract
// -----------------------------------------------------------------------------

const (
	// SearchWindow is the minimum lookup window backends must cover on each
	// side of "now" when locating an event by uid.
	SearchWindow = 365 * 24 * time.Hour

	BackendCalDAV     = "caldav"
	BackendLocalStore = "localstore"
)

// -----------------------------------------------------------------------------
// Standards: iCalendar
// -----------------------------------------------------------------------------

const (
	ICalVersion   = "2.0"
	ICalProdid    = "-//Laget.se Registration Calendar//SE"
	ICalCalName   = "Laget.se Anmälningar"
	ICalCalDesc   = "Registrations from laget.se"
	ICalMethod    = "PUBLISH"
	ICalScale     = "GREGORIAN"
	ICalComponent = "VALARM"
	ICalAction    = "DISPLAY"

	PropUID         = "UID"
	PropSummary     = "SUMMARY"
	PropDTStart     = "DTSTART"
	PropDTEnd       = "DTEND"
	PropDTStamp     = "DTSTAMP"
	PropLocation    = "LOCATION"
	PropAction      = "ACTION"
	PropDescription = "DESCRIPTION"
	PropTrigger     = "TRIGGER"
	PropVersion     = "VERSION"
	PropProdid      = "PRODID"
	PropXWRCalName  = "X-WR-CALNAME"
	PropXWRCalDesc  = "X-WR-CALDESC"
	PropCalScale    = "CALSCALE"
	PropMethod      = "METHOD"

	ExtICS = ".ics"
)

// -----------------------------------------------------------------------------
// Network & Timeouts
// -----------------------------------------------------------------------------

const (
	HTTPTimeout        = 30 * time.Second
	ShutdownTimeout    = 5 * time.Second
	ServerReadTimeout  = 10 * time.Second
	ServerWriteTimeout = 30 * time.Second
	ServerIdleTimeout  = 60 * time.Second
	RetryAfterSeconds  = "10"
	AllowedMethods     = "GET, HEAD"
	SchemeHTTP         = "http"
	SchemeHTTPS        = "https"
	RouteRoot          = "/"
	RouteMetrics       = "/metrics"
)

// -----------------------------------------------------------------------------
// HTTP Headers & MIME Types
// -----------------------------------------------------------------------------

const (
	HeaderContentType     = "Content-Type"
	HeaderCacheControl    = "Cache-Control"
	HeaderETag            = "ETag"
	HeaderLastModified    = "Last-Modified"
	HeaderRetryAfter      = "Retry-After"
	HeaderAllow           = "Allow"
	HeaderXContentType    = "X-Content-Type-Options"
	HeaderUserAgent       = "User-Agent"
	HeaderIfNoneMatch     = "If-None-Match"
	HeaderIfModifiedSince = "If-Modified-Since"

	MimeTextCalendar    = "text/calendar; charset=utf-8"
	MimeFormURLEncoded  = "application/x-www-form-urlencoded"
	MimeNoSniff         = "nosniff"
	CacheControlPrivate = "private, no-cache"

	// FormatETag expects a string argument.
	FormatETag = `"%s"`
)

// -----------------------------------------------------------------------------
// Error Messages (Technical/Logs)
// -----------------------------------------------------------------------------

const (
	ErrMissingSchedule   = "registration is missing date or time"
	ErrUnparseableSched  = "unable to resolve date/time fragments"
	ErrEmptyUID          = "event has an empty uid"
	ErrTimezoneLoad      = "failed to load civil timezone"
	ErrNotLoggedIn       = "not logged in to the portal"
	ErrLoginPage         = "failed to load login page"
	ErrLoginRejected     = "login rejected by the portal"
	ErrCSRFMissing       = "could not find CSRF token on login page"
	ErrModalFetch        = "failed to fetch registration details"
	ErrICalEncode        = "failed to encode iCalendar data"
	ErrICalWrite         = "failed to write iCalendar file"
	ErrAuthFailed        = "backend authentication failed"
	ErrCalendarNotFound  = "no calendar found on the CalDAV server"
	ErrStoreOpen         = "failed to open local event store"
	ErrStoreSchema       = "failed to apply event store schema"
	ErrConfigLoad        = "failed to load configuration"
	ErrCredsMissing      = "no portal credentials found (flag, env, config or keyring)"
	ErrServerStartup     = "server startup failed"
	ErrServerShutdown    = "server shutdown failed"
	ErrCacheDir          = "could not determine user cache dir"
	ErrConfigDir         = "could not determine user config dir"
	ErrCreateDir         = "could not create app directory"
	ErrLogFile           = "failed to open log file"
	ErrAppFailed         = "application failed unexpectedly"
	ErrWriteResp         = "failed to write response body"
	ErrNoRegistrations   = "no registrations found"
	ErrNoEvents          = "no events left after filtering and normalization"
	ErrSchedulerSpec     = "invalid refresh cron expression"
	ErrInvalidListenAddr = "invalid listen address"
)

// -----------------------------------------------------------------------------
// HTTP Server Responses
// -----------------------------------------------------------------------------

const (
	HTTPMsgInitializing = "Calendar initializing, please try again shortly."
	HTTPMsgMethodNotAll = "Method Not Allowed"
)

// -----------------------------------------------------------------------------
// Log Messages
// -----------------------------------------------------------------------------

const (
	MsgAppStarting    = "Starting application"
	MsgAppStop        = "Application stopped gracefully"
	MsgLoginStart     = "Logging in to laget.se"
	MsgLoginOK        = "Login successful"
	MsgLinksFound     = "Registration links found"
	MsgDetailFetched  = "Registration details fetched"
	MsgDetailFailed   = "Failed to fetch registration details"
	MsgPracticeSkip   = "Excluded practice events"
	MsgSkippedRecord  = "Skipping registration"
	MsgNormalized     = "Registrations normalized"
	MsgEventAdded     = "Event added"
	MsgEventUpdated   = "Event updated"
	MsgEventUnchanged = "Event unchanged"
	MsgEventFailed    = "Event operation failed"
	MsgSyncStarted    = "Synchronization started"
	MsgSyncFinished   = "Synchronization finished"
	MsgBackendSkipped = "Backend skipped after failed authentication"
	MsgICSWritten     = "Calendar file written"
	MsgServerListen   = "HTTP server listening"
	MsgServerStop     = "Shutting down HTTP server..."
	MsgFeedUpdated    = "Calendar feed updated"
	MsgSchedulerStart = "Scheduler started"
	MsgSchedulerStop  = "Scheduler stopping due to context cancellation"
	MsgPipelineRun    = "Pipeline run triggered"
	MsgKeyringMiss    = "Password not found in keyring"
	MsgLogWarning     = "Warning: %s at %s: %v\n"
)

// -----------------------------------------------------------------------------
// Structured Logging Keys (slog)
// -----------------------------------------------------------------------------

const (
	LogKeyComponent = "component"
	LogKeyError     = "error"
	LogKeyReason    = "reason"
	LogKeyURL       = "url"
	LogKeyStatus    = "status_code"
	LogKeyBackend   = "backend"
	LogKeyUID       = "uid"
	LogKeyTitle     = "title"
	LogKeyCount     = "count"
	LogKeyAdded     = "added"
	LogKeyUpdated   = "updated"
	LogKeyErrors    = "errors"
	LogKeySkipped   = "skipped"
	LogKeyExcluded  = "excluded"
	LogKeyFile      = "file"
	LogKeyAddr      = "addr"
	LogKeyCron      = "cron"
	LogKeySizeBytes = "size_bytes"
	LogKeyETag      = "etag"
	LogKeyDuration  = "duration_ms"
	LogKeyStats     = "stats"
	LogKeyUser      = "user"

	// Startup Info Keys
	LogKeyBuild   = "build"
	LogKeyApp     = "app"
	LogKeyVersion = "version"
	LogKeyGoVer   = "go_version"
	LogKeyEnv     = "env"
	LogKeyOS      = "os"
	LogKeyArch    = "arch"
	LogKeyPID     = "pid"
)

// -----------------------------------------------------------------------------
// Log Components
// -----------------------------------------------------------------------------

const (
	CompMain      = "main"
	CompScraper   = "scraper"
	CompEngine    = "engine"
	CompExport    = "export"
	CompServer    = "server"
	CompScheduler = "scheduler"
	CompCalDAV    = "caldav"
	CompStore     = "localstore"
	CompSettings  = "settings"
)
