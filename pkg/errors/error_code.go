package errors

// ErrorCode represents a unique error code for identifying different error types.
type ErrorCode int

const (
	// General errors (1-99)
	ErrCodeUnknown ErrorCode = 1

	// Validation errors (100-199)
	ErrCodeInvalidParameter     ErrorCode = 100
	ErrCodeInvalidConfiguration ErrorCode = 101
	ErrCodeInvalidOrder         ErrorCode = 102
	ErrCodeInsufficientData     ErrorCode = 103
	ErrCodeInvalidPeriod        ErrorCode = 104
	ErrCodeMissingParameter     ErrorCode = 105
	ErrCodeInvalidDateFormat    ErrorCode = 106
	ErrCodeInvalidSource        ErrorCode = 107

	// Data/Resource errors (200-299)
	ErrCodeDataNotFound          ErrorCode = 200
	ErrCodeDataSourceUnavailable ErrorCode = 201
	ErrCodeQueryFailed           ErrorCode = 202
	ErrCodeDataParseFailed       ErrorCode = 203
	ErrCodeDataWriteFailed       ErrorCode = 204
	ErrCodeMarkerNotAvailable    ErrorCode = 205
	ErrCodeEventLogFailed        ErrorCode = 206

	// Indicator errors (300-399)
	ErrCodeIndicatorNotFound      ErrorCode = 300
	ErrCodeIndicatorAlreadyExists ErrorCode = 301
	ErrCodeIndicatorCalculation   ErrorCode = 302

	// Strategy errors (400-499)
	ErrCodeStrategyNotLoaded       ErrorCode = 400
	ErrCodeStrategyConfigError     ErrorCode = 401
	ErrCodeStrategyRuntimeError    ErrorCode = 402
	ErrCodeUnsupportedStrategy     ErrorCode = 403
	ErrCodeStrategyAlreadyExists   ErrorCode = 404
	ErrCodeUnexpectedOrderStatus   ErrorCode = 405
	ErrCodeOptimisationUnsupported ErrorCode = 406

	// Trading errors (500-599)
	ErrCodeOrderFailed          ErrorCode = 500
	ErrCodePositionNotFound     ErrorCode = 501
	ErrCodeMarketDataMissing    ErrorCode = 502
	ErrCodeUnsupportedBroker    ErrorCode = 503
	ErrCodeFeedNotFound         ErrorCode = 504
	ErrCodeInsufficientBuyPower ErrorCode = 505

	// Backtest errors (600-699)
	ErrCodeBacktestStateNil      ErrorCode = 600
	ErrCodeBacktestInitFailed    ErrorCode = 601
	ErrCodeBacktestConfigError   ErrorCode = 602
	ErrCodeBacktestDataPathError ErrorCode = 603
	ErrCodeBacktestNoStrategies  ErrorCode = 604
	ErrCodeBacktestNoFeeds       ErrorCode = 605
	ErrCodeBacktestNoResultsDir  ErrorCode = 606
	ErrCodeBacktestNoDatasource  ErrorCode = 607
	ErrCodeBacktestEmptyRange    ErrorCode = 608

	// Config errors (700-799)
	ErrCodeConfigReadFailed   ErrorCode = 700
	ErrCodeConfigDecodeFailed ErrorCode = 701
	ErrCodeSchemaFailed       ErrorCode = 702

	// Callback errors (800-899)
	ErrCodeCallbackFailed ErrorCode = 800
)
