package errors

// ErrorCode represents a unique error code for identifying different error types.
type ErrorCode int

const (
	// General errors (1-99)
	ErrCodeUnknown ErrorCode = 1

	// Validation errors (100-199)
	ErrCodeInvalidParameter     ErrorCode = 100
	ErrCodeInvalidConfiguration ErrorCode = 101
	ErrCodeInsufficientData     ErrorCode = 106
	ErrCodeInvalidType          ErrorCode = 107
	ErrCodeInvalidPeriod        ErrorCode = 108
	ErrCodeMissingParameter     ErrorCode = 109
	ErrCodeInvalidVersion       ErrorCode = 110
	ErrCodeInvalidMultiplier    ErrorCode = 111
	ErrCodeInvalidThreshold     ErrorCode = 112
	ErrCodeInvalidStdDevPeriod  ErrorCode = 113
	ErrCodeInvalidBar           ErrorCode = 120
	ErrCodeInvalidPolicy        ErrorCode = 121
	ErrCodeInvalidWeights       ErrorCode = 122

	// Data/Resource errors (200-299)
	ErrCodeDataNotFound          ErrorCode = 200
	ErrCodeDataSourceUnavailable ErrorCode = 201
	ErrCodeQueryFailed           ErrorCode = 202
	ErrCodeDownloadFailed        ErrorCode = 203
	ErrCodeNoDataFound           ErrorCode = 204
	ErrCodeWriteFailed           ErrorCode = 205
	ErrCodeUnsupportedProvider   ErrorCode = 206

	// Indicator errors (300-399)
	ErrCodeIndicatorNotFound      ErrorCode = 300
	ErrCodeIndicatorAlreadyExists ErrorCode = 301
	ErrCodeIndicatorCalculation   ErrorCode = 302

	// Strategy errors (400-499)
	ErrCodeStrategyNotLoaded         ErrorCode = 400
	ErrCodeStrategyConfigError       ErrorCode = 401
	ErrCodeStrategyRuntimeError      ErrorCode = 402
	ErrCodeUnsupportedStrategy       ErrorCode = 403
	ErrCodeVersionMismatch           ErrorCode = 404
	ErrCodeStrategyExecution         ErrorCode = 405
	ErrCodeUnknownStrategyType       ErrorCode = 406
	ErrCodeStrategyAlreadyRegistered ErrorCode = 407

	// Trading errors (500-599)
	ErrCodePositionNotFound ErrorCode = 501

	// Backtest errors (600-699)
	ErrCodeBacktestInitFailed   ErrorCode = 601
	ErrCodeBacktestConfigError  ErrorCode = 602
	ErrCodeBacktestNoStrategies ErrorCode = 604
	ErrCodeBacktestNoData       ErrorCode = 609
	ErrCodeBacktestCancelled    ErrorCode = 610

	// Callback errors (800-899)
	ErrCodeCallbackFailed ErrorCode = 800

	// Selection errors (900-999)
	ErrCodeSelectionImpossible ErrorCode = 900
)
