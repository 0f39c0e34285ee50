package exitcode

const (
	Success          = 0
	UsageError       = 1
	ValidationError  = 2
	DBConnError      = 3
	NotFound         = 4
	InvalidOperation = 5
	ExportError      = 6
	InternalError    = 7
)
