package main

// Exit codes
const (
	ExitSuccess     = 0 // Success
	ExitError       = 1 // General error (invalid arguments, runtime failure)
	ExitConfigError = 2 // Configuration error (missing repository, owner, or config)
	ExitDataError   = 3 // Data error (malformed input, validation failure)
	ExitNotFound    = 4 // Requested work not found
	ExitInvariant   = 5 // Grouping produced an invalid partition (bug)

	// ORCID exit codes
	ExitORCIDAuthError = 6 // Missing or invalid ORCID token
	ExitORCIDAPIError  = 7 // API error (rate limit, network)
)
