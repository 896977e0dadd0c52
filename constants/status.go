package constants

// ProviderOutcome labels a single provider attempt in logs and metrics.
type ProviderOutcome string

const (
	OutcomeOK          ProviderOutcome = "ok"
	OutcomeUnavailable ProviderOutcome = "unavailable"
	OutcomeInvalid     ProviderOutcome = "invalid"
	OutcomeCanceled    ProviderOutcome = "canceled"
)
