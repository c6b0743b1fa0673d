// internal/app/system/limits/limits.go
package limits

// Request body size limits for the JSON endpoints.
// These limits help prevent memory exhaustion from oversized requests.
const (
	// MaxLoginBody is the maximum size of a login request.
	MaxLoginBody = 4 << 10 // 4 KB

	// MaxEventBody is the maximum size of a posted count event.
	MaxEventBody = 4 << 10 // 4 KB

	// MaxMutationBody is the maximum size of a task, attendance or evaluation
	// submission. Evaluation answers can carry free text.
	MaxMutationBody = 256 << 10 // 256 KB
)
