package constant

const (
	ChatRoleUser      = "user"
	ChatRoleAssistant = "assistant"
	ChatRoleSystem    = "system"

	StepTypeUserMessage      = "user_message"
	StepTypeAssistantMessage = "assistant_message"

	// Single-tenant deployment: every thread is owned by this principal.
	DefaultPrincipal = "admin"

	// Metadata key carrying the in-memory conversation of a thread.
	MetadataKeyMessageHistory = "message_history"
)
