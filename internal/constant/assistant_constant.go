package constant

const (
	ChatMessageRoleUser      = "user"
	ChatMessageRoleAssistant = "assistant"
	ChatMessageRoleSystem    = "system"

	// SessionKeyPrefix is the Redis key namespace for the fast session tier.
	// Full key: byteme:session:{user_id}:{session_id}
	SessionKeyPrefix = "byteme:session"

	// UnverifiedNoteSuffix is appended to an answer that exhausted its
	// reflection attempts without passing verification.
	UnverifiedNoteSuffix = "\n\n⚠️ Note: This response may not be fully verified against the available sources."

	// GeneratorUnavailableReply is the deterministic message returned when no
	// generation backend can produce an answer. It names the capability so
	// the failure is never silent.
	GeneratorUnavailableReply = "I apologize, but the answer generation service is currently unavailable. Please try again in a few minutes."

	// NoRelevantContextReply is used when retrieval and memory both come back
	// empty and generation still cannot produce a grounded answer.
	NoRelevantContextReply = "I apologize, but I couldn't find relevant information to answer your question. Could you rephrase it or provide more detail?"

	// NoSupportingDocuments is injected as the document context when grading
	// filters out every retrieved passage.
	NoSupportingDocuments = "No supporting documents were found for this query."
)

// Event types published to the enterprise bus.
const (
	EventTurnCompleted    = "TURN_COMPLETED"
	EventMemoryPromoted   = "MEMORY_PROMOTED"
	EventDocumentIngested = "DOCUMENT_INGESTED"
	EventUserLogin        = "USER_LOGIN"
	EventUserRegistered   = "USER_REGISTERED"
)

// IngestTopic is the watermill topic carrying document-uploaded messages from
// the API to the embedding consumer.
const IngestTopic = "document.ingest"
