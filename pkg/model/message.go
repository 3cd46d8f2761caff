package model

// Role identifies the author of a message in a conversation
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// ToolCall is a request from the model to run a named tool. Arguments is a
// JSON object encoded as text, exactly as the provider returned it.
type ToolCall struct {
	ID        string
	Name      string
	Arguments string
}

// Message is a single turn of a conversation
type Message struct {
	Role    Role
	Content string

	// Set on assistant messages that request tool execution
	ToolCalls []ToolCall

	// Set on tool messages; links the observation to its ToolCall
	ToolCallID string
	ToolName   string
}

// NewSystemMessage creates a system instruction message
func NewSystemMessage(text string) Message {
	return Message{Role: RoleSystem, Content: text}
}

// NewUserMessage creates a user message
func NewUserMessage(text string) Message {
	return Message{Role: RoleUser, Content: text}
}

// NewAssistantMessage creates a plain textual assistant message
func NewAssistantMessage(text string) Message {
	return Message{Role: RoleAssistant, Content: text}
}

// NewToolMessage creates an observation message answering the given call
func NewToolMessage(call ToolCall, content string) Message {
	return Message{
		Role:       RoleTool,
		Content:    content,
		ToolCallID: call.ID,
		ToolName:   call.Name,
	}
}

// HasToolCalls reports whether the message asks for tool execution
func (m Message) HasToolCalls() bool {
	return len(m.ToolCalls) > 0
}

// ChatRequest is one round trip to a chat model
type ChatRequest struct {
	Messages []Message
	Tools    []*ToolSpec
}
