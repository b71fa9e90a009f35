package model

import "time"

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Valid reports whether r is one of the known conversation roles.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleAssistant, RoleSystem:
		return true
	}
	return false
}

// ChatMode separates the document-grounded conversation of a workspace
// from the free-form one.
type ChatMode string

const (
	ModeContextual ChatMode = "contextual"
	ModePersonal   ChatMode = "personal"
)

func (m ChatMode) Valid() bool {
	return m == ModeContextual || m == ModePersonal
}

// Turn is a single conversation message as replayed to the model.
type Turn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// ChatResponse is a contextual answer. Citations is always present, empty
// when nothing in the sources supports the answer.
type ChatResponse struct {
	Answer    string   `json:"answer"`
	Citations []string `json:"citations"`
}

type PersonalChatResponse struct {
	Answer string `json:"answer"`
}

type User struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

type Workspace struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"-"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

type Document struct {
	ID          int64     `json:"id"`
	WorkspaceID int64     `json:"workspace_id"`
	Name        string    `json:"name"`
	FilePath    string    `json:"-"`
	MimeType    string    `json:"mime_type"`
	Content     string    `json:"content,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

type ChatMessage struct {
	ID          string    `json:"id"`
	WorkspaceID int64     `json:"workspace_id"`
	Role        Role      `json:"role"`
	Mode        ChatMode  `json:"mode"`
	Content     string    `json:"content"`
	Citations   []string  `json:"citations,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Turn strips the persistence fields.
func (m ChatMessage) Turn() Turn {
	return Turn{Role: m.Role, Content: m.Content}
}

type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type TokenResponse struct {
	AccessToken string `json:"access_token"`
}

type CreateWorkspaceRequest struct {
	Name string `json:"name"`
}

type SendMessageRequest struct {
	Text string `json:"text"`
}

type PersonalChatRequest struct {
	Messages []Turn `json:"messages"`
}

type ContextualChatRequest struct {
	Messages    []Turn  `json:"messages"`
	DocumentIDs []int64 `json:"documentIds"`
}
