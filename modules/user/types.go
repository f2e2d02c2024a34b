package user

import "github.com/brianhang/ChatApp/domain/chat"

// Service names registered by the user module.
const (
	ServiceRegisterUser   = "register-user"
	ServiceUnregisterUser = "unregister-user"
	ServiceSetNickname    = "set-nickname"
	ServiceGetNickname    = "get-nickname"
	ServiceListUsers      = "list-users"
)

// RegisterUserRequest records a newly connected user.
type RegisterUserRequest struct {
	UserID   string `json:"user_id"`
	Nickname string `json:"nickname"`
}

// RegisterUserResponse returns the user entry as registered, including any
// nickname fallback that was applied.
type RegisterUserResponse struct {
	User chat.UserData `json:"user"`
}

// UnregisterUserRequest removes a disconnected user.
type UnregisterUserRequest struct {
	UserID string `json:"user_id"`
}

// UnregisterUserResponse reports whether the user was registered.
type UnregisterUserResponse struct {
	Removed bool `json:"removed"`
}

// SetNicknameRequest changes a connected user's nickname.
type SetNicknameRequest struct {
	UserID   string `json:"user_id"`
	Nickname string `json:"nickname"`
}

// SetNicknameResponse reports the outcome; Nickname holds the stored
// (trimmed) value on success.
type SetNicknameResponse struct {
	OK       bool   `json:"ok"`
	Message  string `json:"message,omitempty"`
	Nickname string `json:"nickname,omitempty"`
}

// GetNicknameRequest looks up a user's nickname.
type GetNicknameRequest struct {
	UserID string `json:"user_id"`
}

// GetNicknameResponse returns the nickname when the user is connected.
type GetNicknameResponse struct {
	Found    bool   `json:"found"`
	Nickname string `json:"nickname,omitempty"`
}

// ListUsersRequest asks for every connected user.
type ListUsersRequest struct{}

// ListUsersResponse returns the user directory.
type ListUsersResponse struct {
	Users []chat.UserData `json:"users"`
}
