package transport

import (
	"bytes"
	"encoding/json"

	"github.com/taskforge/backend/domain"
)

type RegisterRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
}

// TaskCreateRequest deliberately has no owner field; ownership comes from
// the authenticated caller only.
type TaskCreateRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Priority    string `json:"priority"`
	Category    string `json:"category"`
}

// TaskUpdateRequest is a partial update that distinguishes "field absent"
// from "field null". Absent fields stay nil and are left unchanged; a null
// title is rejected because title is not a nullable business field, while a
// null description or category clears the value.
type TaskUpdateRequest struct {
	Title       *string
	Description *string
	IsCompleted *bool
	Priority    *string
	Category    *string
}

func (r *TaskUpdateRequest) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	for key, value := range raw {
		null := isJSONNull(value)
		switch key {
		case "title":
			if null {
				return domain.NewValidationError("invalid task data", "title: must not be null")
			}
			if err := json.Unmarshal(value, &r.Title); err != nil {
				return err
			}
		case "description":
			if null {
				r.Description = strPtr("")
				continue
			}
			if err := json.Unmarshal(value, &r.Description); err != nil {
				return err
			}
		case "is_completed":
			if null {
				return domain.NewValidationError("invalid task data", "is_completed: must not be null")
			}
			if err := json.Unmarshal(value, &r.IsCompleted); err != nil {
				return err
			}
		case "priority":
			if null {
				return domain.NewValidationError("invalid task data", "priority: must not be null")
			}
			if err := json.Unmarshal(value, &r.Priority); err != nil {
				return err
			}
		case "category":
			if null {
				r.Category = strPtr("")
				continue
			}
			if err := json.Unmarshal(value, &r.Category); err != nil {
				return err
			}
		}
	}
	return nil
}

// CleanupRequest selects test users for deletion by id or by glob-style
// username pattern.
type CleanupRequest struct {
	UserIDs          []int64  `json:"user_ids"`
	UsernamePatterns []string `json:"username_patterns"`
}

func isJSONNull(value json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(value), []byte("null"))
}

func strPtr(s string) *string {
	return &s
}
