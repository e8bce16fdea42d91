package control

import (
	"errors"
	"fmt"

	"github.com/tabrail/tabrail/internal/tabs"
)

// TabID names a tab across the control boundary. It mirrors the arena
// handle, so an id whose generation has lapsed no longer resolves.
type TabID struct {
	Index      uint32 `json:"index"`
	Generation uint32 `json:"generation"`
}

func idFor(h tabs.Handle) TabID {
	return TabID{Index: h.Slot, Generation: h.Generation}
}

func (id TabID) handle() tabs.Handle {
	return tabs.Handle{Slot: id.Index, Generation: id.Generation}
}

// TabActivity reports terminal output recency for one tab. LastOutputMSAgo
// is nil until the tab produces its first output.
type TabActivity struct {
	HasUnseenOutput bool    `json:"has_unseen_output"`
	LastOutputMSAgo *uint64 `json:"last_output_ms_ago"`
}

// TabState is the full projection of one tab. Activity is nil for web tabs.
type TabState struct {
	TabID       TabID        `json:"tab_id"`
	GroupID     int          `json:"group_id"`
	Index       int          `json:"index"`
	IsActive    bool         `json:"is_active"`
	Title       string       `json:"title"`
	CustomTitle *string      `json:"custom_title"`
	ProgramName string       `json:"program_name"`
	Kind        tabs.Kind    `json:"kind"`
	URL         string       `json:"url,omitempty"`
	Activity    *TabActivity `json:"activity"`
}

// TabGroup mirrors one registry group. Name is the raw assigned name with no
// display fallback applied.
type TabGroup struct {
	ID   int        `json:"id"`
	Name *string    `json:"name"`
	Tabs []TabState `json:"tabs"`
}

// ListResponse is the ListTabs payload. InstanceID is minted once per
// adapter so clients can tell a restart from a reshuffle.
type ListResponse struct {
	InstanceID string     `json:"instance_id"`
	Groups     []TabGroup `json:"groups"`
}

// NewTabRequest describes a tab to open. An empty kind opens a terminal.
type NewTabRequest struct {
	Kind        string `json:"kind,omitempty"`
	Title       string `json:"title,omitempty"`
	ProgramName string `json:"program_name,omitempty"`
	URL         string `json:"url,omitempty"`
}

// SelectionType picks the variant of a TabSelection.
type SelectionType string

const (
	SelectActive   SelectionType = "active"
	SelectNext     SelectionType = "next"
	SelectPrevious SelectionType = "previous"
	SelectLast     SelectionType = "last"
	SelectByIndex  SelectionType = "by_index"
	SelectByID     SelectionType = "by_id"
)

// TabSelection names a tab relative to the current global order. Index is
// read only for by_index and TabID only for by_id.
type TabSelection struct {
	Type  SelectionType `json:"type"`
	Index int           `json:"index,omitempty"`
	TabID *TabID        `json:"tab_id,omitempty"`
}

// ErrorCode classifies adapter failures.
type ErrorCode string

const (
	CodeNotFound         ErrorCode = "not_found"
	CodeInvalidRequest   ErrorCode = "invalid_request"
	CodeUnsupported      ErrorCode = "unsupported"
	CodeAmbiguous        ErrorCode = "ambiguous"
	CodePermissionDenied ErrorCode = "permission_denied"
	CodeTimeout          ErrorCode = "timeout"
	CodeInternal         ErrorCode = "internal"
)

// Error is a coded adapter failure.
type Error struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func newError(code ErrorCode, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// CodeOf extracts the code from an adapter error chain. Foreign errors map
// to internal; nil maps to the empty code.
func CodeOf(err error) ErrorCode {
	if err == nil {
		return ""
	}
	var cerr *Error
	if errors.As(err, &cerr) {
		return cerr.Code
	}
	return CodeInternal
}
