package apperror

import "encoding/json"

// Details is the closed set of structured payloads an Error may carry.
// Consumers switch on the concrete type (or on Kind() over the wire).
type Details interface {
	Kind() string
	isDetails()
}

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// FieldErrors lists per-field validation messages.
type FieldErrors struct {
	Fields []FieldError `json:"fields"`
}

// CastDetails names a value that could not be converted to the storage type.
type CastDetails struct {
	Field string `json:"field"`
	Value string `json:"value"`
}

// DuplicateKeyDetails carries the colliding key reported by the store.
type DuplicateKeyDetails struct {
	Key string `json:"key"`
}

// ResourceDetails identifies a missing resource.
type ResourceDetails struct {
	Resource string `json:"resource"`
	ID       string `json:"id,omitempty"`
}

// MembershipDetails describes a rejected membership transition.
type MembershipDetails struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
}

// VersionDetails is returned when an optimistic version check fails.
type VersionDetails struct {
	Expected int64 `json:"expected"`
}

func (FieldErrors) Kind() string         { return "fields" }
func (CastDetails) Kind() string         { return "cast" }
func (DuplicateKeyDetails) Kind() string { return "duplicate_key" }
func (ResourceDetails) Kind() string     { return "resource" }
func (MembershipDetails) Kind() string   { return "membership" }
func (VersionDetails) Kind() string      { return "version" }

func (FieldErrors) isDetails()         {}
func (CastDetails) isDetails()         {}
func (DuplicateKeyDetails) isDetails() {}
func (ResourceDetails) isDetails()     {}
func (MembershipDetails) isDetails()   {}
func (VersionDetails) isDetails()      {}

// Body is the wire form of an Error.
type Body struct {
	Success bool            `json:"success"`
	Code    string          `json:"code"`
	Message string          `json:"message"`
	Details json.RawMessage `json:"details,omitempty"`
}

// MarshalJSON renders the error envelope with a "kind" tag on the details.
func (e *Error) MarshalJSON() ([]byte, error) {
	body := Body{Success: false, Code: e.Code, Message: e.Message}
	if e.Details != nil {
		raw, err := json.Marshal(e.Details)
		if err != nil {
			return nil, err
		}
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(raw, &fields); err != nil {
			return nil, err
		}
		kind, _ := json.Marshal(e.Details.Kind())
		fields["kind"] = kind
		if body.Details, err = json.Marshal(fields); err != nil {
			return nil, err
		}
	}
	return json.Marshal(body)
}
