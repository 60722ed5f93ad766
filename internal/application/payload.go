package application

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"
)

// restrictedFields may appear in stored documents but are never client writable.
var restrictedFields = map[string]struct{}{
	"id":        {},
	"creator":   {},
	"createdAt": {},
	"updatedAt": {},
	"isDeleted": {},
	"deletedAt": {},
}

var patchableFields = map[string]struct{}{
	"resourceId":  {},
	"title":       {},
	"description": {},
	"start":       {},
	"end":         {},
	"status":      {},
	"attendees":   {},
}

type attendeeDocument struct {
	UserID int64          `json:"userId"`
	Name   string         `json:"name"`
	Status AttendeeStatus `json:"status"`
}

type bookingDocument struct {
	ResourceID  int64              `json:"resourceId"`
	Title       string             `json:"title"`
	Description string             `json:"description"`
	Start       time.Time          `json:"start"`
	End         time.Time          `json:"end"`
	Attendees   []attendeeDocument `json:"attendees"`
}

type patchDocument struct {
	ResourceID  *int64              `json:"resourceId"`
	Title       *string             `json:"title"`
	Description *string             `json:"description"`
	Start       *time.Time          `json:"start"`
	End         *time.Time          `json:"end"`
	Status      *BookingStatus      `json:"status"`
	Attendees   *[]attendeeDocument `json:"attendees"`
}

// DecodeBookingInput parses a creation payload, rejecting unknown fields.
func DecodeBookingInput(data []byte) (BookingInput, error) {
	var doc bookingDocument
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&doc); err != nil {
		return BookingInput{}, decodeError(err)
	}

	return BookingInput{
		ResourceID:  doc.ResourceID,
		Title:       doc.Title,
		Description: doc.Description,
		Start:       doc.Start,
		End:         doc.End,
		Attendees:   attendeeInputs(doc.Attendees),
	}, nil
}

// DecodeBookingPatch parses an update payload. Unknown fields are rejected
// here; immutable fields are recorded on the patch for the validator.
func DecodeBookingPatch(data []byte) (BookingPatch, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return BookingPatch{}, newValidationError("body", "Request body must be a JSON object")
	}

	keys := make([]string, 0, len(raw))
	for key := range raw {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var patch BookingPatch
	vErr := &ValidationError{}
	for _, key := range keys {
		if _, ok := restrictedFields[key]; ok {
			patch.Restricted = append(patch.Restricted, key)
			continue
		}
		if _, ok := patchableFields[key]; !ok {
			vErr.addf(key, "Unknown field %s", key)
		}
	}
	if vErr.HasErrors() {
		return BookingPatch{}, vErr
	}

	var doc patchDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return BookingPatch{}, decodeError(err)
	}

	patch.ResourceID = doc.ResourceID
	patch.Title = doc.Title
	patch.Description = doc.Description
	patch.Start = doc.Start
	patch.End = doc.End
	patch.Status = doc.Status
	if doc.Attendees != nil {
		inputs := attendeeInputs(*doc.Attendees)
		patch.Attendees = &inputs
	}
	return patch, nil
}

func attendeeInputs(docs []attendeeDocument) []AttendeeInput {
	if len(docs) == 0 {
		return nil
	}
	out := make([]AttendeeInput, len(docs))
	for i, d := range docs {
		out[i] = AttendeeInput{UserID: d.UserID, Name: d.Name, Status: d.Status}
	}
	return out
}

func decodeError(err error) error {
	var typeErr *json.UnmarshalTypeError
	var timeErr *time.ParseError
	var syntaxErr *json.SyntaxError
	switch {
	case errors.As(err, &typeErr):
		return newValidationError(typeErr.Field, fmt.Sprintf("Invalid value for field %s", typeErr.Field))
	case errors.As(err, &timeErr):
		return newValidationError("time", "Invalid date format")
	case errors.As(err, &syntaxErr):
		return newValidationError("body", "Request body must be valid JSON")
	case errors.Is(err, io.EOF):
		return newValidationError("body", "Request body is required")
	}

	if field, ok := strings.CutPrefix(err.Error(), "json: unknown field "); ok {
		field = strings.Trim(field, `"`)
		return newValidationError(field, fmt.Sprintf("Unknown field %s", field))
	}
	return newValidationError("body", "Request body could not be decoded")
}
