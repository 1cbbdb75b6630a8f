package exam

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type Type string

const (
	TypeLab      Type = "LAB"
	TypeImaging  Type = "IMAGING"
	TypeClinical Type = "CLINICAL"
)

// DefaultCleaningInterval is what the store applies when an exam is
// created without one.
const DefaultCleaningInterval = 15

func (t Type) Valid() bool {
	switch t {
	case TypeLab, TypeImaging, TypeClinical:
		return true
	}
	return false
}

// Details holds the fields that only apply to one exam type. The set of
// implementations is closed: LabDetails, ImagingDetails, ClinicalDetails.
type Details interface {
	Type() Type
	isDetails()
}

type LabDetails struct {
	CollectionMinutes   *int    `json:"collection_minutes,omitempty" validate:"omitempty,gte=0"`
	DietaryRestrictions *string `json:"dietary_restrictions,omitempty"`
}

type ImagingDetails struct {
	Technology  *string `json:"technology,omitempty" validate:"omitempty,max=100"`
	SpecialPrep *string `json:"special_prep,omitempty"`
}

type ClinicalDetails struct {
	AvgConsultMinutes *int    `json:"avg_consult_minutes,omitempty" validate:"omitempty,gte=0"`
	Specialty         *string `json:"specialty,omitempty" validate:"omitempty,max=100"`
}

func (LabDetails) Type() Type      { return TypeLab }
func (ImagingDetails) Type() Type  { return TypeImaging }
func (ClinicalDetails) Type() Type { return TypeClinical }

func (LabDetails) isDetails()      {}
func (ImagingDetails) isDetails()  {}
func (ClinicalDetails) isDetails() {}

// EmptyDetails returns the zero details value for t.
func EmptyDetails(t Type) (Details, error) {
	switch t {
	case TypeLab:
		return LabDetails{}, nil
	case TypeImaging:
		return ImagingDetails{}, nil
	case TypeClinical:
		return ClinicalDetails{}, nil
	}
	return nil, fmt.Errorf("invalid exam type: %q", t)
}

type Exam struct {
	ID                      uuid.UUID `json:"id"`
	Name                    string    `json:"name" validate:"required,max=150"`
	Description             *string   `json:"description,omitempty"`
	Requirements            *string   `json:"requirements,omitempty"`
	EstimatedMinutes        int       `json:"estimated_minutes" validate:"gt=0"`
	CleaningIntervalMinutes *int      `json:"cleaning_interval_minutes,omitempty" validate:"omitempty,gte=0"`
	Details                 Details   `json:"-"`
	CreatedAt               time.Time `json:"created_at"`
	UpdatedAt               time.Time `json:"updated_at"`
}

// Type is derived from the details variant.
func (e *Exam) Type() Type {
	if e.Details == nil {
		return ""
	}
	return e.Details.Type()
}

type examAlias Exam

type examJSON struct {
	*examAlias
	Type    Type            `json:"type"`
	Details json.RawMessage `json:"details,omitempty"`
}

func (e Exam) MarshalJSON() ([]byte, error) {
	out := examJSON{examAlias: (*examAlias)(&e), Type: e.Type()}
	if e.Details != nil {
		raw, err := json.Marshal(e.Details)
		if err != nil {
			return nil, err
		}
		out.Details = raw
	}
	return json.Marshal(out)
}

// UnmarshalJSON reads "type" and decodes "details" into the matching
// variant. Unknown detail keys are rejected.
func (e *Exam) UnmarshalJSON(data []byte) error {
	in := examJSON{examAlias: (*examAlias)(e)}
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	details, err := decodeDetails(in.Type, in.Details)
	if err != nil {
		return err
	}
	e.Details = details
	return nil
}

func decodeDetails(t Type, raw json.RawMessage) (Details, error) {
	if t == "" {
		if len(raw) > 0 && string(raw) != "null" {
			return nil, fmt.Errorf("details given without a type")
		}
		return nil, nil
	}
	switch t {
	case TypeLab:
		return decodeInto[LabDetails](raw)
	case TypeImaging:
		return decodeInto[ImagingDetails](raw)
	case TypeClinical:
		return decodeInto[ClinicalDetails](raw)
	}
	return nil, fmt.Errorf("invalid exam type: %q", t)
}

func decodeInto[T Details](raw json.RawMessage) (Details, error) {
	var d T
	if len(raw) == 0 || string(raw) == "null" {
		return d, nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&d); err != nil {
		return nil, fmt.Errorf("details: %w", err)
	}
	return d, nil
}
