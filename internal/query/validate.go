package query

import (
	"context"
	"fmt"

	"github.com/wagnerlima/memory-cloud/archimodel/internal/models"
)

// Issue severities.
const (
	SeverityError   = "error"
	SeverityWarning = "warning"
)

// Issue codes reported by Validate.
const (
	CodeUnknownElementType      = "UNKNOWN_ELEMENT_TYPE"
	CodeInvalidElementTimeRange = "INVALID_ELEMENT_TIME_RANGE"
	CodeUnknownRelationshipType = "UNKNOWN_RELATIONSHIP_TYPE"
	CodeMissingRelEndpoint      = "MISSING_REL_ENDPOINT"
	CodeInvalidRelTimeRange     = "INVALID_REL_TIME_RANGE"
	CodeRelBeforeSource         = "REL_BEFORE_SOURCE"
	CodeRelBeforeTarget         = "REL_BEFORE_TARGET"
	CodeRelAfterSource          = "REL_AFTER_SOURCE"
	CodeRelAfterTarget          = "REL_AFTER_TARGET"
)

// Issue is one finding.
type Issue struct {
	Severity       string `json:"severity"`
	Code           string `json:"code"`
	Message        string `json:"message"`
	ElementID      string `json:"element_id,omitempty"`
	RelationshipID string `json:"relationship_id,omitempty"`
}

// Summary counts entities and findings.
type Summary struct {
	Elements      int `json:"elements"`
	Relationships int `json:"relationships"`
	Errors        int `json:"errors"`
	Warnings      int `json:"warnings"`
}

// Validation is the result of Validate. IsValid ignores warnings.
type Validation struct {
	ModelID   string  `json:"model_id"`
	ModelName string  `json:"model_name"`
	IsValid   bool    `json:"is_valid"`
	Summary   Summary `json:"summary"`
	Issues    []Issue `json:"issues"`
}

// Validate checks a model for uncatalogued types, dangling relationships and
// validity windows that contradict each other.
func (e *Engine) Validate(ctx context.Context, modelID string) (*Validation, error) {
	snap, err := e.r.LoadSnapshot(ctx, modelID)
	if err != nil {
		return nil, err
	}
	return e.validate(snap), nil
}

func (e *Engine) validate(snap *models.Snapshot) *Validation {
	v := &Validation{
		ModelID:   snap.Model.ID,
		ModelName: snap.Model.Name,
		Issues:    []Issue{},
	}
	elementIssue := func(code, id, msg string) {
		v.Issues = append(v.Issues, Issue{Severity: SeverityError, Code: code, ElementID: id, Message: msg})
	}
	relIssue := func(severity, code, id, msg string) {
		v.Issues = append(v.Issues, Issue{Severity: severity, Code: code, RelationshipID: id, Message: msg})
	}

	elements := indexElements(snap)
	for _, el := range snap.Elements {
		if _, ok := e.catalog.Element(el.TypeName); !ok {
			elementIssue(CodeUnknownElementType, el.ID, fmt.Sprintf("Element %q uses unknown type %q", el.ID, el.TypeName))
		}
		if el.ValidFrom != nil && el.ValidTo != nil && el.ValidFrom.After(*el.ValidTo) {
			elementIssue(CodeInvalidElementTimeRange, el.ID, fmt.Sprintf("Element %q has valid_from later than valid_to", el.ID))
		}
	}

	for _, r := range snap.Relationships {
		if _, ok := e.catalog.Relationship(r.TypeName); !ok {
			relIssue(SeverityError, CodeUnknownRelationshipType, r.ID,
				fmt.Sprintf("Relationship %q uses unknown type %q", r.ID, r.TypeName))
		}
		src, srcOK := elements[r.SourceElementID]
		tgt, tgtOK := elements[r.TargetElementID]
		if !srcOK || !tgtOK {
			relIssue(SeverityError, CodeMissingRelEndpoint, r.ID,
				fmt.Sprintf("Relationship %q references missing endpoint(s): source=%s, target=%s", r.ID, r.SourceElementID, r.TargetElementID))
		}
		if r.ValidFrom != nil && r.ValidTo != nil && r.ValidFrom.After(*r.ValidTo) {
			relIssue(SeverityError, CodeInvalidRelTimeRange, r.ID,
				fmt.Sprintf("Relationship %q has valid_from later than valid_to", r.ID))
		}
		if !srcOK || !tgtOK || r.ValidFrom == nil {
			continue
		}

		if src.ValidFrom != nil && r.ValidFrom.Before(*src.ValidFrom) {
			relIssue(SeverityWarning, CodeRelBeforeSource, r.ID,
				fmt.Sprintf("Relationship %q starts before source element validity", r.ID))
		}
		if tgt.ValidFrom != nil && r.ValidFrom.Before(*tgt.ValidFrom) {
			relIssue(SeverityWarning, CodeRelBeforeTarget, r.ID,
				fmt.Sprintf("Relationship %q starts before target element validity", r.ID))
		}
		if r.ValidTo != nil && src.ValidTo != nil && r.ValidTo.After(*src.ValidTo) {
			relIssue(SeverityWarning, CodeRelAfterSource, r.ID,
				fmt.Sprintf("Relationship %q ends after source element validity", r.ID))
		}
		if r.ValidTo != nil && tgt.ValidTo != nil && r.ValidTo.After(*tgt.ValidTo) {
			relIssue(SeverityWarning, CodeRelAfterTarget, r.ID,
				fmt.Sprintf("Relationship %q ends after target element validity", r.ID))
		}
	}

	for _, is := range v.Issues {
		if is.Severity == SeverityError {
			v.Summary.Errors++
		} else {
			v.Summary.Warnings++
		}
	}
	v.Summary.Elements = len(snap.Elements)
	v.Summary.Relationships = len(snap.Relationships)
	v.IsValid = v.Summary.Errors == 0
	return v
}
