package entity

import (
	"sort"
	"strings"
)

type LeadStatus string

const (
	StatusNew         LeadStatus = "new"
	StatusQualified   LeadStatus = "qualified"
	StatusContacted   LeadStatus = "contacted"
	StatusNegotiating LeadStatus = "negotiating"
	StatusConverted   LeadStatus = "converted"
	StatusLost        LeadStatus = "lost"
	StatusPaused      LeadStatus = "paused"
)

// AllLeadStatuses lists the vocabulary in pipeline order.
var AllLeadStatuses = []LeadStatus{
	StatusNew,
	StatusQualified,
	StatusContacted,
	StatusNegotiating,
	StatusConverted,
	StatusLost,
	StatusPaused,
}

// AllowedStatusTransitions maps a status to the statuses it may move to.
// Staying on the same status is always allowed and is not listed here.
var AllowedStatusTransitions = map[LeadStatus][]LeadStatus{
	StatusNew:         {StatusQualified, StatusContacted, StatusLost, StatusPaused},
	StatusQualified:   {StatusContacted, StatusNegotiating, StatusLost, StatusPaused},
	StatusContacted:   {StatusQualified, StatusNegotiating, StatusLost, StatusPaused},
	StatusNegotiating: {StatusConverted, StatusLost, StatusPaused},
	StatusConverted:   {},
	StatusLost:        {StatusNew},
	StatusPaused:      {StatusNew, StatusQualified, StatusContacted, StatusNegotiating, StatusLost},
}

// legacyStatuses covers the older assignment-flow vocabulary still found in stored rows.
var legacyStatuses = map[string]LeadStatus{
	"assigned":     StatusQualified,
	"under_review": StatusContacted,
	"in_progress":  StatusNegotiating,
	"completed":    StatusConverted,
	"archived":     StatusLost,
}

func (s LeadStatus) Valid() bool {
	_, ok := AllowedStatusTransitions[s]
	return ok
}

func (s LeadStatus) String() string {
	return string(s)
}

// IsStatusTransitionAllowed reports whether a lead in current may move to target.
func IsStatusTransitionAllowed(current, target LeadStatus) bool {
	if current == target {
		return true
	}
	for _, next := range AllowedStatusTransitions[current] {
		if next == target {
			return true
		}
	}
	return false
}

// NormalizeStatus maps any stored or requested status string onto the canonical
// vocabulary. Unknown values fall back to StatusNew.
func NormalizeStatus(raw string) LeadStatus {
	s := strings.ToLower(strings.TrimSpace(raw))
	if LeadStatus(s).Valid() {
		return LeadStatus(s)
	}
	if mapped, ok := legacyStatuses[s]; ok {
		return mapped
	}
	return StatusNew
}

// ParseStatus is the strict variant of NormalizeStatus used for requests.
func ParseStatus(raw string) (LeadStatus, bool) {
	s := strings.ToLower(strings.TrimSpace(raw))
	if LeadStatus(s).Valid() {
		return LeadStatus(s), true
	}
	if mapped, ok := legacyStatuses[s]; ok {
		return mapped, true
	}
	return "", false
}

type PipelineStage string

const (
	StageNew        PipelineStage = "new"
	StageInProgress PipelineStage = "in_progress"
	StageWon        PipelineStage = "won"
	StageLost       PipelineStage = "lost"
	StageOnHold     PipelineStage = "on_hold"
)

var AllPipelineStages = []PipelineStage{StageNew, StageInProgress, StageWon, StageLost, StageOnHold}

func PipelineStageFor(s LeadStatus) PipelineStage {
	switch s {
	case StatusQualified, StatusContacted, StatusNegotiating:
		return StageInProgress
	case StatusConverted:
		return StageWon
	case StatusLost:
		return StageLost
	case StatusPaused:
		return StageOnHold
	default:
		return StageNew
	}
}

// StatusesInStage is the inverse of PipelineStageFor.
func StatusesInStage(stage PipelineStage) []LeadStatus {
	var out []LeadStatus
	for _, s := range AllLeadStatuses {
		if PipelineStageFor(s) == stage {
			out = append(out, s)
		}
	}
	return out
}

// StatusAliases returns s followed by the legacy names that normalize to it, sorted.
func StatusAliases(s LeadStatus) []LeadStatus {
	var legacy []string
	for name, mapped := range legacyStatuses {
		if mapped == s {
			legacy = append(legacy, name)
		}
	}
	sort.Strings(legacy)

	out := []LeadStatus{s}
	for _, name := range legacy {
		out = append(out, LeadStatus(name))
	}
	return out
}
