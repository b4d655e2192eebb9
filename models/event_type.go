package models

import "strings"

type EventType string

const (
	Cleanup          EventType = "Cleanup"
	Plantation       EventType = "Plantation"
	Donation         EventType = "Donation"
	Awareness        EventType = "Awareness"
	HealthCamp       EventType = "Health Camp"
	Education        EventType = "Education"
	CommunityMeeting EventType = "Community Meeting"
	SkillDevelopment EventType = "Skill Development"
	FoodDrive        EventType = "Food Drive"
	YouthEmpowerment EventType = "Youth Empowerment"
)

// AllTypes is the search sentinel that disables type filtering.
const AllTypes = "All"

// EventTypes is the fixed catalog, in the order the UI lists it.
var EventTypes = []EventType{
	Cleanup,
	Plantation,
	Donation,
	Awareness,
	HealthCamp,
	Education,
	CommunityMeeting,
	SkillDevelopment,
	FoodDrive,
	YouthEmpowerment,
}

// volunteering is the subset of the catalog that gets a digital pass.
var volunteering = map[EventType]bool{
	Cleanup:          true,
	Plantation:       true,
	Donation:         true,
	Awareness:        true,
	HealthCamp:       true,
	SkillDevelopment: true,
	FoodDrive:        true,
	YouthEmpowerment: true,
}

func (t EventType) Valid() bool {
	for _, known := range EventTypes {
		if t == known {
			return true
		}
	}
	return false
}

// IsVolunteering reports whether participants of this type receive a pass.
func (t EventType) IsVolunteering() bool {
	return volunteering[t]
}

// IsAllTypes reports whether a type filter value means "no filter".
func IsAllTypes(s string) bool {
	s = strings.TrimSpace(s)
	return s == "" || strings.EqualFold(s, AllTypes)
}
