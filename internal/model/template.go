package model

import "time"

type Intensity string

const (
	IntensityLight   Intensity = "light"
	IntensityNormal  Intensity = "normal"
	IntensityIntense Intensity = "intense"
)

// Template is a named bundle of habit definitions. Built-in templates have
// no owner; user templates have OwnerID set.
type Template struct {
	ID          string            `json:"id"`
	OwnerID     *int64            `json:"owner_id,omitempty"`
	Name        string            `json:"name"`
	Description string            `json:"description"`
	Category    string            `json:"category"`
	TargetGroup string            `json:"target_group"`
	Goal        string            `json:"goal"`
	Intensity   Intensity         `json:"intensity"`
	Habits      []HabitDefinition `json:"habits"`
	BuiltIn     bool              `json:"built_in"`
	CreatedAt   time.Time         `json:"created_at"`
}
