package skillcheck

import "fmt"

const (
	// Sides is the die used for every ability check.
	Sides = 20

	// BaselineAttribute is used for skills with no mapped attribute and for
	// attributes missing from the character sheet.
	BaselineAttribute = 10
)

// skillAttributes maps skill tags to the ability score they roll against.
var skillAttributes = map[string]string{
	"combat":    "strength",
	"survival":  "strength",
	"stealth":   "dexterity",
	"mechanics": "dexterity",
	"medicine":  "intelligence",
	"occult":    "intelligence",
	"diplomacy": "charisma",
}

// Result is the outcome of a single ability check.
type Result struct {
	Skill             string `json:"skill"`
	Success           bool   `json:"success"`
	Roll              int    `json:"roll"`
	Modifier          int    `json:"modifier"`
	Bonus             int    `json:"bonus"`
	Total             int    `json:"total"`
	DC                int    `json:"dc"`
	IsCriticalSuccess bool   `json:"is_critical_success"`
	IsCriticalFailure bool   `json:"is_critical_failure"`
}

func (r Result) String() string {
	outcome := "failure"
	if r.Success {
		outcome = "success"
	}
	switch {
	case r.IsCriticalSuccess:
		outcome = "critical success"
	case r.IsCriticalFailure:
		outcome = "critical failure"
	}
	return fmt.Sprintf("%s check: rolled %d %+d %+d = %d vs DC %d (%s)",
		r.Skill, r.Roll, r.Modifier, r.Bonus, r.Total, r.DC, outcome)
}

// AttributeFor returns the ability score name a skill rolls against, or
// "" when the skill uses the neutral baseline.
func AttributeFor(skill string) string {
	return skillAttributes[skill]
}

// Modifier returns floor((value - 10) / 2).
func Modifier(value int) int {
	d := value - BaselineAttribute
	if d < 0 {
		return -((-d + 1) / 2)
	}
	return d / 2
}

// Resolve computes a check from an already rolled d20. A natural 20 always
// succeeds and a natural 1 always fails, regardless of dc, modifier and bonus.
func Resolve(skill string, dc int, attributes map[string]int, bonus int, roll int) Result {
	value := BaselineAttribute
	if attr := AttributeFor(skill); attr != "" {
		if v, ok := attributes[attr]; ok {
			value = v
		}
	}
	mod := Modifier(value)
	total := roll + mod + bonus

	r := Result{
		Skill:    skill,
		Roll:     roll,
		Modifier: mod,
		Bonus:    bonus,
		Total:    total,
		DC:       dc,
		Success:  total >= dc,
	}
	switch roll {
	case Sides:
		r.Success = true
		r.IsCriticalSuccess = true
	case 1:
		r.Success = false
		r.IsCriticalFailure = true
	}
	return r
}

// Resolver performs checks with a d20 roller.
type Resolver struct {
	roller Roller
}

// NewResolver creates a resolver. A nil roller falls back to a randomly
// seeded one.
func NewResolver(roller Roller) *Resolver {
	if roller == nil {
		roller = NewDiceRoller(nil)
	}
	return &Resolver{roller: roller}
}

// PerformCheck rolls a d20 and resolves the check.
func (r *Resolver) PerformCheck(skill string, dc int, attributes map[string]int, bonus int) Result {
	return Resolve(skill, dc, attributes, bonus, r.roller.Roll(Sides))
}
