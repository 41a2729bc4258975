// Package skillcheck resolves d20 ability checks against a difficulty class.
package skillcheck

import (
	"github.com/jwebster45206/d20"
)

// Roller rolls a single die with the given number of sides, returning a
// value in [1, sides].
type Roller interface {
	Roll(sides int) int
}

// DiceRoller rolls through a d20.Roller, so a seeded roller replays the
// same checks.
type DiceRoller struct {
	dice *d20.Roller
}

// NewDiceRoller wraps dice. A nil roller is replaced by one seeded from
// the clock.
func NewDiceRoller(dice *d20.Roller) *DiceRoller {
	if dice == nil {
		dice = d20.NewRandomRoller()
	}
	return &DiceRoller{dice: dice}
}

func (r *DiceRoller) Roll(sides int) int {
	if sides < 1 {
		return 1
	}
	out, err := r.dice.Dice(1, uint(sides)).Roll()
	if err != nil || len(out.DiceRolls) == 0 {
		return 1
	}
	return out.DiceRolls[0]
}

// Fixed always rolls the same value.
type Fixed int

func (f Fixed) Roll(int) int { return int(f) }

// Sequence replays rolls in order, repeating the last one when exhausted.
type Sequence struct {
	Rolls []int
	next  int
}

func (s *Sequence) Roll(int) int {
	if len(s.Rolls) == 0 {
		return 1
	}
	if s.next >= len(s.Rolls) {
		return s.Rolls[len(s.Rolls)-1]
	}
	v := s.Rolls[s.next]
	s.next++
	return v
}
