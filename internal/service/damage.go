package service

import (
	"math"
	"math/rand"

	"github.com/muizather/pokemon/internal/game"
)

// DamageCalc computes the damage an attacker's move deals to a defender.
// It is a replaceable policy; the state machine only requires that status
// moves (power 0) deal 0.
type DamageCalc func(attacker, defender *game.Pokemon, move game.Move) int

// NewDamageCalc returns the default damage policy. The variance roll r is
// drawn uniformly from [0.85, 1.0] using rng.
func NewDamageCalc(rng *rand.Rand) DamageCalc {
	return func(attacker, defender *game.Pokemon, move game.Move) int {
		r := 0.85 + rng.Float64()*0.15
		return computeDamage(attacker.Stats.Attack, defender.Stats.Defense, move.Power, r)
	}
}

// computeDamage applies the damage formula:
//
//	base  = floor((attack/defense) * power / 8 + 2)
//	final = max(1, floor(base * r))
//
// Status moves always deal 0 and skip the floor-of-1 rule.
func computeDamage(attack, defense, power int, r float64) int {
	if power == 0 {
		return 0
	}
	if defense < 1 {
		defense = 1
	}
	base := math.Floor(float64(attack)/float64(defense)*float64(power)/8 + 2)
	dmg := int(math.Floor(base * r))
	if dmg < 1 {
		dmg = 1
	}
	return dmg
}
