package game

import (
	"math/rand"

	"github.com/wfunc/spyarena/models"
)

// RoleAssigner deals one spy and a shared location from a seeded rng. It
// consumes nothing but the supplied rng stream, so identical seed and
// identical player/location ordering reproduce identical assignments.
type RoleAssigner struct {
	rng *rand.Rand
}

func NewRoleAssigner(rng *rand.Rand) *RoleAssigner {
	return &RoleAssigner{rng: rng}
}

// Assign picks the round's location and spy uniformly at random. Exactly
// one player becomes the spy; every civilian carries the chosen location;
// the spy's role never holds it.
func (a *RoleAssigner) Assign(players []string, locations []string) (map[string]models.Role, string, error) {
	if len(players) < 3 {
		return nil, "", ErrTooFewPlayers
	}
	if len(locations) == 0 {
		return nil, "", ErrNoLocations
	}

	// Location is drawn before the spy; reordering these draws would
	// change every seeded game on record.
	location := locations[a.rng.Intn(len(locations))]
	spy := players[a.rng.Intn(len(players))]

	roles := make(map[string]models.Role, len(players))
	for _, nickname := range players {
		if nickname == spy {
			roles[nickname] = models.Role{IsSpy: true}
		} else {
			roles[nickname] = models.Role{IsSpy: false, Location: location}
		}
	}
	return roles, location, nil
}
