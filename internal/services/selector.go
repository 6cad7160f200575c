package services

import (
	crand "crypto/rand"
	"math/rand/v2"
	"sync"

	"github.com/ArowuTest/padel-arena-backend/internal/models"
	"github.com/samber/lo"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Selector picks a prize with probability proportional to its weight.
type Selector struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewSelector creates a Selector. A nil src seeds ChaCha8 from crypto/rand.
func NewSelector(src rand.Source) *Selector {
	if src == nil {
		var seed [32]byte
		if _, err := crand.Read(seed[:]); err != nil {
			panic(err)
		}
		src = rand.NewChaCha8(seed)
	}
	return &Selector{rng: rand.New(src)}
}

// Pick walks the cumulative weights of candidates. Prizes with weight <= 0
// never win; an empty or all-zero set yields models.ErrNoPrizeAvailable.
func (s *Selector) Pick(candidates []*models.Prize) (*models.Prize, error) {
	total := lo.SumBy(candidates, func(p *models.Prize) int {
		return max(p.Weight, 0)
	})
	if total == 0 {
		return nil, models.ErrNoPrizeAvailable
	}

	s.mu.Lock()
	r := s.rng.IntN(total)
	s.mu.Unlock()

	for _, p := range candidates {
		if p.Weight <= 0 {
			continue
		}
		if r < p.Weight {
			return p, nil
		}
		r -= p.Weight
	}
	return nil, models.ErrNoPrizeAvailable
}

// Drawable filters prizes down to what may be drawn now: active, positive
// weight and, when stock is tracked, at least one unit available.
func Drawable(prizes []*models.Prize, inventories map[primitive.ObjectID]*models.PrizeInventory) []*models.Prize {
	return lo.Filter(prizes, func(p *models.Prize, _ int) bool {
		if !p.Active || p.Weight <= 0 {
			return false
		}
		if p.IsNoWin() {
			return true
		}
		inv, tracked := inventories[p.ID]
		return !tracked || inv.Available() > 0
	})
}
