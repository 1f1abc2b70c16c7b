package homefeed

import (
	"context"
	"log"
	"math/rand/v2"

	"github.com/sourcegraph/conc/pool"

	"finwatch/internal/models"
)

// heroPerLibrary bounds the recently-added fetch per library.
const heroPerLibrary = 10

// heroRotation fans out across the user's libraries, fetches each one's
// most recently added items, tags them with the library's display name,
// and returns the concatenation fully reshuffled for display rotation.
// Per-library failures are swallowed: the rotation is decorative, so a
// library that fails to respond contributes nothing rather than failing
// the aggregation.
func (s *Service) heroRotation(ctx context.Context, libraries []models.Library) []models.HeroItem {
	p := pool.NewWithResults[[]models.HeroItem]()
	for _, lib := range libraries {
		p.Go(func() []models.HeroItem {
			items, err := s.gw.Latest(ctx, lib.ID, heroPerLibrary, false)
			if err != nil {
				log.Printf("homefeed: latest for library %q: %v", lib.Name, err)
				return nil
			}
			tagged := make([]models.HeroItem, 0, len(items))
			for _, item := range items {
				tagged = append(tagged, models.HeroItem{Item: item, LibraryName: lib.Name})
			}
			return tagged
		})
	}

	var hero []models.HeroItem
	for _, batch := range p.Wait() {
		hero = append(hero, batch...)
	}
	rand.Shuffle(len(hero), func(a, b int) {
		hero[a], hero[b] = hero[b], hero[a]
	})
	return hero
}
