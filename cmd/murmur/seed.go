package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/murmuration-labs/murmur/internal/model"
	"github.com/murmuration-labs/murmur/internal/storage"
)

// seedDemoCorpus inserts a small agent population and post corpus when the
// database is empty, so a fresh checkout can run simulations immediately.
// Seeding is idempotent: both paths use ON CONFLICT DO NOTHING.
func seedDemoCorpus(ctx context.Context, db *storage.DB, logger *slog.Logger) error {
	n, err := db.CountAgents(ctx)
	if err != nil {
		return err
	}
	if n == 0 {
		if err := db.SeedAgents(ctx, demoAgents()); err != nil {
			return err
		}
		logger.Info("seeded demo agents", "count", len(demoAgents()))
	}

	n, err = db.CountPosts(ctx)
	if err != nil {
		return err
	}
	if n == 0 {
		if err := db.SeedPosts(ctx, demoPosts()); err != nil {
			return err
		}
		logger.Info("seeded demo posts", "count", len(demoPosts()))
	}
	return nil
}

func demoAgents() []model.Agent {
	personas := []struct {
		handle, name, persona string
	}{
		{"ada.dev", "Ada", "A systems programmer who posts about compilers and shares dry humor."},
		{"birdwatcher", "Ben", "An amateur ornithologist posting daily sightings and photos."},
		{"chef-clara", "Clara", "A pastry chef sharing recipes; comments enthusiastically on food posts."},
		{"dispatch", "Dee", "A local-news aggregator; likes breaking stories, rarely comments."},
		{"el-filosofo", "Elio", "A philosophy grad student who writes long, earnest replies."},
		{"fern.garden", "Fern", "A houseplant collector trading care tips and cuttings."},
		{"gigs-and-rigs", "Gus", "A touring sound engineer posting from the road."},
		{"hoops-hana", "Hana", "A basketball stats obsessive; follows anyone posting box scores."},
		{"inkwell", "Iris", "A fountain-pen reviewer with strong opinions on paper."},
		{"jetlagged", "Jo", "A long-haul pilot sharing window-seat photography."},
		{"koji-lab", "Ken", "A fermentation hobbyist documenting miso experiments."},
		{"lumen", "Lu", "A lighting designer who boosts other artists' work constantly."},
	}

	agents := make([]model.Agent, len(personas))
	for i, p := range personas {
		agents[i] = model.Agent{
			Handle:      p.handle,
			DisplayName: p.name,
			Persona:     p.persona,
		}
	}
	return agents
}

func demoPosts() []model.Post {
	texts := []struct {
		author, text string
		likes, comments int
	}{
		{"ada.dev", "Spent the weekend making the linker 4% faster. Worth it.", 41, 7},
		{"ada.dev", "Hot take: error messages are the real user interface.", 88, 23},
		{"birdwatcher", "First cedar waxwing of the season, right outside the kitchen window.", 19, 3},
		{"birdwatcher", "Reminder that crows recognize faces. Be polite.", 130, 18},
		{"chef-clara", "Laminated dough in a 30C kitchen. Pray for me.", 55, 12},
		{"chef-clara", "The secret to good madeleines is resting the batter overnight.", 34, 6},
		{"dispatch", "City council approves the riverfront path extension, construction starts in May.", 62, 31},
		{"dispatch", "Farmers market moving indoors for the winter starting Saturday.", 21, 4},
		{"el-filosofo", "Reading Ryle again. The ghost in the machine still haunts product design.", 15, 9},
		{"fern.garden", "My monstera put out a fenestrated leaf and I may frame it.", 73, 14},
		{"fern.garden", "PSA: most 'low light' plants are actually 'slow death' plants.", 210, 45},
		{"gigs-and-rigs", "Night 14 of the tour. The venue cat has opinions about the monitor mix.", 95, 16},
		{"hoops-hana", "Triple-double watch: that's three this month if you count preseason, which I do.", 28, 11},
		{"inkwell", "Reviewed a pen today that costs more than my rent. It skipped.", 167, 38},
		{"jetlagged", "Aurora over Greenland from FL380. No filter needed.", 340, 52},
		{"koji-lab", "Month three of the chickpea miso. Smells like progress.", 26, 8},
		{"lumen", "Lit a black-box show with exactly four instruments. Constraints breed ideas.", 48, 5},
		{"lumen", "Go see your friends' weird little shows. That's the post.", 122, 19},
	}

	base := time.Date(2026, 8, 20, 9, 0, 0, 0, time.UTC)
	posts := make([]model.Post, len(texts))
	for i, t := range texts {
		posts[i] = model.Post{
			URI:          fmt.Sprintf("at://demo/%s/post/%03d", t.author, i+1),
			AuthorHandle: t.author,
			Text:         t.text,
			LikeCount:    t.likes,
			CommentCount: t.comments,
			CreatedAt:    base.Add(time.Duration(i*7) * time.Hour),
		}
	}
	return posts
}
