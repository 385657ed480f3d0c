// Command seed fills the database with a generated social mesh.
package main

import (
	"context"
	"flag"
	"log"

	"twitterclone/internal/bootstrap"
	"twitterclone/internal/config"
	"twitterclone/internal/database"
	"twitterclone/internal/seed"
)

func main() {
	presetName := flag.String("preset", "demo", "Built-in preset: tiny, demo or mesh")
	presetFile := flag.String("preset-file", "", "YAML file with extra presets")
	users := flag.Int("users", 0, "Override the preset's user count")
	posts := flag.Int("posts", -1, "Override the preset's post count")
	clean := flag.Bool("clean", true, "Delete existing social data before seeding")
	demo := flag.String("demo-user", "demo", "Handle of a fixed account created first; empty to skip")
	randSeed := flag.Int64("seed", 0, "Random seed; 0 picks one")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	bootstrap.InitLogging(cfg)

	preset, err := loadPreset(*presetName, *presetFile)
	if err != nil {
		log.Fatalf("Failed to load preset: %v", err)
	}
	if *users > 0 {
		preset.Users = *users
	}
	if *posts >= 0 {
		preset.Posts = *posts
	}

	ctx := context.Background()
	db, _, err := bootstrap.InitRuntime(ctx, cfg, bootstrap.Options{})
	if err != nil {
		log.Fatalf("Failed to init runtime: %v", err)
	}
	defer func() { _ = database.Close(db) }()

	opts := seed.Options{Preset: preset, Clean: *clean, RandSeed: *randSeed}
	if *demo != "" {
		opts.FixedUsers = []string{*demo}
	}
	sum, err := seed.Seed(ctx, db, opts)
	if err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}

	log.Printf("Seeded %d users, %d posts, %d retweets, %d comments, %d follows",
		sum.Users, sum.Posts, sum.Retweets, sum.Comments, sum.Follows)
	log.Printf("All seeded users have the password: %s", seed.DefaultPassword)
}

func loadPreset(name, file string) (seed.Preset, error) {
	if file == "" {
		return seed.PresetByName(name)
	}
	all, err := seed.LoadPresetFile(file)
	if err != nil {
		return seed.Preset{}, err
	}
	if p, ok := all[name]; ok {
		return p, nil
	}
	return seed.PresetByName(name)
}
