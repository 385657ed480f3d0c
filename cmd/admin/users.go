package main

import (
	"encoding/json"
	"fmt"

	"twitterclone/internal/config"
	"twitterclone/internal/database"
	"twitterclone/internal/identity"
	"twitterclone/internal/middleware"
	"twitterclone/internal/models"
	"twitterclone/internal/repository"
	"twitterclone/internal/service"

	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

type adminEnv struct {
	cfg *config.Config
	db  *gorm.DB
}

func connect() (*adminEnv, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	middleware.Logger = middleware.NewLogger(cfg.Env, "warn")
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	return &adminEnv{cfg: cfg, db: db}, nil
}

func (e *adminEnv) close() {
	_ = database.Close(e.db)
}

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Inspect accounts",
}

var userShowCmd = &cobra.Command{
	Use:   "show <username>",
	Short: "Print a user's profile with follow counts",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := connect()
		if err != nil {
			return err
		}
		defer env.close()

		users := repository.NewUserRepository(env.db)
		user, err := users.GetByUsername(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if user == nil {
			return fmt.Errorf("no user with username %q", args[0])
		}
		graph := service.NewSocialGraph(repository.NewFollowRepository(env.db), service.NewProfileResolver(users), nil)
		counts, err := graph.Counts(cmd.Context(), user.ID)
		if err != nil {
			return err
		}
		out, err := json.MarshalIndent(models.UserProfile{
			User:           *user,
			FollowersCount: counts.Followers,
			FollowingCount: counts.Following,
		}, "", "  ")
		if err != nil {
			return err
		}
		cmd.Println(string(out))
		return nil
	},
}

var userTokenCmd = &cobra.Command{
	Use:   "token <username>",
	Short: "Issue a session token for a user, for API debugging",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := connect()
		if err != nil {
			return err
		}
		defer env.close()
		if env.cfg.IsProduction() {
			return fmt.Errorf("refusing to mint tokens in production")
		}

		users := repository.NewUserRepository(env.db)
		user, err := users.GetByUsername(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if user == nil {
			return fmt.Errorf("no user with username %q", args[0])
		}
		provider := identity.NewProvider(repository.NewCredentialRepository(env.db), users, env.cfg.JWTSecret, nil)
		sess, err := provider.IssueToken(user.ID, user.Username)
		if err != nil {
			return err
		}
		cmd.Println(sess.Token)
		return nil
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print row counts for the social tables",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		env, err := connect()
		if err != nil {
			return err
		}
		defer env.close()

		for _, t := range []struct {
			name  string
			model any
		}{
			{"users", &models.User{}},
			{"posts", &models.Post{}},
			{"comments", &models.Comment{}},
			{"post_likes", &models.PostLike{}},
			{"comment_likes", &models.CommentLike{}},
			{"follows", &models.Follow{}},
		} {
			var n int64
			if err := env.db.WithContext(cmd.Context()).Model(t.model).Count(&n).Error; err != nil {
				return fmt.Errorf("count %s: %w", t.name, err)
			}
			cmd.Printf("%-14s %d\n", t.name, n)
		}
		return nil
	},
}

func init() {
	userCmd.AddCommand(userShowCmd, userTokenCmd)
}
