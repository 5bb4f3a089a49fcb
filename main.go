package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/automaxprocs/maxprocs"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/cppla/streakholic/config"
	"github.com/cppla/streakholic/routes"
	"github.com/cppla/streakholic/services"
	"github.com/cppla/streakholic/store"
	"github.com/cppla/streakholic/utils"
)

const programName = "streakholic"

var globalFlags = struct {
	debug bool
}{}

func main() {
	rootCmd := &cobra.Command{
		Use:           programName,
		Short:         "LeetCode streak tracker with staked accountability groups",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serveRun(cmd.Context())
		},
	}
	rootCmd.PersistentFlags().BoolVarP(&globalFlags.debug, "debug", "D", false, "enable debug logging")
	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		cfg := config.Load()
		if globalFlags.debug {
			cfg.LogLevel = "debug"
			config.Set(cfg)
		}
		if err := utils.InitLogger(cfg); err != nil {
			return err
		}
		// Configure max processes with our logger, toss undo func
		if _, err := maxprocs.Set(maxprocs.Logger(utils.Sugar.Infof)); err != nil {
			return err
		}
		return nil
	}

	rootCmd.AddCommand(serveCommand(), reconcileCommand(), backfillCommand(), tokenCommand())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", programName, err)
		os.Exit(1)
	}
}

func serveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serveRun(cmd.Context())
		},
	}
}

func reconcileCommand() *cobra.Command {
	var userID uint
	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Reconcile today's streak for one user",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withServices(func(_ *gorm.DB, svc *services.Container, _ *time.Location) error {
				res := svc.Reconciler.Reconcile(cmd.Context(), userID)
				return printJSON(cmd, res)
			})
		},
	}
	cmd.Flags().UintVar(&userID, "user", 0, "user id")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

func backfillCommand() *cobra.Command {
	var userID uint
	cmd := &cobra.Command{
		Use:   "backfill",
		Short: "Rebuild one user's history from the submission calendar",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withServices(func(_ *gorm.DB, svc *services.Container, _ *time.Location) error {
				res := svc.History.Backfill(cmd.Context(), userID)
				return printJSON(cmd, res)
			})
		},
	}
	cmd.Flags().UintVar(&userID, "user", 0, "user id")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

func tokenCommand() *cobra.Command {
	var ttl time.Duration
	cmd := &cobra.Command{
		Use:   "token <user-id> [username]",
		Short: "Issue a bearer token for an identity",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseUint(args[0], 10, 64)
			if err != nil || id == 0 {
				return fmt.Errorf("invalid user id %q", args[0])
			}
			username := ""
			if len(args) == 2 {
				username = args[1]
			}
			tok, err := utils.GenerateToken(uint(id), username, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), tok)
			return nil
		},
	}
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "token lifetime")
	return cmd
}

func serveRun(ctx context.Context) error {
	cfg := config.Get()
	if cfg.JWTSecret == "" {
		return utils.ErrMissingSecret
	}
	return withServices(func(db *gorm.DB, svc *services.Container, loc *time.Location) error {
		r := routes.SetupRouter(db, svc, loc)
		utils.Logger.Info("starting server", zap.String("port", cfg.AppPort))
		return utils.GraceServer(ctx, ":"+cfg.AppPort, r, utils.Logger)
	})
}

// withServices opens the database and builds the service graph for one command.
func withServices(fn func(db *gorm.DB, svc *services.Container, loc *time.Location) error) error {
	cfg := config.Get()
	defer func() { _ = utils.Logger.Sync() }()

	loc, err := time.LoadLocation(cfg.StreakTimezone)
	if err != nil {
		return fmt.Errorf("invalid streak timezone %q: %w", cfg.StreakTimezone, err)
	}

	db, err := config.InitDatabase()
	if err != nil {
		return err
	}
	defer func() { _ = config.CloseDatabase() }()

	gateway := services.NewLeetCodeClient(
		cfg.LeetCodeAPIBase,
		time.Duration(cfg.GatewayTimeoutSec)*time.Second,
		services.WithCache(utils.NewRedisCache(utils.GetRedis()), time.Duration(cfg.GatewayCacheTTLSec)*time.Second),
		services.WithLocation(loc),
		services.WithGatewayLogger(utils.Logger.Named("gateway")),
	)
	svc := services.NewContainer(store.New(db), gateway, services.Options{
		InitialGrant: cfg.InitialGrantCoins,
		Location:     loc,
	}, utils.Logger)
	return fn(db, svc, loc)
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
