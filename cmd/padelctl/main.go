// Command padelctl plays the reward draws from a terminal and runs the
// admin chores that need direct store access.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/ArowuTest/padel-arena-backend/internal/animation"
	"github.com/ArowuTest/padel-arena-backend/internal/app"
	"github.com/ArowuTest/padel-arena-backend/internal/config"
	"github.com/ArowuTest/padel-arena-backend/internal/models"
	"github.com/ArowuTest/padel-arena-backend/internal/play"
	"github.com/ArowuTest/padel-arena-backend/internal/reveal"
	"github.com/ArowuTest/padel-arena-backend/pkg/drawclient"
	"github.com/urfave/cli/v2"
)

// revealTimeout bounds the wait between a committed draw and its reveal.
const revealTimeout = 30 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newApp().RunContext(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "padelctl:", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "padelctl",
		Usage: "play the padel reward draws and manage their catalog",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Value: ".", Usage: "directory holding .env and config.yaml"},
			&cli.StringFlag{Name: "base-url", EnvVars: []string{"CLIENT_BASEURL"}, Usage: "draw API base URL including /api/v1"},
			&cli.StringFlag{Name: "token", EnvVars: []string{"CLIENT_TOKEN"}, Usage: "participant access token"},
			&cli.BoolFlag{Name: "verbose", Aliases: []string{"v"}, Usage: "log at debug level"},
		},
		Commands: []*cli.Command{
			{
				Name:  "spin",
				Usage: "draw once and watch the animation",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "draw", Value: "wheel", Usage: "wheel or jackpot"},
				},
				Action: spinAction,
			},
			{
				Name:   "status",
				Usage:  "show eligibility for every draw and the loyalty summary",
				Action: statusAction,
			},
			{
				Name:  "login",
				Usage: "log in as admin and print the access token",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "email", Required: true},
					&cli.StringFlag{Name: "password", Required: true, EnvVars: []string{"ADMIN_PASSWORD"}},
				},
				Action: loginAction,
			},
			{
				Name:  "seed-admin",
				Usage: "create an admin account directly in the store",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "email", Required: true},
					&cli.StringFlag{Name: "password", Required: true, EnvVars: []string{"ADMIN_PASSWORD"}},
					&cli.StringFlag{Name: "first-name", Value: "Club"},
					&cli.StringFlag{Name: "last-name", Value: "Admin"},
				},
				Action: seedAdminAction,
			},
			{
				Name:      "import-prizes",
				Usage:     "import a prize catalog CSV directly into the store",
				ArgsUsage: "FILE",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "draw", Required: true, Usage: "wheel or jackpot"},
				},
				Action: importPrizesAction,
			},
		},
	}
}

type env struct {
	cfg    *config.Config
	logger *slog.Logger
}

func loadEnv(c *cli.Context) (*env, error) {
	cfg, err := config.LoadConfig(c.String("config"))
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if c.IsSet("base-url") {
		cfg.Client.BaseURL = c.String("base-url")
	}
	if c.IsSet("token") {
		cfg.Client.Token = c.String("token")
	}
	level := cfg.LogLevel
	if c.Bool("verbose") {
		level = "debug"
	}
	return &env{cfg: cfg, logger: config.NewLogger(level, os.Stderr)}, nil
}

func (e *env) client() *drawclient.Client {
	return drawclient.New(drawclient.Config{
		BaseURL: e.cfg.Client.BaseURL,
		Token:   e.cfg.Client.Token,
		Timeout: e.cfg.RequestTimeout(),
	})
}

func spinAction(c *cli.Context) error {
	e, err := loadEnv(c)
	if err != nil {
		return err
	}
	drawType, err := models.ParseDrawType(c.String("draw"))
	if err != nil {
		return err
	}

	out := c.App.Writer
	var prizes []*models.Prize
	done := make(chan struct{})
	failed := make(chan error, 1)

	session := play.NewSession(e.client(), play.Options{
		DrawType:       drawType,
		RequestTimeout: e.cfg.RequestTimeout(),
		Sink: animation.SinkFunc(func(f animation.Frame) {
			fmt.Fprint(out, "\r"+renderFrame(f, prizes))
		}),
		Presenter: reveal.PresenterFunc(func(prize *models.Prize) error {
			fmt.Fprint(out, "\n\n")
			err := reveal.NewTextPresenter(out).Show(prize)
			close(done)
			return err
		}),
		OnError: func(err error) {
			select {
			case failed <- err:
			default:
			}
		},
		Logger: e.logger,
	})
	defer session.Close()

	view, err := session.Open(c.Context)
	if err != nil {
		return err
	}
	if !view.Offered {
		return fmt.Errorf("the %s draw is switched off", drawType.Slug())
	}
	if !view.CanDraw {
		return fmt.Errorf("already drew the %s, come back in %d day(s)", drawType.Slug(), view.DaysRemaining)
	}
	prizes = view.Prizes

	outcome, err := session.Spin(c.Context)
	if err != nil {
		if outcome != nil {
			fmt.Fprintf(out, "\nYou won %s, but it cannot be shown: %v\n", outcome.PrizeName, err)
		}
		return err
	}
	e.logger.Debug("Draw committed", "requestId", outcome.RequestID, "prizeId", outcome.PrizeID.Hex())

	select {
	case <-done:
		fmt.Fprintf(out, "\nNext %s draw: %s\n", drawType.Slug(), outcome.NextEligibleAt.Local().Format(time.RFC1123))
		return nil
	case err := <-failed:
		return err
	case <-time.After(revealTimeout):
		return errors.New("timed out waiting for the reveal")
	case <-c.Context.Done():
		return c.Context.Err()
	}
}

func renderFrame(f animation.Frame, prizes []*models.Prize) string {
	if f.Kind == animation.FrameWheel {
		return fmt.Sprintf("wheel %6.1f°  %s", f.Rotation, f.State)
	}
	var b strings.Builder
	for i, idx := range f.Reels {
		glyph := "?"
		if idx >= 0 && idx < len(prizes) {
			glyph = prizes[idx].Glyph()
		}
		if i < len(f.Locked) && f.Locked[i] {
			fmt.Fprintf(&b, "[%s]", glyph)
		} else {
			fmt.Fprintf(&b, " %s ", glyph)
		}
	}
	return b.String()
}

func statusAction(c *cli.Context) error {
	e, err := loadEnv(c)
	if err != nil {
		return err
	}
	client := e.client()
	out := c.App.Writer

	for _, drawType := range models.DrawTypes {
		eligibility, err := client.CheckEligibility(c.Context, drawType)
		if err != nil {
			return fmt.Errorf("%s: %w", drawType.Slug(), err)
		}
		printEligibility(out, eligibility)
	}

	summary, err := client.Fidelity(c.Context)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "\nLevel %s, %d booking(s), %d XP\n", summary.Level, summary.TotalBookings, summary.TotalXP)
	if summary.HasDiscount {
		fmt.Fprintf(out, "%d%% discount unlocked\n", summary.DiscountPercentage)
	} else {
		fmt.Fprintf(out, "%d more booking(s) to unlock the discount\n", summary.BookingsUntilDiscount)
	}
	return nil
}

func printEligibility(w io.Writer, e *models.Eligibility) {
	switch {
	case !e.Enabled:
		fmt.Fprintf(w, "%-8s off\n", e.DrawType.Slug())
	case e.Eligible:
		fmt.Fprintf(w, "%-8s ready to draw\n", e.DrawType.Slug())
	case e.NextEligibleAt != nil:
		days := models.DaysUntilEligible(*e.NextEligibleAt, time.Now(), 0)
		fmt.Fprintf(w, "%-8s next draw in %d day(s), %s\n", e.DrawType.Slug(), days, e.NextEligibleAt.Local().Format(time.RFC1123))
	default:
		fmt.Fprintf(w, "%-8s not available\n", e.DrawType.Slug())
	}
}

func loginAction(c *cli.Context) error {
	e, err := loadEnv(c)
	if err != nil {
		return err
	}
	resp, err := e.client().Login(c.Context, c.String("email"), c.String("password"))
	if err != nil {
		return err
	}
	fmt.Fprintln(c.App.Writer, resp.Token)
	return nil
}

// withServices opens the configured store for the admin commands.
func withServices(c *cli.Context, fn func(e *env, svc *app.Services) error) error {
	e, err := loadEnv(c)
	if err != nil {
		return err
	}
	if err := e.cfg.Validate(); err != nil {
		return err
	}
	if e.cfg.Draw.StoreMode == config.StoreMemory {
		return errors.New("admin commands need a persistent store, set DRAW_STOREMODE=mongo")
	}
	stores, err := app.OpenStores(c.Context, e.cfg, e.logger)
	if err != nil {
		return err
	}
	defer stores.Close(context.Background())

	svc, err := app.NewServices(c.Context, e.cfg, stores, e.logger)
	if err != nil {
		return err
	}
	defer svc.Close()
	return fn(e, svc)
}

func seedAdminAction(c *cli.Context) error {
	return withServices(c, func(e *env, svc *app.Services) error {
		admin, err := svc.Auth.CreateAdmin(c.Context, c.String("email"), c.String("password"), c.String("first-name"), c.String("last-name"))
		if err != nil {
			return err
		}
		fmt.Fprintf(c.App.Writer, "created admin %s (%s)\n", admin.Email, admin.ID.Hex())
		return nil
	})
}

func importPrizesAction(c *cli.Context) error {
	if c.NArg() != 1 {
		return errors.New("expected exactly one CSV file")
	}
	drawType, err := models.ParseDrawType(c.String("draw"))
	if err != nil {
		return err
	}
	f, err := os.Open(c.Args().First())
	if err != nil {
		return err
	}
	defer f.Close()

	return withServices(c, func(e *env, svc *app.Services) error {
		result, err := svc.Prizes.ImportPrizes(c.Context, drawType, f)
		if err != nil {
			return err
		}
		fmt.Fprintf(c.App.Writer, "imported %d prize(s)\n", result.Imported)
		for _, rowErr := range result.Failed {
			fmt.Fprintf(c.App.Writer, "line %d: %s\n", rowErr.Line, rowErr.Err)
		}
		return nil
	})
}
