package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"github.com/louisbranch/mocalendar/internal/calendar/app"
	"github.com/louisbranch/mocalendar/internal/calendar/domain"
	"github.com/louisbranch/mocalendar/internal/calendar/ics"
	"github.com/louisbranch/mocalendar/internal/calendar/storage/sqlite"
	"github.com/louisbranch/mocalendar/internal/calendar/telemetry"
	"github.com/louisbranch/mocalendar/internal/platform/config"
	"github.com/louisbranch/mocalendar/internal/platform/icons"
	"github.com/louisbranch/mocalendar/internal/platform/otel"
)

const timeLayout = "2006-01-02T15:04"
const dateLayout = "2006-01-02"

type envConfig struct {
	DBPath string `env:"MOCALENDAR_DB_PATH" envDefault:"mocalendar.db"`
}

func main() {
	// Load .env file first, but don't error if it doesn't exist.
	_ = godotenv.Load()
	log.SetPrefix("[MOCALENDAR] ")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdown, err := otel.Setup(ctx, "mocalendar")
	if err != nil {
		config.Exitf("setup tracing: %v", err)
	}
	defer func() {
		if err := shutdown(context.Background()); err != nil {
			log.Printf("shutdown tracing: %v", err)
		}
	}()

	cliApp := &cli.App{
		Name:  "mocalendar",
		Usage: "Manage a local calendar of events and assignments.",
		Commands: []*cli.Command{
			addCommand(),
			listCommand(),
			showCommand(),
			watchCommand(),
			removeCommand(),
			exportCommand(),
			iconsCommand(),
		},
	}

	if err := cliApp.RunContext(ctx, os.Args); err != nil {
		config.Exitf("%v", err)
	}
}

// openService builds the reactive service over the configured database.
// The returned closer drains pending writes and releases the store.
func openService(c *cli.Context) (*app.Service, func(), error) {
	var cfg envConfig
	if err := config.ParseEnv(&cfg); err != nil {
		return nil, nil, err
	}
	if path := c.String("db"); path != "" {
		cfg.DBPath = path
	}
	if dir := filepath.Dir(cfg.DBPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	store, err := sqlite.Open(cfg.DBPath)
	if err != nil {
		return nil, nil, fmt.Errorf("open database: %w", err)
	}
	service, err := app.New(store, telemetry.NewEmitter(store))
	if err != nil {
		_ = store.Close()
		return nil, nil, err
	}
	closer := func() {
		service.Close()
		if err := store.Close(); err != nil {
			log.Printf("close database: %v", err)
		}
	}
	return service, closer, nil
}

func dbFlag() cli.Flag {
	return &cli.StringFlag{Name: "db", Usage: "Path to the calendar database file."}
}

// parseWhen accepts a full date-time or a bare date, interpreted as local
// wall-clock values.
func parseWhen(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if t, err := time.Parse(timeLayout, value); err == nil {
		return t, nil
	}
	if t, err := time.Parse(dateLayout, value); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("invalid time %q, want %s or %s", value, timeLayout, dateLayout)
}

func addCommand() *cli.Command {
	return &cli.Command{
		Name:  "add",
		Usage: "Create a new event.",
		Flags: []cli.Flag{
			dbFlag(),
			&cli.StringFlag{Name: "name", Usage: "Event name.", Required: true},
			&cli.StringFlag{Name: "description", Aliases: []string{"desc"}, Usage: "Event description."},
			&cli.StringFlag{Name: "type", Value: "event", Usage: "Event type: event, assignment, class or exam."},
			&cli.BoolFlag{Name: "assignment", Usage: "Shorthand for --type assignment."},
			&cli.StringFlag{Name: "start", Usage: "Start date-time (2006-01-02T15:04). Defaults to now."},
			&cli.StringFlag{Name: "end", Usage: "End time of day (15:04) or full date-time."},
		},
		Action: func(c *cli.Context) error {
			eventType, err := domain.ParseEventType(c.String("type"))
			if err != nil {
				return err
			}
			if c.Bool("assignment") {
				eventType = domain.TypeAssignment
			}

			start := time.Now()
			if raw := c.String("start"); raw != "" {
				start, err = parseWhen(raw)
				if err != nil {
					return err
				}
			}

			event := domain.NewEvent(start)
			if eventType == domain.TypeAssignment {
				event = domain.NewAssignment(start)
			}
			event = domain.ApplyType(event, eventType)
			event.Name = c.String("name")
			event.Description = c.String("description")

			if raw := c.String("end"); raw != "" {
				end, err := parseEndOfDay(raw, start)
				if err != nil {
					return err
				}
				event = domain.ApplyEndTime(event, end)
			}

			service, closer, err := openService(c)
			if err != nil {
				return err
			}
			defer closer()

			eventID, result := service.SubmitCreate(event)
			if err := <-result; err != nil {
				return fmt.Errorf("create event: %w", err)
			}
			fmt.Println(eventID)
			return nil
		},
	}
}

// parseEndOfDay accepts a bare time of day, anchored to the start date, or
// a full date-time.
func parseEndOfDay(value string, start time.Time) (time.Time, error) {
	value = strings.TrimSpace(value)
	if t, err := time.Parse("15:04", value); err == nil {
		return domain.MergeDateAndTime(start, t), nil
	}
	return parseWhen(value)
}

func listCommand() *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "List events, optionally scoped to a day or range.",
		Flags: []cli.Flag{
			dbFlag(),
			&cli.StringFlag{Name: "day", Usage: "List events on a single day (2006-01-02)."},
			&cli.StringFlag{Name: "from", Usage: "Range start (inclusive)."},
			&cli.StringFlag{Name: "to", Usage: "Range end (exclusive)."},
		},
		Action: func(c *cli.Context) error {
			service, closer, err := openService(c)
			if err != nil {
				return err
			}
			defer closer()

			events, err := resolveListing(c, service)
			if err != nil {
				return err
			}
			printEvents(events)
			return nil
		},
	}
}

func resolveListing(c *cli.Context, service *app.Service) ([]domain.Event, error) {
	switch {
	case c.String("day") != "":
		day, err := parseWhen(c.String("day"))
		if err != nil {
			return nil, err
		}
		return service.ListEventsOnDay(c.Context, day)
	case c.String("from") != "" || c.String("to") != "":
		if c.String("from") == "" || c.String("to") == "" {
			return nil, fmt.Errorf("both --from and --to are required for a range listing")
		}
		from, err := parseWhen(c.String("from"))
		if err != nil {
			return nil, err
		}
		to, err := parseWhen(c.String("to"))
		if err != nil {
			return nil, err
		}
		return service.ListEventsBetween(c.Context, from, to)
	default:
		return service.ListEvents(c.Context)
	}
}

func printEvents(events []domain.Event) {
	if len(events) == 0 {
		fmt.Println("no events")
		return
	}
	for _, event := range events {
		fmt.Println(formatEvent(event))
	}
}

func formatEvent(event domain.Event) string {
	span := event.StartTime.Format(timeLayout)
	if event.EndTime != nil {
		span += " .. " + event.EndTime.Format(timeLayout)
	}
	glyph := icons.GlyphOrDefault(event.Type.IconRef())
	return fmt.Sprintf("%s %s  %-10s  %s  %s", glyph, event.ID, event.Type, span, event.Name)
}

func showCommand() *cli.Command {
	return &cli.Command{
		Name:      "show",
		Usage:     "Show one event by id.",
		ArgsUsage: "<event-id>",
		Flags:     []cli.Flag{dbFlag()},
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return fmt.Errorf("expected exactly one event id")
			}
			service, closer, err := openService(c)
			if err != nil {
				return err
			}
			defer closer()

			event, err := service.GetEvent(c.Context, c.Args().First())
			if err != nil {
				return err
			}
			fmt.Printf("id:          %s\n", event.ID)
			fmt.Printf("name:        %s\n", event.Name)
			fmt.Printf("type:        %s\n", event.Type)
			fmt.Printf("start:       %s\n", event.StartTime.Format(timeLayout))
			if event.EndTime != nil {
				fmt.Printf("end:         %s\n", event.EndTime.Format(timeLayout))
			}
			if event.Description != "" {
				fmt.Printf("description: %s\n", event.Description)
			}
			return nil
		},
	}
}

func watchCommand() *cli.Command {
	return &cli.Command{
		Name:  "watch",
		Usage: "Print the live result of a query whenever the store changes.",
		Flags: []cli.Flag{
			dbFlag(),
			&cli.StringFlag{Name: "id", Usage: "Watch a single event by id."},
			&cli.StringFlag{Name: "day", Usage: "Watch events on a single day."},
		},
		Action: func(c *cli.Context) error {
			service, closer, err := openService(c)
			if err != nil {
				return err
			}
			defer closer()

			sub, err := openWatch(c, service)
			if err != nil {
				return err
			}
			defer service.Unsubscribe(sub)

			for {
				select {
				case events := <-sub.Updates():
					fmt.Printf("--- %s (%d events)\n", time.Now().Format(time.TimeOnly), len(events))
					printEvents(events)
				case <-c.Context.Done():
					return nil
				}
			}
		},
	}
}

func openWatch(c *cli.Context, service *app.Service) (*app.Subscription, error) {
	switch {
	case c.String("id") != "":
		return service.SubscribeByID(c.Context, c.String("id"))
	case c.String("day") != "":
		day, err := parseWhen(c.String("day"))
		if err != nil {
			return nil, err
		}
		return service.SubscribeByDay(c.Context, day)
	default:
		return service.SubscribeAll(c.Context)
	}
}

func removeCommand() *cli.Command {
	return &cli.Command{
		Name:      "remove",
		Usage:     "Delete one event by id.",
		ArgsUsage: "<event-id>",
		Flags:     []cli.Flag{dbFlag()},
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return fmt.Errorf("expected exactly one event id")
			}
			service, closer, err := openService(c)
			if err != nil {
				return err
			}
			defer closer()

			if err := <-service.SubmitDelete(c.Args().First()); err != nil {
				return fmt.Errorf("delete event: %w", err)
			}
			return nil
		},
	}
}

func iconsCommand() *cli.Command {
	return &cli.Command{
		Name:  "icons",
		Usage: "Print the icon catalog for the event categories.",
		Action: func(c *cli.Context) error {
			fmt.Print(icons.CatalogMarkdown())
			return nil
		},
	}
}

func exportCommand() *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "Export all events as an iCalendar document.",
		Flags: []cli.Flag{
			dbFlag(),
			&cli.StringFlag{Name: "out", Usage: "Output file. Defaults to stdout."},
		},
		Action: func(c *cli.Context) error {
			service, closer, err := openService(c)
			if err != nil {
				return err
			}
			defer closer()

			events, err := service.ListEvents(c.Context)
			if err != nil {
				return err
			}

			out := os.Stdout
			if path := c.String("out"); path != "" {
				file, err := os.Create(path)
				if err != nil {
					return fmt.Errorf("create output file: %w", err)
				}
				defer func() {
					if err := file.Close(); err != nil {
						log.Printf("close output file: %v", err)
					}
				}()
				out = file
			}
			return ics.Export(out, events)
		},
	}
}
