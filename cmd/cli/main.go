package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/dvloznov/finance-insights/internal/advisor"
	"github.com/dvloznov/finance-insights/internal/aggregator"
	"github.com/dvloznov/finance-insights/internal/config"
	"github.com/dvloznov/finance-insights/internal/domain"
	"github.com/dvloznov/finance-insights/internal/gateway"
	"github.com/dvloznov/finance-insights/internal/infra"
	"github.com/dvloznov/finance-insights/internal/insights"
	"github.com/dvloznov/finance-insights/internal/jobs"
	"github.com/dvloznov/finance-insights/internal/logger"
	"github.com/dvloznov/finance-insights/internal/projection"
	"github.com/dvloznov/finance-insights/internal/reportstore"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		printError(err.Error())
		os.Exit(1)
	}

	log, _ := logger.NewWithOptions(logger.Options{Level: cfg.LogLevel, Out: os.Stderr})

	switch os.Args[1] {
	case "insights":
		runInsights(cfg, log)
	case "project":
		runProject(cfg, log)
	case "chat":
		runChat(cfg, log)
	case "seed":
		runSeed(cfg, log)
	case "export":
		runExport(cfg, log)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Finance Insights CLI")
	fmt.Println("\nUsage:")
	fmt.Println("  cli <command> [options]")
	fmt.Println("\nCommands:")
	fmt.Println("  insights  Show insights for a user and period")
	fmt.Println("  project   Show the end-of-period projection")
	fmt.Println("  chat      Ask the assistant a question")
	fmt.Println("  seed      Load transactions and obligations from a JSON file")
	fmt.Println("  export    Write a report for a user and period")
	fmt.Println("  help      Show this help message")
	fmt.Println("\nThe store is selected by STORE_BACKEND (sqlite, bigquery, firestore).")
	fmt.Println("Run 'cli <command> -h' for more information on a command.")
}

// periodFlags registers the flags shared by the period-based commands.
type periodFlags struct {
	user *string
	from *string
	to   *string
}

func addPeriodFlags(fs *flag.FlagSet) periodFlags {
	return periodFlags{
		user: fs.String("user", "", "User ID (required)"),
		from: fs.String("from", "", "First day, YYYY-MM-DD (defaults to start of this month)"),
		to:   fs.String("to", "", "Last day, YYYY-MM-DD (defaults to end of this month)"),
	}
}

func (p periodFlags) parse(log zerolog.Logger) (string, domain.Period) {
	if *p.user == "" {
		log.Fatal().Msg("Error: --user is required")
	}
	period, err := domain.PeriodFromDates(*p.from, *p.to, time.Now())
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid period")
	}
	return *p.user, period
}

// openAdvisor opens the configured store and builds an advisor over it.
func openAdvisor(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*advisor.Advisor, func()) {
	backend, err := infra.Open(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Str("backend", cfg.StoreBackend).Msg("Failed to open store")
	}

	thresholds := insights.DefaultConfig()
	if cfg.InsightsConfig != "" {
		if thresholds, err = insights.LoadFromFile(cfg.InsightsConfig); err != nil {
			backend.Close()
			log.Fatal().Err(err).Msg("Failed to load insight thresholds")
		}
	}

	adv := advisor.New(aggregator.New(backend.Repository), insights.NewEngine(thresholds), projection.Calculator{})
	return adv, func() { backend.Close() }
}

func runInsights(cfg *config.Config, log zerolog.Logger) {
	fs := flag.NewFlagSet("insights", flag.ExitOnError)
	pf := addPeriodFlags(fs)
	fs.Parse(os.Args[2:])
	userID, period := pf.parse(log)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	adv, closeStore := openAdvisor(ctx, cfg, log)
	defer closeStore()

	res := adv.Insights(ctx, userID, period)
	if !res.OK {
		printError(res.Error)
		closeStore()
		os.Exit(1)
	}

	header(fmt.Sprintf("Insights de %s (%s a %s)", userID, res.Summary.Period.From, res.Summary.Period.To))
	fmt.Printf("Receitas: R$ %s   Despesas: R$ %s   Investimentos: R$ %s\n",
		res.Summary.TotalIncome, res.Summary.TotalExpenses, res.Summary.TotalInvestments)
	for i, in := range res.Insights {
		printInsight(i, in)
	}
	fmt.Println()
}

func runProject(cfg *config.Config, log zerolog.Logger) {
	fs := flag.NewFlagSet("project", flag.ExitOnError)
	pf := addPeriodFlags(fs)
	asJSON := fs.Bool("json", false, "Print the projection as JSON")
	fs.Parse(os.Args[2:])
	userID, period := pf.parse(log)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	adv, closeStore := openAdvisor(ctx, cfg, log)
	defer closeStore()

	res := adv.Project(ctx, userID, period)
	if !res.OK {
		printError(res.Error)
		closeStore()
		os.Exit(1)
	}

	if *asJSON {
		out, _ := json.Marshal(res.Projection)
		fmt.Println(string(out))
		return
	}

	header(fmt.Sprintf("Projeção de %s (%s a %s)", userID, period.From.Format(time.DateOnly), period.To.Format(time.DateOnly)))
	printProjection(*res.Projection)
}

func runChat(cfg *config.Config, log zerolog.Logger) {
	fs := flag.NewFlagSet("chat", flag.ExitOnError)
	userID := fs.String("user", "", "User ID (required)")
	message := fs.String("message", "", "Question to ask (reads lines from stdin when empty)")
	fs.Parse(os.Args[2:])

	if *userID == "" {
		log.Fatal().Msg("Error: --user is required")
	}

	ctx := logger.WithContext(context.Background(), log)

	completer, err := gateway.NewCompleter(ctx, cfg.Provider())
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create completion provider")
	}
	gw := gateway.New(completer, gateway.WithTimeout(cfg.LLMTimeout))

	if *message != "" {
		ask(ctx, gw, *userID, *message, nil)
		return
	}

	// Interactive session; history is kept for this process only.
	var history []domain.ChatMessage
	scanner := bufio.NewScanner(os.Stdin)
	fmt.Print("> ")
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			fmt.Print("> ")
			continue
		}
		if reply := ask(ctx, gw, *userID, line, history); reply != nil {
			history = append(history,
				domain.ChatMessage{Role: domain.RoleUser, Content: line, Timestamp: time.Now().UTC()},
				*reply,
			)
		}
		fmt.Print("> ")
	}
}

func ask(ctx context.Context, gw *gateway.Gateway, userID, prompt string, history []domain.ChatMessage) *domain.ChatMessage {
	res := gw.Answer(ctx, prompt, userID, history)
	if !res.OK {
		printError(res.Error)
		return nil
	}
	fmt.Println(res.Message.Content)
	faint.Printf("(%s)\n", res.Message.Metadata[gateway.MetaProvider])
	return res.Message
}

func runSeed(cfg *config.Config, log zerolog.Logger) {
	fs := flag.NewFlagSet("seed", flag.ExitOnError)
	filePath := fs.String("file", "", "Path to a JSON dataset (required)")
	fs.Parse(os.Args[2:])

	if *filePath == "" {
		log.Fatal().Msg("Usage: cli seed -file PATH")
	}

	f, err := os.Open(*filePath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open dataset")
	}
	ds, err := infra.ReadDataset(f)
	f.Close()
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid dataset")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	backend, err := infra.Open(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Str("backend", cfg.StoreBackend).Msg("Failed to open store")
	}
	defer backend.Close()

	if err := backend.Seed(ctx, ds); err != nil {
		backend.Close()
		log.Fatal().Err(err).Msg("Seed failed")
	}

	green.Printf("Loaded %d transactions, %d subscriptions and %d fixed costs into %s.\n",
		len(ds.Transactions), len(ds.Subscriptions), len(ds.FixedCosts), backend.Name)
}

func runExport(cfg *config.Config, log zerolog.Logger) {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	pf := addPeriodFlags(fs)
	bucket := fs.String("bucket", cfg.ReportsBucket, "GCS bucket to write to (or set REPORTS_BUCKET env); prints to stdout when empty")
	fs.Parse(os.Args[2:])
	userID, period := pf.parse(log)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	adv, closeStore := openAdvisor(ctx, cfg, log)
	defer closeStore()

	var objects reportstore.ObjectStore
	if *bucket == "" {
		objects = reportstore.NewMemoryStore("local")
	} else {
		gcs, err := reportstore.NewGCSStore(ctx, *bucket)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create report store")
		}
		defer gcs.Close()
		objects = gcs
	}

	job := &jobs.ExportReportJob{
		JobID:     uuid.NewString(),
		UserID:    userID,
		From:      period.From,
		To:        period.To,
		Status:    jobs.JobStatusRunning,
		CreatedAt: time.Now().UTC(),
	}
	if err := reportstore.NewExporter(adv, objects).Handle(ctx, job); err != nil {
		closeStore()
		log.Fatal().Err(err).Msg("Export failed")
	}

	if *bucket != "" {
		green.Printf("Report written to %s\n", job.ReportURI)
		return
	}
	data, err := objects.Fetch(ctx, job.ReportURI)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to read report")
	}
	fmt.Println(string(data))
}
