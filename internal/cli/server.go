package cli

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"geohis-quiz-service/internal/app"
	"geohis-quiz-service/internal/config"
	"geohis-quiz-service/internal/domain"
	"geohis-quiz-service/internal/infra/memory"
	pgloader "geohis-quiz-service/internal/infra/postgres"
	redisinfra "geohis-quiz-service/internal/infra/redis"
	transport "geohis-quiz-service/internal/transport/http"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the quiz server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
	}

	var loader memory.BankLoader = memory.NewStaticBankLoader(sampleBanks())
	if pool != nil {
		loader = pgloader.NewBankLoader(pool)
	}

	bankTTL := config.TTLDuration(cfg.Bank.TTL, 10*time.Minute)
	var banks app.BankRepository
	if redisClient != nil {
		banks = redisinfra.NewBankRepository(redisClient, loader, bankTTL)
	} else {
		banks = memory.NewBankRepository(loader, bankTTL)
	}

	var kv app.KeyValueStore
	if redisClient != nil {
		kv = redisinfra.NewStore(redisClient)
	} else {
		kv = memory.NewStore()
	}
	rankings := app.NewRankingStore(kv)

	wsHandler := transport.NewWSHandler(banks, rankings)
	rankingHandler := transport.NewRankingHandler(rankings)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/ws", wsHandler.ServeWS)
	mux.HandleFunc("/rankings", rankingHandler.ServeTopicRanking)
	mux.HandleFunc("/rankings/stats", rankingHandler.ServeTopicStats)
	mux.HandleFunc("/rankings/player", rankingHandler.ServePlayerBest)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("starting quiz service on :%s", finalPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("failed to start server: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Println("shutting down server...")
	case <-ctx.Done():
		log.Println("context canceled, shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// sampleBanks provides a demo bank so the server is playable without
// Postgres; production wiring loads banks from the question_banks table.
func sampleBanks() map[string]domain.Bank {
	return map[string]domain.Bank{
		"landforms": {
			TopicID: "landforms",
			Questions: []domain.Question{
				{
					ID: "lf-q1", Type: domain.MultipleChoice, Difficulty: domain.Easy,
					Prompt:        "What is a mountain range?",
					Options:       []string{"A group of large mountains", "A single low hill", "A flat elevated area", "A deep ocean trench"},
					CorrectOption: 0,
					Explanation:   "A mountain range is a chain of large mountains.",
				},
				{
					ID: "lf-q2", Type: domain.TrueFalse, Difficulty: domain.Easy,
					Prompt:      "A plateau is a flat, elevated landform.",
					Answer:      true,
					Explanation: "Plateaus are flat areas raised above the surrounding land.",
				},
				{
					ID: "lf-q3", Type: domain.FillBlanks, Difficulty: domain.Easy,
					Prompt:      "A piece of land completely surrounded by water is called an ______.",
					Blanks:      [][]string{{"island"}},
					Explanation: "A group of islands is called an archipelago.",
				},
				{
					ID: "lf-q4", Type: domain.MultipleChoice, Difficulty: domain.Easy,
					Prompt:        "Which is the largest ocean on Earth?",
					Options:       []string{"Atlantic", "Pacific", "Indian", "Arctic"},
					CorrectOption: 1,
					Explanation:   "The Pacific covers nearly a third of the planet's surface.",
				},
				{
					ID: "lf-q5", Type: domain.Matching, Difficulty: domain.Medium,
					Prompt: "Match each continent with its trait:",
					Pairs: []domain.Pair{
						{Left: "Asia", Right: "Largest continent"},
						{Left: "Oceania", Right: "Smallest continent"},
						{Left: "Europe", Right: "Second smallest continent"},
					},
					Explanation: "Asia holds about 30% of the emerged land; Oceania only 6%.",
				},
				{
					ID: "lf-q6", Type: domain.Classify, Difficulty: domain.Medium,
					Prompt:     "Classify these landforms by location:",
					Categories: []string{"Inland", "Coastal"},
					Items: []domain.ClassifyItem{
						{ID: 1, Text: "Mountain", Category: "Inland"},
						{ID: 2, Text: "Beach", Category: "Coastal"},
						{ID: 3, Text: "Valley", Category: "Inland"},
						{ID: 4, Text: "Cliff", Category: "Coastal"},
					},
					Explanation: "Cliffs and beaches form where the land meets the sea.",
				},
				{
					ID: "lf-q7", Type: domain.FillBlanks, Difficulty: domain.Medium,
					Prompt:      "A ______ is a group of islands.",
					Blanks:      [][]string{{"archipelago", "archipiélago"}},
					Explanation: "The Canary Islands form an archipelago.",
				},
				{
					ID: "lf-q8", Type: domain.TrueFalse, Difficulty: domain.Medium,
					Prompt:      "Erosion builds mountains up over time.",
					Answer:      false,
					Explanation: "Erosion wears relief down; tectonic forces build it up.",
				},
				{
					ID: "lf-q9", Type: domain.MultipleChoice, Difficulty: domain.Hard,
					Prompt:        "What lies between two areas of high relief worn down by a river?",
					Options:       []string{"A plateau", "A valley", "A cape", "A gulf"},
					CorrectOption: 1,
					Explanation:   "Valleys form between elevated areas, often carved by rivers.",
				},
				{
					ID: "lf-q10", Type: domain.FillBlanks, Difficulty: domain.Hard,
					Prompt:      "A high, flat inland region like central Iberia is called a ______.",
					Blanks:      [][]string{{"meseta", "plateau"}},
					Explanation: "The Meseta Central dominates the interior of the Iberian Peninsula.",
				},
			},
		},
	}
}
