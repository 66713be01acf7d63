package integration

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"math/rand"
	"strings"
	"testing"
	"time"

	"geohis-quiz-service/internal/app"
	"geohis-quiz-service/internal/domain"
	pgloader "geohis-quiz-service/internal/infra/postgres"
	pgmigrations "geohis-quiz-service/internal/infra/postgres/migrations"
	infraredis "geohis-quiz-service/internal/infra/redis"

	"github.com/jackc/pgx/v4/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/migrate"
)

func TestFullSessionEndToEnd(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	pgURL, pgCleanup := startPostgres(t, ctx)
	defer pgCleanup()
	redisURL, redisCleanup := startRedis(t, ctx)
	defer redisCleanup()

	seedBank(t, ctx, pgURL, sampleBank())

	pool, err := pgxpool.Connect(ctx, pgURL)
	if err != nil {
		t.Fatalf("connect pg: %v", err)
	}
	defer pool.Close()

	redisClient, err := redisClientFromURL(redisURL)
	if err != nil {
		t.Fatalf("redis client: %v", err)
	}
	banks := infraredis.NewBankRepository(redisClient, pgloader.NewBankLoader(pool), 5*time.Minute)
	rankings := app.NewRankingStore(infraredis.NewStore(redisClient))

	bank, err := banks.GetBank(ctx, "landforms")
	if err != nil {
		t.Fatalf("get bank: %v", err)
	}
	if len(bank.Questions) != 3 {
		t.Fatalf("expected 3 questions, got %d", len(bank.Questions))
	}
	// Second read should come from the Redis cache without error.
	if _, err := banks.GetBank(ctx, "landforms"); err != nil {
		t.Fatalf("cached get bank: %v", err)
	}

	session := app.NewSessionWithOptions(app.NewSampler(rand.New(rand.NewSource(1))), time.Now)
	if err := session.ConfigurePlayer("AB", "owl"); err != nil {
		t.Fatalf("configure: %v", err)
	}
	if err := session.StartGame(bank.Questions); err != nil {
		t.Fatalf("start: %v", err)
	}

	for session.State() == app.StatePlaying {
		question, _ := session.CurrentQuestion()
		if _, err := session.SubmitAnswer(correctAnswerFor(question)); err != nil {
			t.Fatalf("submit %s: %v", question.ID, err)
		}
		session.NextQuestion()
	}
	if session.State() != app.StateResults {
		t.Fatalf("expected RESULTS, got %s", session.State())
	}

	entry := rankings.SaveRanking(ctx, "landforms", session.Result())
	if entry == nil {
		t.Fatalf("expected saved entry")
	}
	if entry.Score != 100 || entry.Stars != 3 {
		t.Fatalf("unexpected entry %+v", entry)
	}
	if pos := rankings.GetRankPosition(ctx, "landforms", entry.ID); pos != 1 {
		t.Fatalf("expected rank 1, got %d", pos)
	}
	stored := rankings.GetTopicRanking(ctx, "landforms", 10)
	if len(stored) != 1 || stored[0].ID != entry.ID {
		t.Fatalf("unexpected leaderboard %+v", stored)
	}
}

func correctAnswerFor(q domain.Question) domain.AnswerPayload {
	switch q.Type {
	case domain.MultipleChoice:
		return domain.ChoiceAnswer{SelectedIndex: q.CorrectOption}
	case domain.TrueFalse:
		return domain.BoolAnswer{Selected: q.Answer}
	case domain.FillBlanks:
		inputs := make([]string, len(q.Blanks))
		for i, variants := range q.Blanks {
			inputs[i] = variants[0]
		}
		return domain.BlanksAnswer{Inputs: inputs}
	case domain.Matching:
		order := make([]int, len(q.Pairs))
		for i := range order {
			order[i] = i
		}
		return domain.MatchingAnswer{RightOrder: order}
	case domain.Classify:
		placements := make(map[int]string, len(q.Items))
		for _, item := range q.Items {
			placements[item.ID] = item.Category
		}
		return domain.ClassifyAnswer{Placements: placements}
	}
	return nil
}

func startPostgres(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "postgres:15-alpine",
		Env:          map[string]string{"POSTGRES_USER": "quiz", "POSTGRES_PASSWORD": "quizpass", "POSTGRES_DB": "quizdb"},
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor:   wait.ForListeningPort("5432/tcp").WithStartupTimeout(60 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start postgres: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatalf("port: %v", err)
	}
	url := fmt.Sprintf("postgres://quiz:quizpass@%s:%s/quizdb?sslmode=disable", host, port.Port())
	return url, func() {
		_ = container.Terminate(ctx)
	}
}

func startRedis(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForListeningPort("6379/tcp").WithStartupTimeout(60 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start redis: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("redis host: %v", err)
	}
	port, err := container.MappedPort(ctx, "6379/tcp")
	if err != nil {
		t.Fatalf("redis port: %v", err)
	}
	url := fmt.Sprintf("redis://%s:%s", host, port.Port())
	return url, func() {
		_ = container.Terminate(ctx)
	}
}

func seedBank(t *testing.T, ctx context.Context, dsn string, bank domain.Bank) {
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	db := bun.NewDB(sqldb, pgdialect.New())
	defer db.Close()

	migrator := migrate.NewMigrator(db, pgmigrations.Migrations)
	if err := migrator.Init(ctx); err != nil {
		t.Fatalf("migrator init: %v", err)
	}
	if _, err := migrator.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	data, err := json.Marshal(bank.Questions)
	if err != nil {
		t.Fatalf("marshal bank: %v", err)
	}
	if _, err := db.ExecContext(ctx, `INSERT INTO question_banks (topic_id, data) VALUES (?, ?::jsonb) ON CONFLICT (topic_id) DO UPDATE SET data=EXCLUDED.data`, bank.TopicID, string(data)); err != nil {
		t.Fatalf("insert bank: %v", err)
	}
}

func sampleBank() domain.Bank {
	return domain.Bank{
		TopicID: "landforms",
		Questions: []domain.Question{
			{
				ID:            "lf-q1",
				Type:          domain.MultipleChoice,
				Difficulty:    domain.Easy,
				Prompt:        "Which is the largest ocean on Earth?",
				Options:       []string{"Atlantic", "Pacific", "Indian"},
				CorrectOption: 1,
			},
			{
				ID:         "lf-q2",
				Type:       domain.TrueFalse,
				Difficulty: domain.Medium,
				Prompt:     "A plateau is a flat, elevated landform.",
				Answer:     true,
			},
			{
				ID:         "lf-q3",
				Type:       domain.FillBlanks,
				Difficulty: domain.Hard,
				Prompt:     "A high, flat inland region is called a ______.",
				Blanks:     [][]string{{"meseta", "plateau"}},
			},
		},
	}
}

func redisClientFromURL(url string) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return goredis.NewClient(&goredis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	}), nil
}

func requireDocker(t *testing.T) {
	t.Helper()
	if _, err := tc.NewDockerProvider(); err != nil {
		t.Skipf("docker not available: %v", err)
	}
}
