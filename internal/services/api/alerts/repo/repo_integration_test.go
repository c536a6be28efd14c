//go:build integration_pg
// +build integration_pg

package repo

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"alertctl/internal/core/engine"
	"alertctl/internal/modkit/repokit"
	perr "alertctl/internal/platform/errors"
	"alertctl/internal/platform/store"
	"alertctl/internal/services/api/alerts/domain"

	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func startPostgres(t *testing.T) string {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	t.Cleanup(cancel)

	c, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: tc.ContainerRequest{
			Image:        "postgres:16-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "postgres",
				"POSTGRES_PASSWORD": "postgres",
				"POSTGRES_DB":       "alerts",
			},
			WaitingFor: wait.ForAll(
				wait.ForListeningPort("5432/tcp"),
				wait.ForLog("database system is ready to accept connections"),
			).WithDeadline(2 * time.Minute),
		},
		Started: true,
	})
	if err != nil {
		t.Fatalf("start postgres: %v", err)
	}
	t.Cleanup(func() { _ = c.Terminate(context.Background()) })

	host, err := c.Host(ctx)
	if err != nil {
		t.Fatalf("host: %v", err)
	}
	port, err := c.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatalf("port: %v", err)
	}
	return fmt.Sprintf("postgres://postgres:postgres@%s:%s/alerts?sslmode=disable", host, port.Port())
}

func openStore(t *testing.T) (repokit.TxRunner, domain.Store) {
	t.Helper()
	ctx := context.Background()
	st, err := store.Open(ctx, store.Config{PG: store.PGConfig{Enabled: true, URL: startPostgres(t), ConnectRetries: 10}})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = st.Close(context.Background()) })
	if err := Migrate(ctx, st.PG); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if err := Migrate(ctx, st.PG); err != nil {
		t.Fatalf("migrate twice: %v", err)
	}
	return st.PG, NewPG().Bind(st.PG)
}

func TestPG_DetectionRoundTrip_Integration(t *testing.T) {
	ctx := context.Background()
	_, s := openStore(t)

	d := domain.DetectionConfig{
		Name: "revenue_drop", Dataset: "orders", Metric: "revenue", Active: true,
		Owners: []string{"bot@example.com"}, YAML: "detectionName: revenue_drop\n",
		Components: []engine.Component{{
			Key: "base:MEAN_BASELINE", Rule: "base", Type: engine.MeanBaseline,
			Params: map[string]float64{"k": 3, "std": 1.5},
		}},
		LastTimestamp: -1, CreatedBy: "alice", UpdatedBy: "alice",
	}
	id, err := s.SaveDetection(ctx, d)
	if err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := s.DetectionByName(ctx, "revenue_drop")
	if err != nil || got.ID != id || got.Components[0].Params["std"] != 1.5 || got.Owners[0] != "bot@example.com" {
		t.Fatalf("got=%+v err=%v", got, err)
	}

	if _, err := s.SaveDetection(ctx, d); !perr.IsCode(err, perr.ErrorCodeDuplicateKey) {
		t.Fatalf("duplicate err = %v", err)
	}

	got.Active = false
	got.LastTimestamp = 1234
	if err := s.UpdateDetection(ctx, got); err != nil {
		t.Fatalf("update: %v", err)
	}
	again, _ := s.DetectionByID(ctx, id)
	if again.Active || again.LastTimestamp != 1234 {
		t.Fatalf("after update: %+v", again)
	}

	recent, err := s.RecentDetections(ctx, 10)
	if err != nil || len(recent) != 1 {
		t.Fatalf("recent=%d err=%v", len(recent), err)
	}

	if err := s.DeleteDetection(ctx, id); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := s.DetectionByID(ctx, id); !perr.IsCode(err, perr.ErrorCodeNotFound) {
		t.Fatalf("deleted lookup err = %v", err)
	}
	if err := s.UpdateDetection(ctx, again); !perr.IsCode(err, perr.ErrorCodeNotFound) {
		t.Fatalf("update missing err = %v", err)
	}
}

func TestPG_ConcurrentSameNameOneWins_Integration(t *testing.T) {
	ctx := context.Background()
	_, s := openStore(t)

	const n = 16
	errs := make([]error, n)
	var wg sync.WaitGroup
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = s.SaveDetection(ctx, domain.DetectionConfig{
				Name: "same", Dataset: "orders", Metric: "revenue", Active: true,
				YAML: "detectionName: same\n", LastTimestamp: -1, CreatedBy: fmt.Sprintf("w%d", i),
			})
		}()
	}
	wg.Wait()

	wins := 0
	for _, err := range errs {
		switch {
		case err == nil:
			wins++
		case !perr.IsCode(err, perr.ErrorCodeDuplicateKey):
			t.Fatalf("loser err = %v", err)
		}
	}
	if wins != 1 {
		t.Fatalf("wins = %d", wins)
	}
	if recent, err := s.RecentDetections(ctx, 10); err != nil || len(recent) != 1 {
		t.Fatalf("recent=%d err=%v", len(recent), err)
	}
}

func TestPG_SubscriptionTasksSessions_Integration(t *testing.T) {
	ctx := context.Background()
	db, s := openStore(t)

	sub := domain.SubscriptionConfig{
		Name: "team", Active: true, YAML: "subscriptionGroupName: team\n",
		DetectionNames: []string{"a"}, DetectionIDs: []int64{7}, VectorClocks: map[int64]int64{7: 99},
	}
	id, err := s.SaveSubscription(ctx, sub)
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := s.SubscriptionByID(ctx, id)
	if err != nil || got.VectorClocks[7] != 99 || got.DetectionIDs[0] != 7 || len(got.Owners) != 0 {
		t.Fatalf("got=%+v err=%v", got, err)
	}
	got.DetectionIDs = append(got.DetectionIDs, 8)
	if err := s.UpdateSubscription(ctx, got); err != nil {
		t.Fatalf("update: %v", err)
	}
	if err := s.DeleteSubscription(ctx, id); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := s.SubscriptionByName(ctx, "team"); !perr.IsCode(err, perr.ErrorCodeNotFound) {
		t.Fatalf("lookup err = %v", err)
	}

	taskID, err := s.CreateTask(ctx, domain.Task{
		JobName: "DETECTION_ONBOARD_1", Type: domain.TaskOnboard, Status: domain.TaskPending,
		Info: []byte(`{"configId":1}`),
	})
	if err != nil || taskID == 0 {
		t.Fatalf("task=%d err=%v", taskID, err)
	}

	if _, err := db.Exec(ctx, `INSERT INTO sessions (session_key, principal, principal_type, expiration_time)
		VALUES ('k1', 'svc-bot', 'SERVICE', 0), ('k2', 'gone', 'USER', 0)`); err != nil {
		t.Fatalf("seed sessions: %v", err)
	}
	if _, err := db.Exec(ctx, `UPDATE sessions SET active = false WHERE session_key = 'k2'`); err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	sess, err := s.SessionByKey(ctx, "k1")
	if err != nil || sess.Type != domain.PrincipalService || sess.Principal != "svc-bot" {
		t.Fatalf("sess=%+v err=%v", sess, err)
	}
	if _, err := s.SessionByKey(ctx, "k2"); !perr.IsCode(err, perr.ErrorCodeNotFound) {
		t.Fatalf("inactive session err = %v", err)
	}
}
