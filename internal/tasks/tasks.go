package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"huntmate/backend/internal/config"
	"huntmate/backend/internal/storage"
)

// Task types.
const (
	TypePhotoCleanup = "photo:cleanup"
)

// --- Task Client (Enqueuing tasks) ---

func NewClient(rdb *redis.Client) *asynq.Client {
	clientOpt := asynq.RedisClientOpt{
		Addr:     rdb.Options().Addr,
		Password: rdb.Options().Password,
		DB:       rdb.Options().DB,
	}
	return asynq.NewClient(clientOpt)
}

// PhotoCleanupPayload carries the photo URLs left behind by a hard-deleted
// booking.
type PhotoCleanupPayload struct {
	RequestID string   `json:"request_id"`
	PhotoURLs []string `json:"photo_urls"`
}

// EnqueuePhotoCleanup schedules blob deletion for a removed booking's photos.
// Enqueue failures are logged and swallowed: cleanup is best-effort and must
// never fail the deletion that triggered it.
func EnqueuePhotoCleanup(ctx context.Context, client *asynq.Client, requestID string, photoURLs []string) {
	if client == nil || len(photoURLs) == 0 {
		return
	}
	payload, err := json.Marshal(PhotoCleanupPayload{RequestID: requestID, PhotoURLs: photoURLs})
	if err != nil {
		log.Printf("WARNING: failed to marshal photo cleanup payload for request %s: %v", requestID, err)
		return
	}
	task := asynq.NewTask(TypePhotoCleanup, payload)
	if _, err := client.EnqueueContext(ctx, task, asynq.Queue("low"), asynq.MaxRetry(5)); err != nil {
		log.Printf("WARNING: failed to enqueue photo cleanup for request %s: %v", requestID, err)
	}
}

// --- Task Server (Processing tasks) ---

// TaskProcessor handles the processing of tasks. It holds dependencies needed
// by task handlers.
type TaskProcessor struct {
	cfg          *config.Config
	photoStorage storage.IPhotoStorage
}

func NewTaskProcessor(cfg *config.Config, photoStorage storage.IPhotoStorage) *TaskProcessor {
	return &TaskProcessor{cfg: cfg, photoStorage: photoStorage}
}

// SetupServer configures an Asynq server with its handler mux, or returns
// nils when the process is not a background worker. The caller runs it.
func SetupServer(rdb *redis.Client, processor *TaskProcessor, isBgWorker bool) (*asynq.Server, *asynq.ServeMux) {
	if !isBgWorker {
		// API mode doesn't run a task server, but still enqueues tasks.
		fmt.Println("Running in API mode, no task server started.")
		return nil, nil
	}

	serverOpt := asynq.RedisClientOpt{
		Addr:     rdb.Options().Addr,
		Password: rdb.Options().Password,
		DB:       rdb.Options().DB,
	}

	srv := asynq.NewServer(
		serverOpt,
		asynq.Config{
			Queues: map[string]int{
				"default": 3,
				"low":     1,
			},
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				fmt.Printf("[Asynq Error] Task Type: %s, Payload: %s, Error: %v\n", task.Type(), string(task.Payload()), err)
			}),
		},
	)

	mux := asynq.NewServeMux()
	mux.HandleFunc(TypePhotoCleanup, processor.HandlePhotoCleanupTask)
	fmt.Println("Registered background task handlers.")

	return srv, mux
}

// --- Task Handlers ---

// HandlePhotoCleanupTask deletes the blobs behind a hard-deleted booking's
// photo URLs. Individual delete failures are logged and skipped; the booking
// itself is already gone and a leaked blob is preferable to a stuck task.
func (p *TaskProcessor) HandlePhotoCleanupTask(ctx context.Context, t *asynq.Task) error {
	var payload PhotoCleanupPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to unmarshal photo cleanup payload: %v: %w", err, asynq.SkipRetry)
	}

	log.Printf("Cleaning up %d photos for deleted request %s", len(payload.PhotoURLs), payload.RequestID)

	var failed int
	for _, url := range payload.PhotoURLs {
		if err := p.photoStorage.Delete(ctx, url); err != nil {
			log.Printf("WARNING: failed to delete photo %s for request %s: %v", url, payload.RequestID, err)
			failed++
		}
	}
	if failed > 0 {
		// Retry the whole batch; Delete is idempotent for already-removed
		// objects.
		return fmt.Errorf("%d of %d photo deletions failed for request %s", failed, len(payload.PhotoURLs), payload.RequestID)
	}

	log.Printf("Photo cleanup finished for request %s", payload.RequestID)
	return nil
}
