package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"dealflow/internal/config"
	"dealflow/internal/domain"
	"dealflow/internal/workflow"
)

const (
	defaultWebhookInterval = 2 * time.Second
	defaultWebhookTimeout  = 5 * time.Second
	defaultWebhookBatch    = 100
)

type activityCursor struct {
	ts string
	id string
}

// webhookDispatcher tails the activity feed and POSTs matching entries to the
// configured endpoints. One cursor per webhook, initialized at the current
// feed head so restarts never replay history.
type webhookDispatcher struct {
	engine   workflow.Engine
	orgID    string
	webhooks []config.WebhookConfig
	client   *http.Client
	mu       sync.Mutex
	cursors  map[int]activityCursor
}

func startWebhookDispatcher(e workflow.Engine) {
	if e.Config == nil || len(e.Config.Webhooks) == 0 {
		return
	}
	orgID := e.Config.Org.ID
	if strings.TrimSpace(orgID) == "" {
		return
	}
	d := &webhookDispatcher{
		engine:   e,
		orgID:    orgID,
		webhooks: e.Config.Webhooks,
		client:   &http.Client{Timeout: defaultWebhookTimeout},
		cursors:  make(map[int]activityCursor),
	}
	go d.run()
}

func (d *webhookDispatcher) run() {
	ticker := time.NewTicker(defaultWebhookInterval)
	defer ticker.Stop()
	for {
		d.dispatchAll()
		<-ticker.C
	}
}

func (d *webhookDispatcher) dispatchAll() {
	for i, hook := range d.webhooks {
		if hook.Enabled != nil && !*hook.Enabled {
			continue
		}
		if strings.TrimSpace(hook.URL) == "" {
			continue
		}
		d.dispatchWebhook(i, hook)
	}
}

func (d *webhookDispatcher) dispatchWebhook(idx int, hook config.WebhookConfig) {
	ctx := context.Background()
	cursor := d.cursorFor(idx)
	entries, err := d.engine.Repo.ActivityAfter(ctx, d.orgID, cursor.ts, cursor.id, defaultWebhookBatch)
	if err != nil {
		log.Printf("webhook: fetch activity failed: %v", err)
		return
	}
	if len(entries) == 0 {
		return
	}
	filter := newActionFilter(hook.Actions)
	for _, entry := range entries {
		if !filter.match(entry.Action) {
			d.setCursor(idx, activityCursor{ts: entry.Timestamp, id: entry.ID})
			continue
		}
		if err := d.postEntry(ctx, hook, entry); err != nil {
			log.Printf("webhook: deliver to %s failed: %v", hook.URL, err)
			return
		}
		d.setCursor(idx, activityCursor{ts: entry.Timestamp, id: entry.ID})
	}
}

func (d *webhookDispatcher) cursorFor(idx int) activityCursor {
	d.mu.Lock()
	defer d.mu.Unlock()
	if cur, ok := d.cursors[idx]; ok {
		return cur
	}
	ctx := context.Background()
	ts, id, err := d.engine.Repo.LatestActivityCursor(ctx, d.orgID)
	if err != nil {
		log.Printf("webhook: init cursor failed: %v", err)
	}
	cur := activityCursor{ts: ts, id: id}
	d.cursors[idx] = cur
	return cur
}

func (d *webhookDispatcher) setCursor(idx int, value activityCursor) {
	d.mu.Lock()
	d.cursors[idx] = value
	d.mu.Unlock()
}

type webhookEvent struct {
	ID          string `json:"activity_id"`
	OrgID       string `json:"org_id"`
	Module      string `json:"module"`
	Action      string `json:"action"`
	EntityType  string `json:"entity_type"`
	EntityID    string `json:"entity_id"`
	Description string `json:"description"`
	ActorID     string `json:"actor_id"`
	Timestamp   string `json:"timestamp"`
}

func (d *webhookDispatcher) postEntry(ctx context.Context, hook config.WebhookConfig, entry domain.ActivityEntry) error {
	body := webhookEvent{
		ID:          entry.ID,
		OrgID:       entry.OrgID,
		Module:      entry.Module,
		Action:      entry.Action,
		EntityType:  entry.EntityType,
		EntityID:    entry.EntityID,
		Description: entry.Description,
		ActorID:     entry.ActorID,
		Timestamp:   entry.Timestamp,
	}
	data, err := json.Marshal(body)
	if err != nil {
		return err
	}
	timeout := defaultWebhookTimeout
	if hook.TimeoutSeconds > 0 {
		timeout = time.Duration(hook.TimeoutSeconds) * time.Second
	}
	client := d.client
	if timeout != d.client.Timeout {
		client = &http.Client{Timeout: timeout}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, hook.URL, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Dealflow-Action", entry.Module+"."+entry.Action)
	req.Header.Set("X-Dealflow-Delivery", entry.ID)
	req.Header.Set("X-Dealflow-Org", d.orgID)
	if strings.TrimSpace(hook.Secret) != "" {
		req.Header.Set("X-Dealflow-Secret", hook.Secret)
	}
	res, err := client.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		bodyBytes, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
		return fmt.Errorf("status %d: %s", res.StatusCode, strings.TrimSpace(string(bodyBytes)))
	}
	return nil
}

type actionFilter struct {
	all bool
	set map[string]struct{}
}

func newActionFilter(actions []string) actionFilter {
	if len(actions) == 0 {
		return actionFilter{all: true}
	}
	set := make(map[string]struct{}, len(actions))
	for _, action := range actions {
		key := strings.TrimSpace(action)
		if key == "" {
			continue
		}
		set[key] = struct{}{}
	}
	if len(set) == 0 {
		return actionFilter{all: true}
	}
	return actionFilter{set: set}
}

func (f actionFilter) match(action string) bool {
	if f.all {
		return true
	}
	_, ok := f.set[action]
	return ok
}
