package core

import (
	"context"
	"sync"
	"time"
)

func nowForTest() time.Time {
	return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
}

type stubLogger struct{}

func (stubLogger) Trace(string, ...any) {}
func (stubLogger) Debug(string, ...any) {}
func (stubLogger) Info(string, ...any)  {}
func (stubLogger) Warn(string, ...any)  {}
func (stubLogger) Error(string, ...any) {}
func (stubLogger) Fatal(string, ...any) {}
func (s stubLogger) WithContext(context.Context) Logger {
	return s
}

type stubLoggerProvider struct {
	logger Logger
}

func (s stubLoggerProvider) GetLogger(string) Logger {
	return s.logger
}

type mapRawLoader struct {
	values map[string]any
}

func (l mapRawLoader) LoadRaw(context.Context) (map[string]any, error) {
	if len(l.values) == 0 {
		return map[string]any{}, nil
	}
	out := make(map[string]any, len(l.values))
	for key, value := range l.values {
		out[key] = value
	}
	return out, nil
}

type capturedCounter struct {
	name  string
	value int64
	tags  map[string]string
}

type capturedHistogram struct {
	name  string
	value float64
	tags  map[string]string
}

type captureMetricsRecorder struct {
	mu         sync.Mutex
	counters   []capturedCounter
	histograms []capturedHistogram
}

func (m *captureMetricsRecorder) IncCounter(_ context.Context, name string, value int64, tags map[string]string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counters = append(m.counters, capturedCounter{name: name, value: value, tags: cloneTags(tags)})
}

func (m *captureMetricsRecorder) ObserveHistogram(_ context.Context, name string, value float64, tags map[string]string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.histograms = append(m.histograms, capturedHistogram{name: name, value: value, tags: cloneTags(tags)})
}

type capturedLog struct {
	level  string
	msg    string
	fields map[string]any
}

type captureLogger struct {
	mu       *sync.Mutex
	records  *[]capturedLog
	defaults map[string]any
}

func newCaptureLogger() *captureLogger {
	records := []capturedLog{}
	return &captureLogger{mu: &sync.Mutex{}, records: &records, defaults: map[string]any{}}
}

func (l *captureLogger) WithFields(fields map[string]any) Logger {
	merged := cloneFields(l.defaults)
	for key, value := range fields {
		merged[key] = value
	}
	return &captureLogger{mu: l.mu, records: l.records, defaults: merged}
}

func (l *captureLogger) Trace(msg string, args ...any) { l.record("trace", msg, args...) }
func (l *captureLogger) Debug(msg string, args ...any) { l.record("debug", msg, args...) }
func (l *captureLogger) Info(msg string, args ...any)  { l.record("info", msg, args...) }
func (l *captureLogger) Warn(msg string, args ...any)  { l.record("warn", msg, args...) }
func (l *captureLogger) Error(msg string, args ...any) { l.record("error", msg, args...) }
func (l *captureLogger) Fatal(msg string, args ...any) { l.record("fatal", msg, args...) }

func (l *captureLogger) WithContext(context.Context) Logger {
	return &captureLogger{mu: l.mu, records: l.records, defaults: cloneFields(l.defaults)}
}

func (l *captureLogger) record(level string, msg string, args ...any) {
	fields := cloneFields(l.defaults)
	for index := 0; index+1 < len(args); index += 2 {
		key, ok := args[index].(string)
		if !ok {
			continue
		}
		fields[key] = args[index+1]
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	*l.records = append(*l.records, capturedLog{level: level, msg: msg, fields: fields})
}

func (l *captureLogger) snapshot() []capturedLog {
	l.mu.Lock()
	defer l.mu.Unlock()
	items := *l.records
	out := make([]capturedLog, len(items))
	copy(out, items)
	return out
}

func noopHandler(_ context.Context, _ map[string]any, _ *InvocationContext) (map[string]any, error) {
	return map[string]any{}, nil
}

type stubEntityStore struct{}

func (stubEntityStore) Create(_ context.Context, entity StatableEntity) (StatableEntity, error) {
	return entity, nil
}

func (stubEntityStore) Get(context.Context, EntityKind, string) (StatableEntity, error) {
	return StatableEntity{}, ErrEntityNotFound
}

func (stubEntityStore) Update(_ context.Context, entity StatableEntity) (StatableEntity, error) {
	return entity, nil
}

func (stubEntityStore) List(context.Context, EntityKind, EntityFilter) ([]StatableEntity, error) {
	return nil, nil
}

type stubKeyValueStore struct{}

func (stubKeyValueStore) GetItem(context.Context, string) (KVItem, bool, error) {
	return KVItem{}, false, nil
}

func (stubKeyValueStore) PutItem(context.Context, KVItem) error {
	return nil
}

func (stubKeyValueStore) UpdateItem(_ context.Context, key string, updates map[string]any) (KVItem, error) {
	return KVItem{Key: key, Attributes: updates}, nil
}

func (stubKeyValueStore) Scan(context.Context, func(KVItem) bool, int) ([]KVItem, error) {
	return nil, nil
}

type stubWebhookLedger struct{}

func (stubWebhookLedger) Seen(context.Context, string) (bool, error) {
	return false, nil
}

func (stubWebhookLedger) Record(context.Context, WebhookEvent) error {
	return nil
}

func (stubWebhookLedger) List(context.Context, string, int) ([]WebhookEvent, error) {
	return nil, nil
}

type stubStoreProvider struct {
	entities EntityStore
	kv       KeyValueStore
	ledger   WebhookEventLedger
}

func (p stubStoreProvider) EntityStore() EntityStore {
	return p.entities
}

func (p stubStoreProvider) KeyValueStore() KeyValueStore {
	return p.kv
}

func (p stubStoreProvider) WebhookEventLedger() WebhookEventLedger {
	return p.ledger
}

type stubStoreFactory struct {
	provider StoreProvider
}

func (f stubStoreFactory) BuildStores(any) (StoreProvider, error) {
	return f.provider, nil
}
