// cache.go — LRU-кэш записей метаданных файлов с TTL.
// Обёртка над hashicorp/golang-lru/v2/expirable. Кэш per-instance:
// инвалидация выполняется локально при delete, TTL ограничивает
// staleness при нескольких инстансах.
package service

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/bigkaa/fileflow/internal/domain/model"
)

// Prometheus-метрики кэша.
var (
	cacheHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ff_cache_hits_total",
		Help: "Общее количество попаданий в LRU-кэш метаданных.",
	})
	cacheMissesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ff_cache_misses_total",
		Help: "Общее количество промахов LRU-кэша метаданных.",
	})
)

// RecordCache — LRU-кэш записей FileRecord с автоматическим TTL.
type RecordCache struct {
	cache *expirable.LRU[int64, *model.FileRecord]
}

// NewRecordCache создаёт LRU-кэш с указанным максимальным размером и TTL.
func NewRecordCache(maxSize int, ttl time.Duration) *RecordCache {
	cache := expirable.NewLRU[int64, *model.FileRecord](maxSize, nil, ttl)
	return &RecordCache{cache: cache}
}

// Get возвращает FileRecord из кэша по id.
// Возвращает (запись, true) при hit или (nil, false) при miss.
func (c *RecordCache) Get(id int64) (*model.FileRecord, bool) {
	val, ok := c.cache.Get(id)
	if ok {
		cacheHitsTotal.Inc()
		return val, true
	}
	cacheMissesTotal.Inc()
	return nil, false
}

// Set добавляет или обновляет запись в кэше.
func (c *RecordCache) Set(id int64, record *model.FileRecord) {
	c.cache.Add(id, record)
}

// Delete удаляет запись из кэша (инвалидация при удалении файла).
func (c *RecordCache) Delete(id int64) {
	c.cache.Remove(id)
}
