package ingest

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed source_item.schema.json
var sourceItemSchemaJSON string

//go:embed metric_item.schema.json
var metricItemSchemaJSON string

// DurationSpec accepts a duration as either an ISO-8601 string or a plain
// number of seconds.
type DurationSpec struct {
	Seconds int
}

func (d *DurationSpec) UnmarshalJSON(raw []byte) error {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || string(trimmed) == "null" {
		return fmt.Errorf("duration must not be null")
	}
	if trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return err
		}
		secs, err := ParseDurationSeconds(s)
		if err != nil {
			return err
		}
		d.Seconds = secs
		return nil
	}
	var secs int
	if err := json.Unmarshal(trimmed, &secs); err != nil {
		return fmt.Errorf("duration must be an ISO-8601 string or seconds: %w", err)
	}
	if secs < 0 {
		return fmt.Errorf("duration must not be negative")
	}
	d.Seconds = secs
	return nil
}

// SourceItem is one validated entry of a sources batch-upsert payload.
type SourceItem struct {
	Platform        string        `json:"platform"`
	PlatformVideoID string        `json:"platform_video_id"`
	PlatformFormat  *string       `json:"platform_format,omitempty"`
	Title           *string       `json:"title,omitempty"`
	Description     *string       `json:"description,omitempty"`
	URL             *string       `json:"url,omitempty"`
	ETag            *string       `json:"etag,omitempty"`
	Duration        *DurationSpec `json:"duration,omitempty"`
	PublishedAt     *string       `json:"published_at,omitempty"`
	IsActive        *bool         `json:"is_active,omitempty"`
	IsTeaser        *bool         `json:"is_teaser,omitempty"`
}

// Reactions carries the per-reaction breakdown some platforms report.
type Reactions struct {
	Total *int64 `json:"total,omitempty"`
	Like  *int64 `json:"like,omitempty"`
	Love  *int64 `json:"love,omitempty"`
	Wow   *int64 `json:"wow,omitempty"`
	Haha  *int64 `json:"haha,omitempty"`
	Sad   *int64 `json:"sad,omitempty"`
	Angry *int64 `json:"angry,omitempty"`
}

// MetricItem is one validated entry of a metrics batch-upsert payload.
type MetricItem struct {
	Platform          string        `json:"platform"`
	PlatformVideoID   string        `json:"platform_video_id"`
	SnapshotAt        string        `json:"snapshot_at"`
	Views             *int64        `json:"views,omitempty"`
	Likes             *int64        `json:"likes,omitempty"`
	Comments          *int64        `json:"comments,omitempty"`
	Shares            *int64        `json:"shares,omitempty"`
	Reach             *int64        `json:"reach,omitempty"`
	UniqueViewers     *int64        `json:"unique_viewers,omitempty"`
	AvgWatchSeconds   *float64      `json:"avg_watch_seconds,omitempty"`
	TotalWatchSeconds *float64      `json:"total_watch_seconds,omitempty"`
	VideoLength       *DurationSpec `json:"video_length,omitempty"`
	LegacyViews3s     *int64        `json:"legacy_views_3s,omitempty"`
	Reactions         *Reactions    `json:"reactions,omitempty"`
}

var (
	compileOnce      sync.Once
	sourceSchema     *jsonschema.Schema
	metricSchema     *jsonschema.Schema
	compileSchemaErr error
)

// ValidateSourceItem checks one raw batch entry against the source schema
// and decodes it.
func ValidateSourceItem(payload json.RawMessage) (*SourceItem, error) {
	value, err := decodeStrictJSON(payload)
	if err != nil {
		return nil, fmt.Errorf("decode item JSON: %w", err)
	}

	schema, _, err := loadSchemas()
	if err != nil {
		return nil, fmt.Errorf("load schema: %w", err)
	}
	if err := schema.Validate(value); err != nil {
		return nil, fmt.Errorf("schema validation failed: %w", err)
	}

	var item SourceItem
	if err := unmarshalNormalized(value, &item); err != nil {
		return nil, err
	}

	if item.PublishedAt != nil {
		if _, err := time.Parse(time.RFC3339, strings.TrimSpace(*item.PublishedAt)); err != nil {
			return nil, fmt.Errorf("published_at must be RFC3339: %w", err)
		}
	}
	return &item, nil
}

// ValidateMetricItem checks one raw metrics entry against the metric schema
// and decodes it.
func ValidateMetricItem(payload json.RawMessage) (*MetricItem, error) {
	value, err := decodeStrictJSON(payload)
	if err != nil {
		return nil, fmt.Errorf("decode item JSON: %w", err)
	}

	_, schema, err := loadSchemas()
	if err != nil {
		return nil, fmt.Errorf("load schema: %w", err)
	}
	if err := schema.Validate(value); err != nil {
		return nil, fmt.Errorf("schema validation failed: %w", err)
	}

	var item MetricItem
	if err := unmarshalNormalized(value, &item); err != nil {
		return nil, err
	}

	if _, err := time.Parse(time.RFC3339, strings.TrimSpace(item.SnapshotAt)); err != nil {
		return nil, fmt.Errorf("snapshot_at must be RFC3339: %w", err)
	}
	return &item, nil
}

func loadSchemas() (*jsonschema.Schema, *jsonschema.Schema, error) {
	compileOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		compiler.Draft = jsonschema.Draft2020
		compiler.AssertFormat = true

		for name, body := range map[string]string{
			"source_item.schema.json": sourceItemSchemaJSON,
			"metric_item.schema.json": metricItemSchemaJSON,
		} {
			if err := compiler.AddResource(name, strings.NewReader(body)); err != nil {
				compileSchemaErr = fmt.Errorf("add schema resource %s: %w", name, err)
				return
			}
		}

		var err error
		if sourceSchema, err = compiler.Compile("source_item.schema.json"); err != nil {
			compileSchemaErr = fmt.Errorf("compile source schema: %w", err)
			return
		}
		if metricSchema, err = compiler.Compile("metric_item.schema.json"); err != nil {
			compileSchemaErr = fmt.Errorf("compile metric schema: %w", err)
			return
		}
	})

	if compileSchemaErr != nil {
		return nil, nil, compileSchemaErr
	}
	if sourceSchema == nil || metricSchema == nil {
		return nil, nil, fmt.Errorf("schemas not initialized")
	}
	return sourceSchema, metricSchema, nil
}

func decodeStrictJSON(raw []byte) (any, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("item is empty")
	}

	decoder := json.NewDecoder(bytes.NewReader(trimmed))
	decoder.UseNumber()

	var value any
	if err := decoder.Decode(&value); err != nil {
		return nil, err
	}
	if err := decoder.Decode(&struct{}{}); err != io.EOF {
		return nil, fmt.Errorf("item contains trailing content")
	}
	return value, nil
}

func unmarshalNormalized(value any, dst any) error {
	normalized, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("normalize item JSON: %w", err)
	}
	if err := json.Unmarshal(normalized, dst); err != nil {
		return fmt.Errorf("unmarshal item: %w", err)
	}
	return nil
}
