package db

import "time"

// Video is the canonical, cross-platform entity sources get merged into.
type Video struct {
	ID              int64      `gorm:"column:id;primaryKey;autoIncrement"`
	Slug            *string    `gorm:"column:slug;type:text;unique"`
	Title           string     `gorm:"column:title;type:text;not null"`
	Description     string     `gorm:"column:description;type:text;not null;default:''"`
	PublishedAt     *time.Time `gorm:"column:published_at;type:timestamptz"`
	DurationSeconds *int       `gorm:"column:duration_seconds;type:integer"`
	IsLocked        bool       `gorm:"column:is_locked;type:boolean;not null;default:false"`
	CreatedAt       time.Time  `gorm:"column:created_at;type:timestamptz;not null;default:now()"`
	UpdatedAt       time.Time  `gorm:"column:updated_at;type:timestamptz;not null;default:now()"`
}

func (Video) TableName() string { return "video" }

// SourceVideo is one platform's record of a piece of content.
type SourceVideo struct {
	ID              int64      `gorm:"column:id;primaryKey;autoIncrement"`
	VideoID         *int64     `gorm:"column:video_id;type:bigint;index"`
	Platform        string     `gorm:"column:platform;type:text;not null;uniqueIndex:uq_source_platform_id,priority:1"`
	PlatformFormat  *string    `gorm:"column:platform_format;type:text"`
	PlatformVideoID string     `gorm:"column:platform_video_id;type:text;not null;uniqueIndex:uq_source_platform_id,priority:2"`
	Title           *string    `gorm:"column:title;type:text"`
	Description     *string    `gorm:"column:description;type:text"`
	URL             *string    `gorm:"column:url;type:text"`
	ETag            *string    `gorm:"column:etag;type:text"`
	DurationSeconds *int       `gorm:"column:duration_seconds;type:integer"`
	PublishedAt     *time.Time `gorm:"column:published_at;type:timestamptz"`
	IsTeaser        bool       `gorm:"column:is_teaser;type:boolean;not null;default:false"`
	IsActive        bool       `gorm:"column:is_active;type:boolean;not null;default:true"`
	Locked          bool       `gorm:"column:locked;type:boolean;not null;default:false"`
	CreatedAt       time.Time  `gorm:"column:created_at;type:timestamptz;not null;default:now()"`
	UpdatedAt       time.Time  `gorm:"column:updated_at;type:timestamptz;not null;default:now()"`
}

func (SourceVideo) TableName() string { return "source_video" }

// ReconcileOverride is one pending manual correction. The table is a work
// queue, not a log: the applier deletes every row it consumes.
type ReconcileOverride struct {
	ID            int64     `gorm:"column:id;primaryKey;autoIncrement"`
	SourceVideoID int64     `gorm:"column:source_video_id;type:bigint;not null"`
	Action        string    `gorm:"column:action;type:text;not null"`
	TargetVideoID *int64    `gorm:"column:target_video_id;type:bigint"`
	CreatedBy     string    `gorm:"column:created_by;type:text;not null;default:'api'"`
	CreatedAt     time.Time `gorm:"column:created_at;type:timestamptz;not null;default:now()"`
}

func (ReconcileOverride) TableName() string { return "reconcile_override" }

// MetricSnapshot is one point-in-time metric reading for a source.
type MetricSnapshot struct {
	ID                  int64     `gorm:"column:id;primaryKey;autoIncrement"`
	SourceVideoID       int64     `gorm:"column:source_video_id;type:bigint;not null;uniqueIndex:uq_snapshot_source_at,priority:1"`
	SnapshotAt          time.Time `gorm:"column:snapshot_at;type:timestamptz;not null;uniqueIndex:uq_snapshot_source_at,priority:2"`
	ViewsNative         *int64    `gorm:"column:views_native;type:bigint"`
	Likes               *int64    `gorm:"column:likes;type:bigint"`
	Comments            *int64    `gorm:"column:comments;type:bigint"`
	Shares              *int64    `gorm:"column:shares;type:bigint"`
	Reach               *int64    `gorm:"column:reach;type:bigint"`
	UniqueViewers       *int64    `gorm:"column:unique_viewers;type:bigint"`
	AvgWatchSeconds     *float64  `gorm:"column:avg_watch_seconds;type:double precision"`
	TotalWatchSeconds   *float64  `gorm:"column:total_watch_seconds;type:double precision"`
	VideoLengthSeconds  *int      `gorm:"column:video_length_seconds;type:integer"`
	ReactionsTotal      *int64    `gorm:"column:reactions_total;type:bigint"`
	ReactionsLike       *int64    `gorm:"column:reactions_like;type:bigint"`
	ReactionsLove       *int64    `gorm:"column:reactions_love;type:bigint"`
	ReactionsWow        *int64    `gorm:"column:reactions_wow;type:bigint"`
	ReactionsHaha       *int64    `gorm:"column:reactions_haha;type:bigint"`
	ReactionsSad        *int64    `gorm:"column:reactions_sad;type:bigint"`
	ReactionsAngry      *int64    `gorm:"column:reactions_angry;type:bigint"`
	LegacyViews3s       *int64    `gorm:"column:legacy_views_3s;type:bigint"`
	CreatedAt           time.Time `gorm:"column:created_at;type:timestamptz;not null;default:now()"`
}

func (MetricSnapshot) TableName() string { return "metric_snapshot" }

// IdempotencyRecord caches the response of an ingest request so a replay with
// the same Idempotency-Key returns the original outcome.
type IdempotencyRecord struct {
	IdemKey      string    `gorm:"column:idem_key;type:text;primaryKey"`
	Route        string    `gorm:"column:route;type:text;not null"`
	RequestHash  string    `gorm:"column:request_hash;type:text;not null"`
	ResponseCode int       `gorm:"column:response_code;type:integer;not null"`
	ResponseBody string    `gorm:"column:response_body;type:text;not null"`
	CreatedAt    time.Time `gorm:"column:created_at;type:timestamptz;not null;default:now()"`
}

func (IdempotencyRecord) TableName() string { return "api_idempotency" }

func autoMigrateModels() []any {
	return []any{
		&Video{},
		&SourceVideo{},
		&ReconcileOverride{},
		&MetricSnapshot{},
		&IdempotencyRecord{},
	}
}
