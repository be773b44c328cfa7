package db

import (
	"context"
	"fmt"
	"strings"
	"time"

	"crossview/internal/timeseries"
)

// VideoStore serves the read side: listings, detail, stats and metric
// series over the canonical videos the engine produces.
type VideoStore struct {
	pool *Pool
}

func NewVideoStore(pool *Pool) *VideoStore {
	return &VideoStore{pool: pool}
}

type ListVideosParams struct {
	Page     int
	Size     int
	Query    string
	Platform string
	Format   string
	From     *time.Time
	To       *time.Time
	Sort     string
}

// VideoListItem is one row of the listing: canonical metadata plus the
// rollup of each source's latest snapshot.
type VideoListItem struct {
	ID                   int64            `json:"id"`
	Slug                 *string          `json:"slug"`
	Title                string           `json:"title"`
	PublishedAt          *time.Time       `json:"published_at"`
	DurationSeconds      *int             `json:"duration_seconds"`
	ViewsNativeSum       *int64           `json:"views_native_sum"`
	LikesSum             *int64           `json:"likes_sum"`
	CommentsSum          *int64           `json:"comments_sum"`
	SharesSum            *int64           `json:"shares_sum"`
	TotalWatchSecondsSum *float64         `json:"total_watch_seconds_sum"`
	ByPlatform           map[string]int64 `json:"by_platform"`
	LastSnapshotAt       *time.Time       `json:"last_snapshot_at"`
}

// latestRollupCTE computes, per video, the sum of each linked source's most
// recent snapshot. Counters are cumulative, so the latest snapshot is the
// current total for that source.
const latestRollupCTE = `
	WITH latest AS (
		SELECT DISTINCT ON (ms.source_video_id)
		       ms.source_video_id, ms.snapshot_at, ms.views_native, ms.likes,
		       ms.comments, ms.shares, ms.total_watch_seconds
		FROM metric_snapshot ms
		ORDER BY ms.source_video_id, ms.snapshot_at DESC
	),
	rollup AS (
		SELECT v.id AS video_id, v.slug, v.title, v.published_at,
		       v.duration_seconds,
		       SUM(l.views_native)        AS views_native_sum,
		       SUM(l.likes)               AS likes_sum,
		       SUM(l.comments)            AS comments_sum,
		       SUM(l.shares)              AS shares_sum,
		       SUM(l.total_watch_seconds) AS total_watch_seconds_sum,
		       MAX(l.snapshot_at)         AS last_snapshot_at,
		       SUM(l.views_native) FILTER (WHERE sv.platform = 'YOUTUBE')   AS views_yt,
		       SUM(l.views_native) FILTER (WHERE sv.platform = 'FACEBOOK')  AS views_fb,
		       SUM(l.views_native) FILTER (WHERE sv.platform = 'INSTAGRAM') AS views_ig,
		       SUM(l.views_native) FILTER (WHERE sv.platform = 'TIKTOK')    AS views_tt,
		       SUM(l.views_native) FILTER (WHERE sv.platform = 'CMS')       AS views_cms
		FROM video v
		LEFT JOIN source_video sv ON sv.video_id = v.id
		LEFT JOIN latest l ON l.source_video_id = sv.id
		GROUP BY v.id
	)`

func (s *VideoStore) ListVideos(ctx context.Context, params ListVideosParams) (int, []VideoListItem, error) {
	page := params.Page
	if page < 1 {
		page = 1
	}
	size := params.Size
	if size < 1 {
		size = 20
	}
	if size > 200 {
		size = 200
	}

	var where []string
	var args []any

	if q := strings.TrimSpace(params.Query); q != "" {
		pattern := "%" + q + "%"
		args = append(args, pattern)
		where = append(where, fmt.Sprintf("(v.title ILIKE $%d OR v.slug ILIKE $%d)", len(args), len(args)))
	}
	if params.From != nil {
		args = append(args, *params.From)
		where = append(where, fmt.Sprintf("v.published_at >= $%d", len(args)))
	}
	if params.To != nil {
		args = append(args, *params.To)
		where = append(where, fmt.Sprintf("v.published_at < $%d", len(args)))
	}
	if col, ok := platformViewsColumn(params.Platform); ok {
		where = append(where, "COALESCE(v."+col+", 0) > 0")
	}
	if format := strings.ToUpper(strings.TrimSpace(params.Format)); format == "VIDEO" || format == "SHORT" || format == "REEL" {
		args = append(args, format)
		where = append(where, fmt.Sprintf("EXISTS (SELECT 1 FROM source_video svf WHERE svf.video_id = v.video_id AND svf.platform_format = $%d)", len(args)))
	}

	whereSQL := ""
	if len(where) > 0 {
		whereSQL = "WHERE " + strings.Join(where, " AND ")
	}

	orderBy := listOrderBy(params.Sort)

	var total int
	countQuery := latestRollupCTE + " SELECT COUNT(*) FROM rollup v " + whereSQL
	if err := s.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return 0, nil, fmt.Errorf("count videos: %w", err)
	}

	pageQuery := latestRollupCTE + `
		SELECT v.video_id, v.slug, v.title, v.published_at, v.duration_seconds,
		       v.views_native_sum, v.likes_sum, v.comments_sum, v.shares_sum,
		       v.total_watch_seconds_sum, v.last_snapshot_at,
		       v.views_yt, v.views_fb, v.views_ig, v.views_tt, v.views_cms
		FROM rollup v ` + whereSQL + `
		ORDER BY ` + orderBy +
		fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	rows, err := s.pool.Query(ctx, pageQuery, append(args, size, (page-1)*size)...)
	if err != nil {
		return 0, nil, fmt.Errorf("list videos: %w", err)
	}
	defer rows.Close()

	var items []VideoListItem
	for rows.Next() {
		var item VideoListItem
		var viewsYT, viewsFB, viewsIG, viewsTT, viewsCMS *int64
		if err := rows.Scan(
			&item.ID, &item.Slug, &item.Title, &item.PublishedAt,
			&item.DurationSeconds, &item.ViewsNativeSum, &item.LikesSum,
			&item.CommentsSum, &item.SharesSum, &item.TotalWatchSecondsSum,
			&item.LastSnapshotAt, &viewsYT, &viewsFB, &viewsIG, &viewsTT, &viewsCMS,
		); err != nil {
			return 0, nil, err
		}
		item.ByPlatform = map[string]int64{
			"YOUTUBE":   derefInt64(viewsYT),
			"FACEBOOK":  derefInt64(viewsFB),
			"INSTAGRAM": derefInt64(viewsIG),
			"TIKTOK":    derefInt64(viewsTT),
			"CMS":       derefInt64(viewsCMS),
		}
		items = append(items, item)
	}
	return total, items, rows.Err()
}

// platformViewsColumn maps a platform filter to its rollup column. Every
// platform the ingest schema accepts has one.
func platformViewsColumn(platform string) (string, bool) {
	switch strings.ToUpper(strings.TrimSpace(platform)) {
	case "YOUTUBE":
		return "views_yt", true
	case "FACEBOOK":
		return "views_fb", true
	case "INSTAGRAM":
		return "views_ig", true
	case "TIKTOK":
		return "views_tt", true
	case "CMS":
		return "views_cms", true
	}
	return "", false
}

func listOrderBy(sort string) string {
	switch strings.ToLower(strings.TrimSpace(sort)) {
	case "published_desc":
		return "v.published_at DESC NULLS LAST, v.video_id DESC"
	case "published_asc":
		return "v.published_at ASC NULLS LAST, v.video_id ASC"
	case "title_asc":
		return "v.title ASC, v.video_id DESC"
	case "title_desc":
		return "v.title DESC, v.video_id DESC"
	default:
		return "v.views_native_sum DESC NULLS LAST, v.published_at DESC NULLS LAST"
	}
}

// VideoMeta is the canonical entity's metadata.
type VideoMeta struct {
	ID              int64      `json:"id"`
	Slug            *string    `json:"slug"`
	Title           string     `json:"title"`
	Description     string     `json:"description"`
	PublishedAt     *time.Time `json:"published_at"`
	DurationSeconds *int       `json:"duration_seconds"`
	IsLocked        bool       `json:"is_locked"`
}

// SourceDetail is one linked source with its latest snapshot, if any.
type SourceDetail struct {
	ID              int64           `json:"id"`
	Platform        string          `json:"platform"`
	PlatformFormat  *string         `json:"platform_format"`
	PlatformVideoID string          `json:"platform_video_id"`
	Title           *string         `json:"title"`
	URL             *string         `json:"url"`
	PublishedAt     *time.Time      `json:"published_at"`
	DurationSeconds *int            `json:"duration_seconds"`
	IsTeaser        bool            `json:"is_teaser"`
	IsActive        bool            `json:"is_active"`
	Latest          *LatestSnapshot `json:"latest"`
}

// LatestSnapshot is the most recent metric reading of one source.
type LatestSnapshot struct {
	SnapshotAt        time.Time `json:"snapshot_at"`
	ViewsNative       *int64    `json:"views_native"`
	Likes             *int64    `json:"likes"`
	Comments          *int64    `json:"comments"`
	Shares            *int64    `json:"shares"`
	Reach             *int64    `json:"reach"`
	TotalWatchSeconds *float64  `json:"total_watch_seconds"`
}

// VideoDetail is the full read model of one canonical video.
type VideoDetail struct {
	Video   VideoMeta      `json:"video"`
	Sources []SourceDetail `json:"sources"`
}

// ResolveVideoID finds a canonical id by slug or by a source's platform
// coordinates. Returns 0 when nothing matches.
func (s *VideoStore) ResolveVideoID(ctx context.Context, slug, platform, platformVideoID string) (int64, error) {
	if slug = strings.TrimSpace(slug); slug != "" {
		var id int64
		err := s.pool.QueryRow(ctx, `SELECT id FROM video WHERE slug = $1`, slug).Scan(&id)
		if IsNoRows(err) {
			return 0, nil
		}
		return id, err
	}

	platform = strings.ToUpper(strings.TrimSpace(platform))
	platformVideoID = strings.TrimSpace(platformVideoID)
	if platform != "" && platformVideoID != "" {
		var id *int64
		err := s.pool.QueryRow(ctx,
			`SELECT video_id FROM source_video WHERE platform = $1 AND platform_video_id = $2 LIMIT 1`,
			platform, platformVideoID,
		).Scan(&id)
		if IsNoRows(err) {
			return 0, nil
		}
		if err != nil {
			return 0, err
		}
		if id == nil {
			return 0, nil
		}
		return *id, nil
	}

	return 0, nil
}

// GetVideoDetail loads one video with its sources and their latest
// snapshots. Returns nil when the video does not exist.
func (s *VideoStore) GetVideoDetail(ctx context.Context, id int64) (*VideoDetail, error) {
	var meta VideoMeta
	err := s.pool.QueryRow(ctx, `
		SELECT id, slug, title, description, published_at, duration_seconds, is_locked
		FROM video WHERE id = $1`, id,
	).Scan(&meta.ID, &meta.Slug, &meta.Title, &meta.Description,
		&meta.PublishedAt, &meta.DurationSeconds, &meta.IsLocked)
	if IsNoRows(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load video %d: %w", id, err)
	}

	rows, err := s.pool.Query(ctx, `
		SELECT sv.id, sv.platform, sv.platform_format, sv.platform_video_id,
		       sv.title, sv.url, sv.published_at, sv.duration_seconds,
		       sv.is_teaser, sv.is_active,
		       l.snapshot_at, l.views_native, l.likes, l.comments, l.shares,
		       l.reach, l.total_watch_seconds
		FROM source_video sv
		LEFT JOIN LATERAL (
			SELECT ms.snapshot_at, ms.views_native, ms.likes, ms.comments,
			       ms.shares, ms.reach, ms.total_watch_seconds
			FROM metric_snapshot ms
			WHERE ms.source_video_id = sv.id
			ORDER BY ms.snapshot_at DESC
			LIMIT 1
		) l ON TRUE
		WHERE sv.video_id = $1
		ORDER BY sv.platform, sv.platform_format, sv.id`, id)
	if err != nil {
		return nil, fmt.Errorf("load sources of video %d: %w", id, err)
	}
	defer rows.Close()

	detail := &VideoDetail{Video: meta, Sources: []SourceDetail{}}
	for rows.Next() {
		var src SourceDetail
		var snapshotAt *time.Time
		var views, likes, comments, shares, reach *int64
		var watch *float64
		if err := rows.Scan(
			&src.ID, &src.Platform, &src.PlatformFormat, &src.PlatformVideoID,
			&src.Title, &src.URL, &src.PublishedAt, &src.DurationSeconds,
			&src.IsTeaser, &src.IsActive,
			&snapshotAt, &views, &likes, &comments, &shares, &reach, &watch,
		); err != nil {
			return nil, err
		}
		if snapshotAt != nil {
			src.Latest = &LatestSnapshot{
				SnapshotAt:        *snapshotAt,
				ViewsNative:       views,
				Likes:             likes,
				Comments:          comments,
				Shares:            shares,
				Reach:             reach,
				TotalWatchSeconds: watch,
			}
		}
		detail.Sources = append(detail.Sources, src)
	}
	return detail, rows.Err()
}

// MetricSeriesByPlatform returns, per platform, the MAX of the metric per
// time bucket since from. Counters are cumulative so MAX is the bucket's
// closing value.
func (s *VideoStore) MetricSeriesByPlatform(ctx context.Context, videoID int64, metric, interval string, from time.Time, platforms []string) (map[string][]timeseries.Point, error) {
	metricExpr, ok := metricColumn(metric)
	if !ok {
		return nil, fmt.Errorf("unsupported metric %q", metric)
	}
	if interval != timeseries.IntervalDay {
		interval = timeseries.IntervalHour
	}

	query := `
		SELECT sv.platform,
		       date_trunc($1, ms.snapshot_at) AS ts,
		       MAX(` + metricExpr + `) AS value
		FROM metric_snapshot ms
		JOIN source_video sv ON sv.id = ms.source_video_id
		WHERE sv.video_id = $2 AND ms.snapshot_at >= $3`
	args := []any{interval, videoID, from}
	if len(platforms) > 0 {
		query += " AND sv.platform IN " + placeholderList(len(args)+1, len(platforms))
		for _, p := range platforms {
			args = append(args, p)
		}
	}
	query += `
		GROUP BY sv.platform, ts
		ORDER BY sv.platform, ts`

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("load metric series: %w", err)
	}
	defer rows.Close()

	out := map[string][]timeseries.Point{}
	for rows.Next() {
		var platform string
		var point timeseries.Point
		if err := rows.Scan(&platform, &point.TS, &point.Value); err != nil {
			return nil, err
		}
		point.TS = point.TS.UTC()
		out[platform] = append(out[platform], point)
	}
	return out, rows.Err()
}

// placeholderList renders "($start, $start+1, ...)" for n values.
func placeholderList(start, n int) string {
	var b strings.Builder
	b.WriteByte('(')
	for i := 0; i < n; i++ {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "$%d", start+i)
	}
	b.WriteByte(')')
	return b.String()
}

// metricColumn whitelists the metric expression interpolated into the
// series query.
func metricColumn(metric string) (string, bool) {
	switch metric {
	case timeseries.MetricViews:
		return "COALESCE(ms.views_native, 0)", true
	case timeseries.MetricLikes:
		return "COALESCE(ms.likes, 0)", true
	case timeseries.MetricComments:
		return "COALESCE(ms.comments, 0)", true
	case timeseries.MetricShares:
		return "COALESCE(ms.shares, 0)", true
	case timeseries.MetricTotalWatchSeconds:
		return "COALESCE(ms.total_watch_seconds, 0)", true
	}
	return "", false
}

// EngineStats are the operational counts the stats endpoint reports.
type EngineStats struct {
	Videos           int64      `json:"videos"`
	Sources          int64      `json:"sources"`
	LinkedSources    int64      `json:"linkedSources"`
	ActiveSources    int64      `json:"activeSources"`
	Snapshots        int64      `json:"snapshots"`
	PendingOverrides int64      `json:"pendingOverrides"`
	LastSnapshotAt   *time.Time `json:"lastSnapshotAt"`
}

func (s *VideoStore) Stats(ctx context.Context) (EngineStats, error) {
	var stats EngineStats
	err := s.pool.QueryRow(ctx, `
		SELECT
			(SELECT COUNT(*) FROM video),
			(SELECT COUNT(*) FROM source_video),
			(SELECT COUNT(*) FROM source_video WHERE video_id IS NOT NULL),
			(SELECT COUNT(*) FROM source_video WHERE is_active),
			(SELECT COUNT(*) FROM metric_snapshot),
			(SELECT COUNT(*) FROM reconcile_override),
			(SELECT MAX(snapshot_at) FROM metric_snapshot)`,
	).Scan(&stats.Videos, &stats.Sources, &stats.LinkedSources,
		&stats.ActiveSources, &stats.Snapshots, &stats.PendingOverrides,
		&stats.LastSnapshotAt)
	if err != nil {
		return EngineStats{}, fmt.Errorf("load stats: %w", err)
	}
	return stats, nil
}

func derefInt64(v *int64) int64 {
	if v == nil {
		return 0
	}
	return *v
}
