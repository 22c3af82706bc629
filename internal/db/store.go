package db

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/microcosm-cc/bluemonday"
	"github.com/pgvector/pgvector-go"

	"github.com/granada/donor-discovery/internal/ai"
	"github.com/granada/donor-discovery/internal/models"
	"github.com/granada/donor-discovery/internal/search"
)

const defaultLimit = 20

// ErrNotFound reports that no opportunity has the requested id. Other
// lookup failures keep their pgx error so transient faults are not
// misreported as missing rows.
var ErrNotFound = errors.New("opportunity not found")

// Store executes opportunity searches against Postgres. It implements
// search.Service: the standard tier ranks by full-text rank, the enhanced
// tier ranks by embedding similarity and falls back to keyword ranking
// when the embedder is unavailable.
type Store struct {
	pool      *pgxpool.Pool
	embedder  ai.Embedder
	sanitizer *bluemonday.Policy
}

func NewStore(pool *pgxpool.Pool, embedder ai.Embedder) *Store {
	return &Store{
		pool:      pool,
		embedder:  embedder,
		sanitizer: bluemonday.UGCPolicy(),
	}
}

const selectCols = `id, title, description, donor_name, donor_country, donor_type, donor_website,
	amount_min, amount_max, currency, application_deadline, is_verified,
	focus_areas, eligibility, contact_email, contact_phone, application_url,
	source_url, last_updated`

func scanOpportunity(scan func(dest ...interface{}) error) (models.Opportunity, error) {
	var o models.Opportunity
	var amountMin, amountMax *float64
	var deadline *time.Time
	var contactEmail, contactPhone, applicationURL *string
	var matchScore *int

	err := scan(
		&o.ID, &o.Title, &o.Description, &o.Donor.Name, &o.Donor.Country, &o.Donor.Type, &o.Donor.Website,
		&amountMin, &amountMax, &o.FundingAmount.Currency, &deadline, &o.IsVerified,
		&o.FocusAreas, &o.Eligibility.Requirements, &contactEmail, &contactPhone, &applicationURL,
		&o.SourceURL, &o.LastUpdated,
		&matchScore,
	)
	if err != nil {
		return o, err
	}

	o.FundingAmount.Min = amountMin
	o.FundingAmount.Max = amountMax
	o.Deadline.Application = deadline
	o.MatchScore = matchScore

	if contactEmail != nil || contactPhone != nil || applicationURL != nil {
		o.ContactInfo = &models.ContactInfo{}
		if contactEmail != nil {
			o.ContactInfo.Email = *contactEmail
		}
		if contactPhone != nil {
			o.ContactInfo.Phone = *contactPhone
		}
		if applicationURL != nil {
			o.ContactInfo.ApplicationURL = *applicationURL
		}
	}

	o.Normalize()
	return o, nil
}

// searchClauses builds the WHERE clause for a request. A country selection
// also matches the "Global" sentinel so worldwide opportunities are never
// filtered out.
func searchClauses(req search.Request) (string, []interface{}) {
	where := "WHERE 1=1"
	var args []interface{}
	argIdx := 1

	if req.Query != "" {
		where += fmt.Sprintf(" AND (search_vector @@ plainto_tsquery('english', $%d) OR title ILIKE '%%' || $%d || '%%')", argIdx, argIdx)
		args = append(args, req.Query)
		argIdx++
	}
	if len(req.Filters.Countries) > 0 {
		where += fmt.Sprintf(" AND (donor_country = ANY($%d) OR donor_country = $%d)", argIdx, argIdx+1)
		args = append(args, req.Filters.Countries, models.CountryGlobal)
		argIdx += 2
	}
	if len(req.Filters.Sectors) > 0 {
		where += fmt.Sprintf(" AND focus_areas && $%d", argIdx)
		args = append(args, req.Filters.Sectors)
		argIdx++
	}
	if len(req.Filters.DonorTypes) > 0 {
		where += fmt.Sprintf(" AND donor_type = ANY($%d)", argIdx)
		args = append(args, req.Filters.DonorTypes)
		argIdx++
	}
	if req.Filters.FundingRange.Min != nil {
		where += fmt.Sprintf(" AND amount_max >= $%d", argIdx)
		args = append(args, *req.Filters.FundingRange.Min)
		argIdx++
	}
	if req.Filters.FundingRange.Max != nil {
		where += fmt.Sprintf(" AND amount_min <= $%d", argIdx)
		args = append(args, *req.Filters.FundingRange.Max)
		argIdx++
	}
	if req.Filters.Verified {
		where += " AND is_verified = TRUE"
	}

	return where, args
}

// Search implements search.Service.
func (s *Store) Search(ctx context.Context, req search.Request) (*search.Result, error) {
	if err := req.Filters.Validate(); err != nil {
		return nil, err
	}
	if req.Limit <= 0 || req.Limit > 100 {
		req.Limit = defaultLimit
	}
	if req.Offset < 0 {
		req.Offset = 0
	}

	// Enhanced tier: embed the query for semantic ranking. On embedder
	// failure we fall back to keyword ranking rather than failing the
	// search.
	var queryEmbedding []float32
	if req.Enhanced && req.Query != "" && s.embedder != nil {
		embedCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		vec, err := s.embedder.GenerateEmbedding(embedCtx, req.Query)
		cancel()
		if err != nil {
			log.Printf("query embedding failed, falling back to keyword ranking: %v", err)
		} else {
			queryEmbedding = vec
		}
	}

	where, args := searchClauses(req)

	var total int
	countSQL := "SELECT COUNT(*) FROM opportunities " + where
	if err := s.pool.QueryRow(ctx, countSQL, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count failed: %w", err)
	}

	argIdx := len(args) + 1
	var scoreCol, orderBy string
	switch {
	case len(queryEmbedding) > 0:
		scoreCol = fmt.Sprintf("ROUND(GREATEST(1 - (embedding <=> $%d), 0) * 100)::int", argIdx)
		orderBy = fmt.Sprintf(`
			ORDER BY
				CASE WHEN embedding IS NULL THEN 1 ELSE 0 END ASC,
				COALESCE(1 - (embedding <=> $%d), -1) DESC,
				last_updated DESC
		`, argIdx)
		args = append(args, pgvector.NewVector(queryEmbedding))
		argIdx++
	case req.Query != "":
		scoreCol = fmt.Sprintf("ROUND(LEAST(ts_rank(search_vector, plainto_tsquery('english', $%d::text)), 1) * 100)::int", argIdx)
		orderBy = fmt.Sprintf(" ORDER BY ts_rank(search_vector, plainto_tsquery('english', $%d::text)) DESC, last_updated DESC", argIdx)
		args = append(args, req.Query)
		argIdx++
	default:
		scoreCol = "NULL::int"
		orderBy = " ORDER BY last_updated DESC, created_at DESC"
	}

	selectSQL := fmt.Sprintf("SELECT %s, %s AS match_score FROM opportunities %s%s LIMIT $%d OFFSET $%d",
		selectCols, scoreCol, where, orderBy, argIdx, argIdx+1)
	args = append(args, req.Limit, req.Offset)

	rows, err := s.pool.Query(ctx, selectSQL, args...)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	var opps []models.Opportunity
	for rows.Next() {
		o, err := scanOpportunity(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan failed: %w", err)
		}
		opps = append(opps, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration failed: %w", err)
	}

	if opps == nil {
		opps = []models.Opportunity{}
	}

	return &search.Result{Opportunities: opps, Total: total}, nil
}

func (s *Store) GetOpportunity(ctx context.Context, id string) (*models.Opportunity, error) {
	sql := fmt.Sprintf("SELECT %s, NULL::int AS match_score FROM opportunities WHERE id = $1", selectCols)
	row := s.pool.QueryRow(ctx, sql, id)

	o, err := scanOpportunity(row.Scan)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get opportunity: %w", err)
	}

	return &o, nil
}

// InsertOpportunity upserts one opportunity, keyed on source_url. The
// description is sanitized before storage since it may carry HTML from the
// donor's site.
func (s *Store) InsertOpportunity(ctx context.Context, o models.Opportunity) error {
	o.Normalize()
	description := s.sanitizer.Sanitize(o.Description)

	var contactEmail, contactPhone, applicationURL *string
	if o.ContactInfo != nil {
		if o.ContactInfo.Email != "" {
			contactEmail = &o.ContactInfo.Email
		}
		if o.ContactInfo.Phone != "" {
			contactPhone = &o.ContactInfo.Phone
		}
		if o.ContactInfo.ApplicationURL != "" {
			applicationURL = &o.ContactInfo.ApplicationURL
		}
	}

	_, err := s.pool.Exec(ctx, `
		INSERT INTO opportunities (
			title, description, donor_name, donor_country, donor_type, donor_website,
			amount_min, amount_max, currency, application_deadline, is_verified,
			focus_areas, eligibility, contact_email, contact_phone, application_url, source_url
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		ON CONFLICT (source_url) WHERE source_url <> '' DO UPDATE SET
			title = EXCLUDED.title,
			description = EXCLUDED.description,
			amount_min = EXCLUDED.amount_min,
			amount_max = EXCLUDED.amount_max,
			application_deadline = EXCLUDED.application_deadline,
			last_updated = NOW()
	`,
		o.Title, description, o.Donor.Name, o.Donor.Country, string(o.Donor.Type), o.Donor.Website,
		o.FundingAmount.Min, o.FundingAmount.Max, o.FundingAmount.Currency, o.Deadline.Application, o.IsVerified,
		o.FocusAreas, o.Eligibility.Requirements, contactEmail, contactPhone, applicationURL, o.SourceURL,
	)
	if err != nil {
		return fmt.Errorf("insert opportunity: %w", err)
	}
	return nil
}

// Bookmarks

func (s *Store) Bookmark(ctx context.Context, userID, oppID uuid.UUID) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO bookmarks (user_id, opportunity_id)
		VALUES ($1, $2)
		ON CONFLICT (user_id, opportunity_id) DO NOTHING
	`, userID, oppID)
	return err
}

func (s *Store) Unbookmark(ctx context.Context, userID, oppID uuid.UUID) error {
	_, err := s.pool.Exec(ctx, `
		DELETE FROM bookmarks
		WHERE user_id = $1 AND opportunity_id = $2
	`, userID, oppID)
	return err
}

func (s *Store) ListBookmarks(ctx context.Context, userID uuid.UUID) ([]models.Opportunity, error) {
	sql := fmt.Sprintf(`
		SELECT %s, NULL::int AS match_score
		FROM opportunities o
		JOIN bookmarks b ON o.id = b.opportunity_id
		WHERE b.user_id = $1
		ORDER BY b.saved_at DESC
	`, qualifiedSelectCols())
	rows, err := s.pool.Query(ctx, sql, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var opps []models.Opportunity
	for rows.Next() {
		o, err := scanOpportunity(rows.Scan)
		if err != nil {
			return nil, err
		}
		opps = append(opps, o)
	}
	return opps, rows.Err()
}

func qualifiedSelectCols() string {
	return `o.id, o.title, o.description, o.donor_name, o.donor_country, o.donor_type, o.donor_website,
	o.amount_min, o.amount_max, o.currency, o.application_deadline, o.is_verified,
	o.focus_areas, o.eligibility, o.contact_email, o.contact_phone, o.application_url,
	o.source_url, o.last_updated`
}
