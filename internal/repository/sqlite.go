package repository

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite" // Pure Go SQLite driver - no CGO required
)

// OpenSQLite opens the marketplace database with WAL mode and creates the
// schema if missing. SQLite supports a single writer, so the pool is pinned
// to one connection.
func OpenSQLite(dbPath string) (*sql.DB, error) {
	dsn := fmt.Sprintf("%s?_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_pragma=busy_timeout(5000)", dbPath)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := createTables(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return db, nil
}

func createTables(db *sql.DB) error {
	query := `
	CREATE TABLE IF NOT EXISTS profiles (
		id TEXT PRIMARY KEY,
		email TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		full_name TEXT NOT NULL,
		phone TEXT NOT NULL DEFAULT '',
		avatar_url TEXT NOT NULL DEFAULT '',
		role TEXT NOT NULL DEFAULT 'renter',
		email_verified INTEGER NOT NULL DEFAULT 0,
		phone_verified INTEGER NOT NULL DEFAULT 0,
		identity_verified INTEGER NOT NULL DEFAULT 0,
		rating REAL NOT NULL DEFAULT 0,
		review_count INTEGER NOT NULL DEFAULT 0,
		trust_score INTEGER NOT NULL DEFAULT 0,
		currency TEXT NOT NULL DEFAULT 'USD',
		status TEXT NOT NULL DEFAULT 'active',
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS reset_tokens (
		token TEXT PRIMARY KEY,
		profile_id TEXT NOT NULL REFERENCES profiles(id),
		expires_at DATETIME NOT NULL,
		used INTEGER NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS tools (
		id TEXT PRIMARY KEY,
		owner_id TEXT NOT NULL REFERENCES profiles(id),
		title TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		category TEXT NOT NULL DEFAULT '',
		location TEXT NOT NULL DEFAULT '',
		image_url TEXT NOT NULL DEFAULT '',
		pricing_type TEXT NOT NULL,
		daily_rate_cents INTEGER NOT NULL DEFAULT 0,
		hourly_rate_cents INTEGER NOT NULL DEFAULT 0,
		weekly_rate_cents INTEGER NOT NULL DEFAULT 0,
		current_bid_cents INTEGER NOT NULL DEFAULT 0,
		reserve_bid_cents INTEGER NOT NULL DEFAULT 0,
		operator_available INTEGER NOT NULL DEFAULT 0,
		operator_hourly_rate_cents INTEGER NOT NULL DEFAULT 0,
		insurance_offered INTEGER NOT NULL DEFAULT 0,
		insurance_basic_daily_cents INTEGER NOT NULL DEFAULT 0,
		insurance_premium_daily_cents INTEGER NOT NULL DEFAULT 0,
		available_from DATETIME,
		available_to DATETIME,
		rating REAL NOT NULL DEFAULT 0,
		review_count INTEGER NOT NULL DEFAULT 0,
		view_count INTEGER NOT NULL DEFAULT 0,
		favorite_count INTEGER NOT NULL DEFAULT 0,
		status TEXT NOT NULL DEFAULT 'active',
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_tools_owner ON tools(owner_id);
	CREATE INDEX IF NOT EXISTS idx_tools_status ON tools(status);

	CREATE TABLE IF NOT EXISTS favorites (
		tool_id TEXT NOT NULL REFERENCES tools(id),
		profile_id TEXT NOT NULL REFERENCES profiles(id),
		PRIMARY KEY (tool_id, profile_id)
	);

	CREATE TABLE IF NOT EXISTS bookings (
		id TEXT PRIMARY KEY,
		tool_id TEXT NOT NULL REFERENCES tools(id),
		renter_id TEXT NOT NULL REFERENCES profiles(id),
		owner_id TEXT NOT NULL REFERENCES profiles(id),
		start_date DATETIME NOT NULL,
		end_date DATETIME NOT NULL,
		include_operator INTEGER NOT NULL DEFAULT 0,
		include_insurance INTEGER NOT NULL DEFAULT 0,
		insurance_tier TEXT NOT NULL DEFAULT '',
		duration_days INTEGER NOT NULL,
		tool_cost_cents INTEGER NOT NULL,
		operator_cost_cents INTEGER NOT NULL,
		insurance_cost_cents INTEGER NOT NULL,
		platform_fee_cents INTEGER NOT NULL,
		tax_cents INTEGER NOT NULL,
		total_cents INTEGER NOT NULL,
		status TEXT NOT NULL DEFAULT 'pending',
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_bookings_renter ON bookings(renter_id);
	CREATE INDEX IF NOT EXISTS idx_bookings_owner ON bookings(owner_id);

	CREATE TABLE IF NOT EXISTS bids (
		id TEXT PRIMARY KEY,
		tool_id TEXT NOT NULL REFERENCES tools(id),
		bidder_id TEXT NOT NULL REFERENCES profiles(id),
		amount_cents INTEGER NOT NULL,
		status TEXT NOT NULL DEFAULT 'active',
		expires_at DATETIME NOT NULL,
		created_at DATETIME NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_bids_tool ON bids(tool_id);
	CREATE INDEX IF NOT EXISTS idx_bids_bidder ON bids(bidder_id);
	CREATE INDEX IF NOT EXISTS idx_bids_expiry ON bids(status, expires_at);

	CREATE TABLE IF NOT EXISTS chats (
		id TEXT PRIMARY KEY,
		participant_a TEXT NOT NULL REFERENCES profiles(id),
		participant_b TEXT NOT NULL REFERENCES profiles(id),
		tool_id TEXT NOT NULL DEFAULT '',
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL,
		UNIQUE (participant_a, participant_b)
	);

	CREATE TABLE IF NOT EXISTS messages (
		id TEXT PRIMARY KEY,
		chat_id TEXT NOT NULL REFERENCES chats(id),
		sender_id TEXT NOT NULL REFERENCES profiles(id),
		content TEXT NOT NULL,
		read INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_messages_chat ON messages(chat_id, created_at);

	CREATE TABLE IF NOT EXISTS reviews (
		id TEXT PRIMARY KEY,
		booking_id TEXT NOT NULL REFERENCES bookings(id),
		tool_id TEXT NOT NULL REFERENCES tools(id),
		reviewer_id TEXT NOT NULL REFERENCES profiles(id),
		reviewee_id TEXT NOT NULL REFERENCES profiles(id),
		rating INTEGER NOT NULL,
		comment TEXT NOT NULL DEFAULT '',
		created_at DATETIME NOT NULL,
		UNIQUE (booking_id, reviewer_id)
	);
	CREATE INDEX IF NOT EXISTS idx_reviews_tool ON reviews(tool_id);

	CREATE TABLE IF NOT EXISTS notifications (
		id TEXT PRIMARY KEY,
		profile_id TEXT NOT NULL REFERENCES profiles(id),
		kind TEXT NOT NULL,
		title TEXT NOT NULL,
		body TEXT NOT NULL DEFAULT '',
		read INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_notifications_profile ON notifications(profile_id, read);
	`
	_, err := db.Exec(query)
	return err
}
