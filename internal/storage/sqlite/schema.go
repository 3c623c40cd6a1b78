package sqlite

const schemaSQL = `
-- Job listings captured from search pages.
-- fingerprint is the 12-character content hash used for deduplication; it is
-- intentionally NOT unique at the schema level so the store can report on
-- duplicates that predate a fingerprint algorithm change.
CREATE TABLE IF NOT EXISTS jobs (
	job_id TEXT PRIMARY KEY,
	title TEXT NOT NULL,
	company TEXT NOT NULL,
	url TEXT,
	website TEXT,
	fingerprint TEXT NOT NULL,
	application_status TEXT NOT NULL DEFAULT 'pending',
	match_score REAL,
	created_at INTEGER NOT NULL,
	submitted_at INTEGER,
	is_deleted INTEGER NOT NULL DEFAULT 0,
	rag_processed INTEGER NOT NULL DEFAULT 0
);

-- Full detail records captured by click-through; one row per job.
CREATE TABLE IF NOT EXISTS job_details (
	job_id TEXT PRIMARY KEY,
	salary TEXT,
	location TEXT,
	experience TEXT,
	education TEXT,
	description TEXT,
	requirements TEXT,
	benefits TEXT,
	publish_time TEXT,
	company_scale TEXT,
	industry TEXT,
	keyword TEXT,
	extracted_at INTEGER NOT NULL
);

-- Scored matches between stored jobs and resume profiles.
CREATE TABLE IF NOT EXISTS resume_matches (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	job_id TEXT NOT NULL,
	resume_profile_id TEXT NOT NULL,
	match_score REAL NOT NULL,
	semantic_score REAL NOT NULL DEFAULT 0,
	skills_score REAL NOT NULL DEFAULT 0,
	experience_score REAL NOT NULL DEFAULT 0,
	industry_score REAL NOT NULL DEFAULT 0,
	salary_score REAL NOT NULL DEFAULT 0,
	priority_level TEXT,
	match_details TEXT,
	match_reasons TEXT,
	processed INTEGER NOT NULL DEFAULT 0,
	created_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_jobs_status ON jobs(application_status, is_deleted);
CREATE INDEX IF NOT EXISTS idx_details_keyword ON job_details(keyword);
`
