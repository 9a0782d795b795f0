// Package store persists feedback in a local SQLite database.
package store

// schema is applied on every open; statements are idempotent.
const schema = `
	CREATE TABLE IF NOT EXISTS feedback (
		id TEXT PRIMARY KEY,
		artworkId TEXT NOT NULL,
		artworkVersion INTEGER NOT NULL,
		parentId TEXT REFERENCES feedback(id),
		kind TEXT NOT NULL CHECK (kind IN ('TEXT', 'AUDIO')),
		content TEXT NOT NULL DEFAULT '',
		audioRef TEXT,
		audioUrl TEXT,
		posX REAL,
		posY REAL,
		status TEXT NOT NULL DEFAULT 'OPEN' CHECK (status IN ('OPEN', 'RESOLVED')),
		authorName TEXT NOT NULL,
		authorContact TEXT,
		createdAt REAL NOT NULL,
		updatedAt REAL NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_feedback_artwork
		ON feedback(artworkId, artworkVersion, createdAt);

	CREATE INDEX IF NOT EXISTS idx_feedback_parent
		ON feedback(parentId, createdAt);

	CREATE INDEX IF NOT EXISTS idx_feedback_audio
		ON feedback(audioRef);
`

// columns is the select list shared by every feedback query.
const columns = `id, artworkId, artworkVersion, parentId, kind, content, audioRef, audioUrl,
	posX, posY, status, authorName, authorContact, createdAt`
