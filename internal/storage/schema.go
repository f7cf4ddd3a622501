// internal/storage/schema.go
package storage

const schema = `
CREATE TABLE IF NOT EXISTS users (
	id          UUID PRIMARY KEY,
	name        TEXT NOT NULL,
	email       TEXT NOT NULL,
	password    TEXT NOT NULL,
	salt        TEXT NOT NULL,
	role        TEXT NOT NULL,
	phone       TEXT NOT NULL DEFAULT '',
	address     TEXT NOT NULL DEFAULT '',
	created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS categories (
	id          UUID PRIMARY KEY,
	name        TEXT NOT NULL,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS books (
	id               UUID PRIMARY KEY,
	title            TEXT NOT NULL,
	author           TEXT NOT NULL,
	isbn             TEXT NOT NULL,
	publisher        TEXT NOT NULL DEFAULT '',
	published_year   INT NOT NULL DEFAULT 0,
	category_id      UUID,
	legacy_category  TEXT NOT NULL DEFAULT '',
	description      TEXT NOT NULL DEFAULT '',
	cover_image      TEXT NOT NULL DEFAULT '',
	total_copies     INT NOT NULL,
	available_copies INT NOT NULL,
	status           TEXT NOT NULL,
	created_at       TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at       TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS loans (
	id          UUID PRIMARY KEY,
	book_id     UUID NOT NULL,
	user_id     UUID NOT NULL,
	loan_date   TIMESTAMPTZ NOT NULL,
	due_date    TIMESTAMPTZ NOT NULL,
	return_date TIMESTAMPTZ,
	status      TEXT NOT NULL,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS reservations (
	id               UUID PRIMARY KEY,
	book_id          UUID NOT NULL,
	user_id          UUID NOT NULL,
	reservation_date TIMESTAMPTZ NOT NULL,
	expiry_date      TIMESTAMPTZ NOT NULL,
	status           TEXT NOT NULL,
	created_at       TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at       TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
`
