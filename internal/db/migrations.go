package db

import "gorm.io/gorm"

func execAll(tx *gorm.DB, stmts ...string) error {
	for _, s := range stmts {
		if err := tx.Exec(s).Error; err != nil {
			return err
		}
	}
	return nil
}

// Migrations is the ordered schema history. The first three entries
// retrace how the schema actually evolved: integer keys first, then
// varchar caps, then the switch to UUID keys. Append new migrations at
// the end, never edit applied ones.
var Migrations = []Migration{
	{
		ID: "0001_initial_tables",
		Up: func(tx *gorm.DB) error {
			return execAll(tx,
				`CREATE TABLE "user" (
					id SERIAL PRIMARY KEY,
					email VARCHAR NOT NULL UNIQUE,
					full_name VARCHAR,
					hashed_password VARCHAR NOT NULL,
					is_active BOOLEAN NOT NULL DEFAULT TRUE,
					is_superuser BOOLEAN NOT NULL DEFAULT FALSE,
					is_part_of_lab BOOLEAN NOT NULL DEFAULT FALSE,
					can_edit_items BOOLEAN NOT NULL DEFAULT FALSE,
					can_edit_labs BOOLEAN NOT NULL DEFAULT FALSE,
					can_edit_users BOOLEAN NOT NULL DEFAULT FALSE
				)`,
				`CREATE TABLE item (
					id SERIAL PRIMARY KEY,
					item_name VARCHAR NOT NULL,
					current_room VARCHAR,
					table_name VARCHAR,
					system_name VARCHAR,
					current_owner_id INTEGER REFERENCES "user"(id),
					taken_at TIMESTAMPTZ,
					item_img_url VARCHAR,
					item_vendor VARCHAR,
					item_params VARCHAR,
					is_available BOOLEAN NOT NULL DEFAULT TRUE
				)`,
				`CREATE TABLE room (
					id SERIAL PRIMARY KEY,
					room_number VARCHAR NOT NULL,
					room_place VARCHAR NOT NULL,
					room_owner_id INTEGER REFERENCES "user"(id)
				)`,
			)
		},
		Down: func(tx *gorm.DB) error {
			return execAll(tx,
				`DROP TABLE room`,
				`DROP TABLE item`,
				`DROP TABLE "user"`,
			)
		},
	},
	{
		ID: "0002_varchar_255",
		Up: func(tx *gorm.DB) error {
			return alterVarchar(tx, "VARCHAR(255)")
		},
		Down: func(tx *gorm.DB) error {
			return alterVarchar(tx, "VARCHAR")
		},
	},
	{
		ID: "0003_uuid_primary_keys",
		Up: func(tx *gorm.DB) error {
			return execAll(tx,
				`CREATE EXTENSION IF NOT EXISTS "uuid-ossp"`,

				// New UUID columns alongside the integer ones.
				`ALTER TABLE "user" ADD COLUMN new_user_id UUID`,
				`ALTER TABLE item ADD COLUMN new_item_id UUID`,
				`ALTER TABLE item ADD COLUMN new_current_owner_id UUID`,
				`ALTER TABLE room ADD COLUMN new_room_id UUID`,
				`ALTER TABLE room ADD COLUMN new_room_owner_id UUID`,

				// Mint ids, then rewrite the references through the old
				// integer keys.
				`UPDATE "user" SET new_user_id = uuid_generate_v4()`,
				`UPDATE item SET new_item_id = uuid_generate_v4()`,
				`UPDATE item SET new_current_owner_id =
					(SELECT new_user_id FROM "user" WHERE "user".id = item.current_owner_id)`,
				`UPDATE room SET new_room_id = uuid_generate_v4()`,
				`UPDATE room SET new_room_owner_id =
					(SELECT new_user_id FROM "user" WHERE "user".id = room.room_owner_id)`,

				`ALTER TABLE "user" ALTER COLUMN new_user_id SET NOT NULL`,
				`ALTER TABLE item ALTER COLUMN new_item_id SET NOT NULL`,
				`ALTER TABLE room ALTER COLUMN new_room_id SET NOT NULL`,

				// Swap the columns in.
				`ALTER TABLE item DROP CONSTRAINT item_current_owner_id_fkey`,
				`ALTER TABLE item DROP COLUMN current_owner_id`,
				`ALTER TABLE item RENAME COLUMN new_current_owner_id TO current_owner_id`,
				`ALTER TABLE "user" DROP COLUMN id`,
				`ALTER TABLE "user" RENAME COLUMN new_user_id TO user_id`,
				`ALTER TABLE item DROP COLUMN id`,
				`ALTER TABLE item RENAME COLUMN new_item_id TO item_id`,
				`ALTER TABLE room DROP CONSTRAINT room_room_owner_id_fkey`,
				`ALTER TABLE room DROP COLUMN room_owner_id`,
				`ALTER TABLE room RENAME COLUMN new_room_owner_id TO room_owner_id`,
				`ALTER TABLE room DROP COLUMN id`,
				`ALTER TABLE room RENAME COLUMN new_room_id TO room_id`,

				`ALTER TABLE "user" ADD CONSTRAINT user_pkey PRIMARY KEY (user_id)`,
				`ALTER TABLE item ADD CONSTRAINT item_pkey PRIMARY KEY (item_id)`,
				`ALTER TABLE room ADD CONSTRAINT room_pkey PRIMARY KEY (room_id)`,

				// Owner references vanish when the owning user goes away,
				// the row itself stays.
				`ALTER TABLE item ADD CONSTRAINT item_current_owner_id_fkey
					FOREIGN KEY (current_owner_id) REFERENCES "user"(user_id) ON DELETE SET NULL`,
				`ALTER TABLE room ADD CONSTRAINT room_room_owner_id_fkey
					FOREIGN KEY (room_owner_id) REFERENCES "user"(user_id) ON DELETE SET NULL`,
			)
		},
		Down: func(tx *gorm.DB) error {
			return execAll(tx,
				`ALTER TABLE "user" ADD COLUMN old_id SERIAL`,
				`ALTER TABLE item ADD COLUMN old_id SERIAL`,
				`ALTER TABLE item ADD COLUMN old_current_owner_id INTEGER`,
				`ALTER TABLE room ADD COLUMN old_id SERIAL`,
				`ALTER TABLE room ADD COLUMN old_room_owner_id INTEGER`,

				`UPDATE item SET old_current_owner_id =
					(SELECT old_id FROM "user" WHERE "user".user_id = item.current_owner_id)`,
				`UPDATE room SET old_room_owner_id =
					(SELECT old_id FROM "user" WHERE "user".user_id = room.room_owner_id)`,

				`ALTER TABLE item DROP CONSTRAINT item_current_owner_id_fkey`,
				`ALTER TABLE item DROP COLUMN current_owner_id`,
				`ALTER TABLE item RENAME COLUMN old_current_owner_id TO current_owner_id`,
				`ALTER TABLE "user" DROP COLUMN user_id`,
				`ALTER TABLE "user" RENAME COLUMN old_id TO id`,
				`ALTER TABLE item DROP COLUMN item_id`,
				`ALTER TABLE item RENAME COLUMN old_id TO id`,
				`ALTER TABLE room DROP CONSTRAINT room_room_owner_id_fkey`,
				`ALTER TABLE room DROP COLUMN room_owner_id`,
				`ALTER TABLE room RENAME COLUMN old_room_owner_id TO room_owner_id`,
				`ALTER TABLE room DROP COLUMN room_id`,
				`ALTER TABLE room RENAME COLUMN old_id TO id`,

				`ALTER TABLE "user" ADD CONSTRAINT user_pkey PRIMARY KEY (id)`,
				`ALTER TABLE item ADD CONSTRAINT item_pkey PRIMARY KEY (id)`,
				`ALTER TABLE room ADD CONSTRAINT room_pkey PRIMARY KEY (id)`,

				`ALTER TABLE item ADD CONSTRAINT item_current_owner_id_fkey
					FOREIGN KEY (current_owner_id) REFERENCES "user"(id)`,
				`ALTER TABLE room ADD CONSTRAINT room_room_owner_id_fkey
					FOREIGN KEY (room_owner_id) REFERENCES "user"(id)`,
			)
		},
	},
	{
		ID: "0004_audit_logs",
		Up: func(tx *gorm.DB) error {
			return execAll(tx,
				`CREATE TABLE audit_logs (
					id BIGSERIAL PRIMARY KEY,
					user_id UUID,
					action VARCHAR NOT NULL,
					metadata JSONB NOT NULL DEFAULT '{}'::jsonb,
					created_at TIMESTAMPTZ NOT NULL DEFAULT now()
				)`,
				`CREATE INDEX idx_audit_logs_user_id ON audit_logs(user_id)`,
			)
		},
		Down: func(tx *gorm.DB) error {
			return execAll(tx, `DROP TABLE audit_logs`)
		},
	},
}

var varcharColumns = []struct {
	table, column string
}{
	{`"user"`, "email"},
	{`"user"`, "full_name"},
	{"item", "item_name"},
	{"item", "current_room"},
	{"item", "table_name"},
	{"item", "system_name"},
	{"item", "item_img_url"},
	{"item", "item_vendor"},
	{"item", "item_params"},
	{"room", "room_number"},
	{"room", "room_place"},
}

func alterVarchar(tx *gorm.DB, typ string) error {
	for _, c := range varcharColumns {
		stmt := `ALTER TABLE ` + c.table + ` ALTER COLUMN ` + c.column + ` TYPE ` + typ
		if err := tx.Exec(stmt).Error; err != nil {
			return err
		}
	}
	return nil
}
