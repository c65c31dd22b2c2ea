package provision

// seedStatements is the fixed partition schema: the base table set every
// tenant starts with. The statements are unqualified; the create
// transaction points search_path at the new schema before running them.
var seedStatements = []string{
	`CREATE TABLE users (
		id uuid PRIMARY KEY,
		email text NOT NULL UNIQUE,
		password_hash text NOT NULL,
		role text NOT NULL DEFAULT 'member',
		created_at timestamptz NOT NULL DEFAULT now(),
		updated_at timestamptz NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE departments (
		id uuid PRIMARY KEY,
		name text NOT NULL,
		created_at timestamptz NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE employees (
		id uuid PRIMARY KEY,
		user_id uuid REFERENCES users (id) ON DELETE SET NULL,
		department_id uuid REFERENCES departments (id) ON DELETE SET NULL,
		first_name text NOT NULL,
		last_name text NOT NULL,
		position text NOT NULL DEFAULT '',
		hired_at date,
		created_at timestamptz NOT NULL DEFAULT now(),
		updated_at timestamptz NOT NULL DEFAULT now()
	)`,
}
