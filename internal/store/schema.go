package store

const schemaSQL = `
CREATE TABLE IF NOT EXISTS settings (
    key                  TEXT PRIMARY KEY,
    value                TEXT NOT NULL,
    updated_at           TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS obligations (
    id                   TEXT PRIMARY KEY,
    kind                 TEXT NOT NULL,
    name                 TEXT NOT NULL,
    amount               TEXT NOT NULL,
    due_at               TEXT NOT NULL,
    recurrence           TEXT NOT NULL,
    anchor_day           INTEGER NOT NULL DEFAULT 0,
    active               INTEGER NOT NULL DEFAULT 1,
    settled              INTEGER NOT NULL DEFAULT 0,
    created_at           TEXT NOT NULL,
    updated_at           TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS expenses (
    id                   TEXT PRIMARY KEY,
    amount               TEXT NOT NULL,
    category             TEXT NOT NULL DEFAULT '',
    note                 TEXT NOT NULL DEFAULT '',
    spent_at             TEXT NOT NULL,
    created_at           TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS imported_files (
    path                 TEXT PRIMARY KEY,
    mod_nanos            INTEGER NOT NULL,
    size                 INTEGER NOT NULL,
    row_count            INTEGER NOT NULL DEFAULT 0,
    imported_at          TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS sent_reminders (
    channel              TEXT NOT NULL,
    notification_id      INTEGER NOT NULL,
    day                  TEXT NOT NULL,
    sent_at              TEXT NOT NULL,
    PRIMARY KEY (channel, notification_id, day)
);

CREATE INDEX IF NOT EXISTS idx_obligations_scan ON obligations(kind, active, settled);
CREATE INDEX IF NOT EXISTS idx_obligations_due ON obligations(due_at);
CREATE INDEX IF NOT EXISTS idx_expenses_spent ON expenses(spent_at);
`

// Settings keys for the goal band. Values are decimal strings.
const (
	keyGoalMin    = "goal.min"
	keyGoalMax    = "goal.max"
	keyGoalIncome = "goal.income"
)
