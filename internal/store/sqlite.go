package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/studymind/studymind/internal/domain"
	"github.com/studymind/studymind/internal/shared"
	_ "modernc.org/sqlite"
)

// SQLiteStore implements Repository using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite creates a new SQLite-backed repository.
func NewSQLite(dbPath string) (Repository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	// Open database with WAL mode for better concurrency.
	dsn := dbPath + "?_journal=WAL&_sync=NORMAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.initSchema(); err != nil {
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return store, nil
}

func (s *SQLiteStore) initSchema() error {
	query := `
	PRAGMA busy_timeout = 5000;
	CREATE TABLE IF NOT EXISTS users (
		user_id TEXT PRIMARY KEY,
		username TEXT NOT NULL,
		tutor_name TEXT NOT NULL DEFAULT 'Alex',
		wellbeing_name TEXT NOT NULL DEFAULT 'Sage',
		study_streak INTEGER NOT NULL DEFAULT 0,
		total_study_time INTEGER NOT NULL DEFAULT 0,
		lessons_completed INTEGER NOT NULL DEFAULT 0,
		preferences_json TEXT,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS messages (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		content TEXT NOT NULL,
		sender TEXT NOT NULL,
		ai_type TEXT NOT NULL,
		created_at INTEGER NOT NULL,
		reactions_json TEXT,
		bookmarked INTEGER NOT NULL DEFAULT 0
	);
	CREATE INDEX IF NOT EXISTS idx_messages_conversation ON messages(user_id, ai_type, created_at);

	CREATE TABLE IF NOT EXISTS lessons (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		topic TEXT NOT NULL,
		subject TEXT NOT NULL,
		content_json TEXT NOT NULL,
		difficulty TEXT NOT NULL,
		completed INTEGER NOT NULL DEFAULT 0,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_lessons_user ON lessons(user_id, created_at);

	CREATE TABLE IF NOT EXISTS tests (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		lesson_id TEXT,
		questions_json TEXT NOT NULL,
		user_answers_json TEXT,
		score REAL,
		time_spent INTEGER,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_tests_user ON tests(user_id, created_at);

	CREATE TABLE IF NOT EXISTS mood_entries (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		mood TEXT NOT NULL,
		notes TEXT,
		stress_level INTEGER,
		energy_level INTEGER,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_mood_entries_user ON mood_entries(user_id, created_at);
	`
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Ping verifies database connectivity.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// GetUser retrieves a user by their user ID.
func (s *SQLiteStore) GetUser(ctx context.Context, userID string) (*domain.User, error) {
	query := `
		SELECT user_id, username, tutor_name, wellbeing_name,
		       study_streak, total_study_time, lessons_completed,
		       preferences_json, created_at, updated_at
		FROM users WHERE user_id = ?`

	row := s.db.QueryRowContext(ctx, query, userID)

	var user domain.User
	var preferencesJSON sql.NullString
	var createdAt, updatedAt int64

	err := row.Scan(
		&user.UserID, &user.Username, &user.TutorName, &user.WellbeingName,
		&user.StudyStreak, &user.TotalStudyTime, &user.LessonsCompleted,
		&preferencesJSON, &createdAt, &updatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan user row: %w", err)
	}

	if preferencesJSON.Valid && preferencesJSON.String != "" {
		if err := json.Unmarshal([]byte(preferencesJSON.String), &user.Preferences); err != nil {
			return nil, fmt.Errorf("decode user preferences: %w", err)
		}
	}
	user.CreatedAt = time.Unix(createdAt, 0)
	user.UpdatedAt = time.Unix(updatedAt, 0)

	return &user, nil
}

// UpsertUser creates or updates a user record.
func (s *SQLiteStore) UpsertUser(ctx context.Context, user *domain.User) error {
	preferencesJSON, err := json.Marshal(user.Preferences)
	if err != nil {
		return fmt.Errorf("encode user preferences: %w", err)
	}

	query := `
	INSERT INTO users (user_id, username, tutor_name, wellbeing_name,
		study_streak, total_study_time, lessons_completed,
		preferences_json, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(user_id) DO UPDATE SET
		username = excluded.username,
		tutor_name = excluded.tutor_name,
		wellbeing_name = excluded.wellbeing_name,
		preferences_json = excluded.preferences_json,
		updated_at = excluded.updated_at`

	_, err = s.db.ExecContext(ctx, query,
		user.UserID, user.Username, user.TutorName, user.WellbeingName,
		user.StudyStreak, user.TotalStudyTime, user.LessonsCompleted,
		string(preferencesJSON),
		user.CreatedAt.Unix(), user.UpdatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("upsert user: %w", err)
	}
	return nil
}

// UpdateUserStats applies a partial stats update and returns the updated user.
func (s *SQLiteStore) UpdateUserStats(ctx context.Context, userID string, stats domain.StatsUpdate) (*domain.User, error) {
	sets := "updated_at = ?"
	args := []interface{}{time.Now().Unix()}

	if stats.StudyStreak != nil {
		sets += ", study_streak = ?"
		args = append(args, *stats.StudyStreak)
	}
	if stats.TotalStudyTime != nil {
		sets += ", total_study_time = ?"
		args = append(args, *stats.TotalStudyTime)
	}
	if stats.LessonsCompleted != nil {
		sets += ", lessons_completed = ?"
		args = append(args, *stats.LessonsCompleted)
	}
	args = append(args, userID)

	result, err := s.db.ExecContext(ctx, `UPDATE users SET `+sets+` WHERE user_id = ?`, args...)
	if err != nil {
		return nil, fmt.Errorf("update user stats: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("get rows affected: %w", err)
	}
	if rows == 0 {
		return nil, fmt.Errorf("user not found")
	}

	return s.GetUser(ctx, userID)
}

// CreateMessage appends a conversation turn. Retries with exponential
// backoff when the database is briefly locked by a concurrent writer.
func (s *SQLiteStore) CreateMessage(ctx context.Context, msg *domain.Message) error {
	maxRetries := 3
	baseDelay := 50 * time.Millisecond

	var err error
	for i := 0; i < maxRetries; i++ {
		err = s.createMessageOnce(ctx, msg)
		if err == nil {
			return nil
		}
		if shared.IsSQLiteConflictError(err) && i < maxRetries-1 {
			time.Sleep(baseDelay * time.Duration(1<<i))
			continue
		}
		break
	}
	return fmt.Errorf("create message: %w", err)
}

func (s *SQLiteStore) createMessageOnce(ctx context.Context, msg *domain.Message) error {
	var reactions interface{}
	if len(msg.Reactions) > 0 {
		reactions = string(msg.Reactions)
	}

	query := `
	INSERT INTO messages (id, user_id, content, sender, ai_type, created_at, reactions_json, bookmarked)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := s.db.ExecContext(ctx, query,
		msg.ID, msg.UserID, msg.Content, string(msg.Sender), string(msg.AIType),
		msg.CreatedAt.Unix(), reactions, msg.Bookmarked,
	)
	return err
}

// ListMessages returns up to limit turns for (userID, aiType), most recent
// first. rowid breaks created_at ties so insertion order is preserved.
func (s *SQLiteStore) ListMessages(ctx context.Context, userID string, aiType domain.ConversationType, limit int) ([]*domain.Message, error) {
	query := `
		SELECT id, user_id, content, sender, ai_type, created_at, reactions_json, bookmarked
		FROM messages
		WHERE user_id = ? AND ai_type = ?
		ORDER BY created_at DESC, rowid DESC
		LIMIT ?`

	rows, err := s.db.QueryContext(ctx, query, userID, string(aiType), limit)
	if err != nil {
		return nil, fmt.Errorf("query messages: %w", err)
	}
	defer rows.Close()

	var messages []*domain.Message
	for rows.Next() {
		var msg domain.Message
		var reactionsJSON sql.NullString
		var createdAt int64

		if err := rows.Scan(
			&msg.ID, &msg.UserID, &msg.Content, &msg.Sender, &msg.AIType,
			&createdAt, &reactionsJSON, &msg.Bookmarked,
		); err != nil {
			return nil, fmt.Errorf("scan message row: %w", err)
		}

		if reactionsJSON.Valid {
			msg.Reactions = []byte(reactionsJSON.String)
		}
		msg.CreatedAt = time.Unix(createdAt, 0)
		messages = append(messages, &msg)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate messages: %w", err)
	}

	return messages, nil
}

// CreateLesson stores a generated lesson.
func (s *SQLiteStore) CreateLesson(ctx context.Context, lesson *domain.Lesson) error {
	contentJSON, err := json.Marshal(lesson.Content)
	if err != nil {
		return fmt.Errorf("encode lesson content: %w", err)
	}

	query := `
	INSERT INTO lessons (id, user_id, topic, subject, content_json, difficulty, completed, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	_, err = s.db.ExecContext(ctx, query,
		lesson.ID, lesson.UserID, lesson.Topic, lesson.Subject,
		string(contentJSON), lesson.Difficulty, lesson.Completed,
		lesson.CreatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("create lesson: %w", err)
	}
	return nil
}

// ListLessons returns the user's lessons, newest first.
func (s *SQLiteStore) ListLessons(ctx context.Context, userID string) ([]*domain.Lesson, error) {
	query := `
		SELECT id, user_id, topic, subject, content_json, difficulty, completed, created_at
		FROM lessons
		WHERE user_id = ?
		ORDER BY created_at DESC, rowid DESC`

	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("query lessons: %w", err)
	}
	defer rows.Close()

	var lessons []*domain.Lesson
	for rows.Next() {
		var lesson domain.Lesson
		var contentJSON string
		var createdAt int64

		if err := rows.Scan(
			&lesson.ID, &lesson.UserID, &lesson.Topic, &lesson.Subject,
			&contentJSON, &lesson.Difficulty, &lesson.Completed, &createdAt,
		); err != nil {
			return nil, fmt.Errorf("scan lesson row: %w", err)
		}

		if err := json.Unmarshal([]byte(contentJSON), &lesson.Content); err != nil {
			return nil, fmt.Errorf("decode lesson content: %w", err)
		}
		lesson.CreatedAt = time.Unix(createdAt, 0)
		lessons = append(lessons, &lesson)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate lessons: %w", err)
	}

	return lessons, nil
}

// CreateTest stores a generated quiz.
func (s *SQLiteStore) CreateTest(ctx context.Context, test *domain.Test) error {
	questionsJSON, err := json.Marshal(test.Questions)
	if err != nil {
		return fmt.Errorf("encode test questions: %w", err)
	}

	var lessonID interface{}
	if test.LessonID != "" {
		lessonID = test.LessonID
	}
	var userAnswers interface{}
	if len(test.UserAnswers) > 0 {
		userAnswers = string(test.UserAnswers)
	}

	query := `
	INSERT INTO tests (id, user_id, lesson_id, questions_json, user_answers_json, score, time_spent, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	_, err = s.db.ExecContext(ctx, query,
		test.ID, test.UserID, lessonID, string(questionsJSON),
		userAnswers, test.Score, test.TimeSpent,
		test.CreatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("create test: %w", err)
	}
	return nil
}

// ListTests returns the user's quizzes, newest first.
func (s *SQLiteStore) ListTests(ctx context.Context, userID string) ([]*domain.Test, error) {
	query := `
		SELECT id, user_id, lesson_id, questions_json, user_answers_json, score, time_spent, created_at
		FROM tests
		WHERE user_id = ?
		ORDER BY created_at DESC, rowid DESC`

	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("query tests: %w", err)
	}
	defer rows.Close()

	var tests []*domain.Test
	for rows.Next() {
		var test domain.Test
		var lessonID, questionsJSON, userAnswersJSON sql.NullString
		var score sql.NullFloat64
		var timeSpent sql.NullInt64
		var createdAt int64

		if err := rows.Scan(
			&test.ID, &test.UserID, &lessonID, &questionsJSON,
			&userAnswersJSON, &score, &timeSpent, &createdAt,
		); err != nil {
			return nil, fmt.Errorf("scan test row: %w", err)
		}

		test.LessonID = lessonID.String
		if questionsJSON.Valid {
			if err := json.Unmarshal([]byte(questionsJSON.String), &test.Questions); err != nil {
				return nil, fmt.Errorf("decode test questions: %w", err)
			}
		}
		if userAnswersJSON.Valid {
			test.UserAnswers = []byte(userAnswersJSON.String)
		}
		if score.Valid {
			test.Score = &score.Float64
		}
		if timeSpent.Valid {
			ts := int(timeSpent.Int64)
			test.TimeSpent = &ts
		}
		test.CreatedAt = time.Unix(createdAt, 0)
		tests = append(tests, &test)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tests: %w", err)
	}

	return tests, nil
}

// CreateMoodEntry stores a mood check-in.
func (s *SQLiteStore) CreateMoodEntry(ctx context.Context, entry *domain.MoodEntry) error {
	query := `
	INSERT INTO mood_entries (id, user_id, mood, notes, stress_level, energy_level, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?)`

	_, err := s.db.ExecContext(ctx, query,
		entry.ID, entry.UserID, entry.Mood, entry.Notes,
		entry.StressLevel, entry.EnergyLevel,
		entry.CreatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("create mood entry: %w", err)
	}
	return nil
}

// ListMoodEntries returns the user's mood check-ins, newest first.
func (s *SQLiteStore) ListMoodEntries(ctx context.Context, userID string) ([]*domain.MoodEntry, error) {
	query := `
		SELECT id, user_id, mood, notes, stress_level, energy_level, created_at
		FROM mood_entries
		WHERE user_id = ?
		ORDER BY created_at DESC, rowid DESC`

	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("query mood entries: %w", err)
	}
	defer rows.Close()

	var entries []*domain.MoodEntry
	for rows.Next() {
		var entry domain.MoodEntry
		var notes sql.NullString
		var stressLevel, energyLevel sql.NullInt64
		var createdAt int64

		if err := rows.Scan(
			&entry.ID, &entry.UserID, &entry.Mood, &notes,
			&stressLevel, &energyLevel, &createdAt,
		); err != nil {
			return nil, fmt.Errorf("scan mood entry row: %w", err)
		}

		entry.Notes = notes.String
		if stressLevel.Valid {
			v := int(stressLevel.Int64)
			entry.StressLevel = &v
		}
		if energyLevel.Valid {
			v := int(energyLevel.Int64)
			entry.EnergyLevel = &v
		}
		entry.CreatedAt = time.Unix(createdAt, 0)
		entries = append(entries, &entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate mood entries: %w", err)
	}

	return entries, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close database: %w", err)
	}
	return nil
}
