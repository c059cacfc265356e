package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"github.com/manyidi1774/LegalBuddy/internal/model"
)

type chatDocumentRow struct {
	ID        string           `gorm:"type:uuid;primaryKey"`
	OwnerID   string           `gorm:"type:varchar(128);not null;index:idx_chat_documents_owner,priority:1"`
	Title     string           `gorm:"type:varchar(256);not null;default:''"`
	CreatedAt time.Time        `gorm:"not null;index:idx_chat_documents_owner,priority:2"`
	UpdatedAt time.Time        `gorm:"not null"`
	Messages  []chatMessageRow `gorm:"foreignKey:DocumentID;constraint:OnDelete:CASCADE"`
}

func (chatDocumentRow) TableName() string { return "chat_documents" }

type chatMessageRow struct {
	ID         uint      `gorm:"primaryKey"`
	DocumentID string    `gorm:"type:uuid;not null;uniqueIndex:idx_chat_messages_position,priority:1"`
	Position   int       `gorm:"not null;uniqueIndex:idx_chat_messages_position,priority:2"`
	Content    string    `gorm:"type:text;not null"`
	IsUser     bool      `gorm:"not null"`
	Timestamp  time.Time `gorm:"not null"`
}

func (chatMessageRow) TableName() string { return "chat_messages" }

type preferencesRow struct {
	OwnerID  string `gorm:"type:varchar(128);primaryKey"`
	Theme    string `gorm:"type:varchar(16);not null"`
	Language string `gorm:"type:varchar(64);not null;default:''"`
}

func (preferencesRow) TableName() string { return "preferences" }

// PostgresStore persists chats in PostgreSQL through GORM. Messages live in
// their own table with an explicit per-document position.
type PostgresStore struct {
	db  *gorm.DB
	now func() time.Time
}

// NewPostgresStore opens the database and migrates the schema.
func NewPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}

	if err := db.WithContext(ctx).AutoMigrate(&chatDocumentRow{}, &chatMessageRow{}, &preferencesRow{}); err != nil {
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}

	return &PostgresStore{db: db, now: time.Now}, nil
}

func (s *PostgresStore) FindOrCreate(ctx context.Context, ownerID string) (*model.ChatDocument, error) {
	var row *chatDocumentRow
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		row, err = s.findOrCreateRow(tx, ownerID)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("find or create chat: %w", err)
	}
	return row.toModel(), nil
}

func (s *PostgresStore) CreateDocument(ctx context.Context, ownerID, title string) (*model.ChatDocument, error) {
	row := s.newRow(ownerID, title)
	if err := s.db.WithContext(ctx).Create(row).Error; err != nil {
		return nil, fmt.Errorf("create chat: %w", err)
	}
	return row.toModel(), nil
}

func (s *PostgresStore) AppendMessage(ctx context.Context, ownerID string, msg model.Message) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		doc, err := s.findOrCreateRow(tx, ownerID)
		if err != nil {
			return err
		}

		// Row lock serialises position assignment per document.
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", doc.ID).First(&chatDocumentRow{}).Error; err != nil {
			return err
		}

		var last []chatMessageRow
		if err := tx.Where("document_id = ?", doc.ID).
			Order("position DESC").Limit(1).Find(&last).Error; err != nil {
			return err
		}

		position := 0
		ts := msg.Timestamp
		if len(last) > 0 {
			position = last[0].Position + 1
			ts = nextTimestamp(last[0].Timestamp, ts)
		}

		if err := tx.Create(&chatMessageRow{
			DocumentID: doc.ID,
			Position:   position,
			Content:    msg.Content,
			IsUser:     msg.IsUser,
			Timestamp:  ts,
		}).Error; err != nil {
			return err
		}

		return tx.Model(&chatDocumentRow{}).Where("id = ?", doc.ID).
			UpdateColumn("updated_at", s.now()).Error
	})
	if err != nil {
		return fmt.Errorf("append message: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetHistory(ctx context.Context, ownerID string) ([]model.Message, error) {
	var rows []chatDocumentRow
	err := s.withMessages(s.db.WithContext(ctx)).
		Where("owner_id = ?", ownerID).
		Order("created_at, id").Limit(1).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("get history: %w", err)
	}
	if len(rows) == 0 {
		return []model.Message{}, nil
	}
	return rows[0].toModel().Messages, nil
}

func (s *PostgresStore) ListDocuments(ctx context.Context, ownerID string) ([]model.ChatDocument, error) {
	var rows []chatDocumentRow
	err := s.withMessages(s.db.WithContext(ctx)).
		Where("owner_id = ?", ownerID).
		Order("created_at, id").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list chats: %w", err)
	}

	docs := make([]model.ChatDocument, 0, len(rows))
	for i := range rows {
		docs = append(docs, *rows[i].toModel())
	}
	return docs, nil
}

func (s *PostgresStore) RenameDocument(ctx context.Context, ownerID, docID, title string) (*model.ChatDocument, error) {
	if _, err := uuid.Parse(docID); err != nil {
		return nil, ErrNotFound
	}

	db := s.db.WithContext(ctx)
	res := db.Model(&chatDocumentRow{}).
		Where("id = ? AND owner_id = ?", docID, ownerID).
		UpdateColumn("title", title)
	if res.Error != nil {
		return nil, fmt.Errorf("rename chat: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, ErrNotFound
	}

	var row chatDocumentRow
	if err := s.withMessages(db).Where("id = ?", docID).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("rename chat: %w", err)
	}
	return row.toModel(), nil
}

func (s *PostgresStore) DeleteDocument(ctx context.Context, ownerID, docID string) error {
	if _, err := uuid.Parse(docID); err != nil {
		return ErrNotFound
	}

	res := s.db.WithContext(ctx).
		Where("id = ? AND owner_id = ?", docID, ownerID).
		Delete(&chatDocumentRow{})
	if res.Error != nil {
		return fmt.Errorf("delete chat: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) ClearAll(ctx context.Context) (int64, error) {
	res := s.db.WithContext(ctx).
		Session(&gorm.Session{AllowGlobalUpdate: true}).
		Delete(&chatDocumentRow{})
	if res.Error != nil {
		return 0, fmt.Errorf("clear chats: %w", res.Error)
	}
	return res.RowsAffected, nil
}

func (s *PostgresStore) UpsertPreferences(ctx context.Context, prefs model.Preferences) error {
	row := preferencesRow{
		OwnerID:  prefs.OwnerID,
		Theme:    string(prefs.Theme),
		Language: prefs.Language,
	}
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(&row).Error
	if err != nil {
		return fmt.Errorf("save preferences: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetPreferences(ctx context.Context, ownerID string) (*model.Preferences, error) {
	var row preferencesRow
	err := s.db.WithContext(ctx).Where("owner_id = ?", ownerID).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get preferences: %w", err)
	}
	return &model.Preferences{
		OwnerID:  row.OwnerID,
		Theme:    model.Theme(row.Theme),
		Language: row.Language,
	}, nil
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (s *PostgresStore) Close(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *PostgresStore) withMessages(db *gorm.DB) *gorm.DB {
	return db.Preload("Messages", func(db *gorm.DB) *gorm.DB {
		return db.Order("position")
	})
}

func (s *PostgresStore) newRow(ownerID, title string) *chatDocumentRow {
	now := s.now()
	return &chatDocumentRow{
		ID:        uuid.NewString(),
		OwnerID:   ownerID,
		Title:     title,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// lockOwner serializes implicit creation per owner until tx ends.
func lockOwner(tx *gorm.DB, ownerID string) *gorm.DB {
	return tx.Exec("SELECT pg_advisory_xact_lock(hashtext(?))", ownerID)
}

// findOrCreateRow must run inside a transaction.
func (s *PostgresStore) findOrCreateRow(tx *gorm.DB, ownerID string) (*chatDocumentRow, error) {
	if err := lockOwner(tx, ownerID).Error; err != nil {
		return nil, err
	}

	var rows []chatDocumentRow
	err := s.withMessages(tx).
		Where("owner_id = ?", ownerID).
		Order("created_at, id").Limit(1).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	if len(rows) > 0 {
		return &rows[0], nil
	}

	row := s.newRow(ownerID, "")
	if err := tx.Create(row).Error; err != nil {
		return nil, err
	}
	return row, nil
}

func (r *chatDocumentRow) toModel() *model.ChatDocument {
	msgs := make([]model.Message, len(r.Messages))
	for i, m := range r.Messages {
		msgs[i] = model.Message{Content: m.Content, IsUser: m.IsUser, Timestamp: m.Timestamp}
	}
	return &model.ChatDocument{
		ID:        r.ID,
		OwnerID:   r.OwnerID,
		Title:     r.Title,
		Messages:  msgs,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

var _ Store = (*PostgresStore)(nil)
