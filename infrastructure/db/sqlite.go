package db

import (
	"context"
	"errors"
	"time"

	"github.com/prasetyowira/qrtag/constant"
	"github.com/prasetyowira/qrtag/domain/form"
	"github.com/prasetyowira/qrtag/domain/symbol"
	appLogger "github.com/prasetyowira/qrtag/infrastructure/logger"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

// SQLiteRepository implements form.Repository interface
type SQLiteRepository struct {
	db *gorm.DB
}

// SessionModel is the GORM model for a form session snapshot
type SessionModel struct {
	ID        string `gorm:"primaryKey"`
	Input     string
	TaggedURL string
	Counter   int    `gorm:"not null"`
	Format    string `gorm:"not null"`
	Color     string `gorm:"not null"`
	Size      int    `gorm:"not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// GenerationModel is the GORM model for one generation within a session
type GenerationModel struct {
	ID        uint   `gorm:"primaryKey"`
	SessionID string `gorm:"index;not null"`
	Sequence  int    `gorm:"not null"`
	Reference string `gorm:"not null"`
	TaggedURL string `gorm:"not null"`
	Format    string
	CreatedAt time.Time
}

// GormLogger implements GORM's logger.Interface
type GormLogger struct{}

// LogMode implements the log.Interface method
func (l *GormLogger) LogMode(level gormLogger.LogLevel) gormLogger.Interface {
	return l
}

// Info logs info messages
func (l *GormLogger) Info(ctx context.Context, msg string, data ...interface{}) {
	appLogger.CtxInfo(ctx, msg, appLogger.LoggerInfo{
		ContextFunction: constant.CtxDB,
		Data: map[string]interface{}{
			constant.DataData: data,
		},
	})
}

// Warn logs warn messages
func (l *GormLogger) Warn(ctx context.Context, msg string, data ...interface{}) {
	appLogger.CtxWarn(ctx, msg, appLogger.LoggerInfo{
		ContextFunction: constant.CtxDB,
		Data: map[string]interface{}{
			constant.DataData: data,
		},
	})
}

// Error logs error messages
func (l *GormLogger) Error(ctx context.Context, msg string, data ...interface{}) {
	appLogger.CtxError(ctx, msg, appLogger.LoggerInfo{
		ContextFunction: constant.CtxDB,
		Error: &appLogger.CustomError{
			Code:    constant.ErrCodeDBGeneral,
			Message: msg,
			Type:    constant.ErrTypeDB,
		},
		Data: map[string]interface{}{
			constant.DataData: data,
		},
	})
}

// Trace logs SQL operations. Missing records are expected lookups, not errors.
func (l *GormLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	elapsed := time.Since(begin)
	sql, rows := fc()

	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		appLogger.CtxError(ctx, "SQL error", appLogger.LoggerInfo{
			ContextFunction: constant.CtxDB,
			Error: &appLogger.CustomError{
				Code:    constant.ErrCodeDBGeneral,
				Message: err.Error(),
				Type:    constant.ErrTypeDB,
			},
			Data: map[string]interface{}{
				constant.DataElapsed: elapsed.String(),
				constant.DataRows:    rows,
				constant.DataSQL:     sql,
			},
		})
		return
	}

	appLogger.CtxDebug(ctx, "SQL query", appLogger.LoggerInfo{
		ContextFunction: constant.CtxDB,
		Data: map[string]interface{}{
			constant.DataElapsed: elapsed.String(),
			constant.DataRows:    rows,
			constant.DataSQL:     sql,
		},
	})
}

// NewSQLiteRepository creates a new SQLite repository. The default
// "file::memory:?cache=shared" keeps everything in process memory.
func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	ctx := appLogger.NewRequestContext()

	appLogger.CtxDebug(ctx, "Opening SQLite database", appLogger.LoggerInfo{
		ContextFunction: constant.CtxDB,
		Data: map[string]interface{}{
			constant.DataPath: dbPath,
		},
	})

	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: &GormLogger{},
	})
	if err != nil {
		appLogger.CtxError(ctx, "Failed to open database", appLogger.LoggerInfo{
			ContextFunction: constant.CtxDB,
			Error: &appLogger.CustomError{
				Code:    constant.ErrCodeDBOpen,
				Message: err.Error(),
				Type:    constant.ErrTypeDB,
			},
			Data: map[string]interface{}{
				constant.DataPath: dbPath,
			},
		})
		return nil, err
	}

	// a shared in-memory database lives as long as one connection does
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.SetMaxOpenConns(1)
	}

	if err := db.AutoMigrate(&SessionModel{}, &GenerationModel{}); err != nil {
		appLogger.CtxError(ctx, "Failed to migrate database schema", appLogger.LoggerInfo{
			ContextFunction: constant.CtxDB,
			Error: &appLogger.CustomError{
				Code:    constant.ErrCodeDBMigrate,
				Message: err.Error(),
				Type:    constant.ErrTypeDB,
			},
		})
		return nil, err
	}

	appLogger.CtxInfo(ctx, "Database initialized successfully", appLogger.LoggerInfo{
		ContextFunction: constant.CtxDB,
		Data: map[string]interface{}{
			constant.DataPath: dbPath,
		},
	})

	return &SQLiteRepository{db: db}, nil
}

// SaveSession inserts or replaces a session snapshot
func (r *SQLiteRepository) SaveSession(ctx context.Context, snap *form.Snapshot) error {
	model := SessionModel{
		ID:        snap.ID,
		Input:     snap.Input,
		TaggedURL: snap.TaggedURL,
		Counter:   snap.Counter,
		Format:    string(snap.Format),
		Color:     snap.Color,
		Size:      snap.Size,
		CreatedAt: snap.CreatedAt,
		UpdatedAt: snap.UpdatedAt,
	}

	if err := r.db.WithContext(ctx).Save(&model).Error; err != nil {
		appLogger.CtxError(ctx, "Failed to save session", appLogger.LoggerInfo{
			ContextFunction: constant.CtxSaveSession,
			Error: &appLogger.CustomError{
				Code:    constant.ErrCodeDBSave,
				Message: err.Error(),
				Type:    constant.ErrTypeDB,
			},
			Data: map[string]interface{}{
				constant.DataSessionID: snap.ID,
			},
		})
		return err
	}

	appLogger.CtxDebug(ctx, "Session saved", appLogger.LoggerInfo{
		ContextFunction: constant.CtxSaveSession,
		Data: map[string]interface{}{
			constant.DataSessionID: snap.ID,
			constant.DataCounter:   snap.Counter,
		},
	})
	return nil
}

// FindSession retrieves a session snapshot by ID
func (r *SQLiteRepository) FindSession(ctx context.Context, id string) (*form.Snapshot, error) {
	var model SessionModel

	err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		appLogger.CtxInfo(ctx, "Session not found", appLogger.LoggerInfo{
			ContextFunction: constant.CtxFindSession,
			Data: map[string]interface{}{
				constant.DataSessionID: id,
			},
		})
		return nil, form.ErrSessionNotFound
	}
	if err != nil {
		appLogger.CtxError(ctx, "Database error while looking up session", appLogger.LoggerInfo{
			ContextFunction: constant.CtxFindSession,
			Error: &appLogger.CustomError{
				Code:    constant.ErrCodeDBLookup,
				Message: err.Error(),
				Type:    constant.ErrTypeDB,
			},
			Data: map[string]interface{}{
				constant.DataSessionID: id,
			},
		})
		return nil, err
	}

	return &form.Snapshot{
		ID:        model.ID,
		Input:     model.Input,
		TaggedURL: model.TaggedURL,
		Counter:   model.Counter,
		Format:    symbol.Format(model.Format),
		Color:     model.Color,
		Size:      model.Size,
		CreatedAt: model.CreatedAt,
		UpdatedAt: model.UpdatedAt,
	}, nil
}

// DeleteSession removes a session and its generation history
func (r *SQLiteRepository) DeleteSession(ctx context.Context, id string) error {
	var affected int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec(`DELETE FROM generation_models WHERE session_id = ?`, id).Error; err != nil {
			return err
		}
		result := tx.Exec(`DELETE FROM session_models WHERE id = ?`, id)
		affected = result.RowsAffected
		return result.Error
	})
	if err != nil {
		appLogger.CtxError(ctx, "Failed to delete session", appLogger.LoggerInfo{
			ContextFunction: constant.CtxDeleteSessionDB,
			Error: &appLogger.CustomError{
				Code:    constant.ErrCodeDBDelete,
				Message: err.Error(),
				Type:    constant.ErrTypeDB,
			},
			Data: map[string]interface{}{
				constant.DataSessionID: id,
			},
		})
		return err
	}

	if affected == 0 {
		appLogger.CtxWarn(ctx, "No session rows deleted", appLogger.LoggerInfo{
			ContextFunction: constant.CtxDeleteSessionDB,
			Data: map[string]interface{}{
				constant.DataSessionID: id,
			},
		})
		return form.ErrSessionNotFound
	}

	appLogger.CtxDebug(ctx, "Session deleted", appLogger.LoggerInfo{
		ContextFunction: constant.CtxDeleteSessionDB,
		Data: map[string]interface{}{
			constant.DataSessionID:    id,
			constant.DataRowsAffected: affected,
		},
	})
	return nil
}

// AppendGeneration records a completed generation
func (r *SQLiteRepository) AppendGeneration(ctx context.Context, gen *form.Generation) error {
	model := GenerationModel{
		SessionID: gen.SessionID,
		Sequence:  gen.Sequence,
		Reference: gen.Reference,
		TaggedURL: gen.TaggedURL,
		Format:    string(gen.Format),
		CreatedAt: gen.CreatedAt,
	}

	if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
		appLogger.CtxError(ctx, "Failed to insert generation", appLogger.LoggerInfo{
			ContextFunction: constant.CtxAppendGeneration,
			Error: &appLogger.CustomError{
				Code:    constant.ErrCodeDBAppendGeneration,
				Message: err.Error(),
				Type:    constant.ErrTypeDB,
			},
			Data: map[string]interface{}{
				constant.DataSessionID: gen.SessionID,
				constant.DataReference: gen.Reference,
			},
		})
		return err
	}

	gen.ID = model.ID
	return nil
}

// ListGenerations returns a session's generations in counter order
func (r *SQLiteRepository) ListGenerations(ctx context.Context, sessionID string) ([]form.Generation, error) {
	var models []GenerationModel

	err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("sequence ASC").
		Find(&models).Error
	if err != nil {
		appLogger.CtxError(ctx, "Failed to list generations", appLogger.LoggerInfo{
			ContextFunction: constant.CtxListGenerations,
			Error: &appLogger.CustomError{
				Code:    constant.ErrCodeDBListGenerations,
				Message: err.Error(),
				Type:    constant.ErrTypeDB,
			},
			Data: map[string]interface{}{
				constant.DataSessionID: sessionID,
			},
		})
		return nil, err
	}

	gens := make([]form.Generation, 0, len(models))
	for _, m := range models {
		gens = append(gens, form.Generation{
			ID:        m.ID,
			SessionID: m.SessionID,
			Sequence:  m.Sequence,
			Reference: m.Reference,
			TaggedURL: m.TaggedURL,
			Format:    symbol.Format(m.Format),
			CreatedAt: m.CreatedAt,
		})
	}
	return gens, nil
}

// Close closes the database connection
func (r *SQLiteRepository) Close() error {
	ctx := context.Background()
	sqlDB, err := r.db.DB()
	if err != nil {
		appLogger.CtxError(ctx, "Failed to get database connection", appLogger.LoggerInfo{
			ContextFunction: constant.CtxClose,
			Error: &appLogger.CustomError{
				Code:    constant.ErrCodeDBClose,
				Message: err.Error(),
				Type:    constant.ErrTypeDB,
			},
		})
		return err
	}

	appLogger.CtxInfo(ctx, "Closing database connection", appLogger.LoggerInfo{
		ContextFunction: constant.CtxClose,
	})

	return sqlDB.Close()
}
