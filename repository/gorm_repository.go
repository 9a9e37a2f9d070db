package repository

import (
	"context"
	"log/slog"

	"github.com/prepwise/backend/models"
	"gorm.io/gorm"
)

type GORMRepository struct {
	db *gorm.DB
}

func NewGORMRepository(db *gorm.DB) *GORMRepository {
	return &GORMRepository{db: db}
}

// AutoMigrate runs database migrations
func (r *GORMRepository) AutoMigrate() error {
	return r.db.AutoMigrate(
		&models.User{},
		&models.AssessmentRecord{},
	)
}

// User operations
func (r *GORMRepository) CreateUser(ctx context.Context, user *models.User) error {
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		slog.Error("Failed to create user", "error", err)
		return err
	}
	slog.Info("User created", "user_id", user.ID, "email", user.Email)
	return nil
}

func (r *GORMRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		slog.Error("Failed to get user by email", "error", err, "email", email)
		return nil, err
	}
	return &user, nil
}

func (r *GORMRepository) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		slog.Error("Failed to get user by ID", "error", err, "user_id", id)
		return nil, err
	}
	return &user, nil
}

// Assessment record operations. The durable layer keeps one row per
// session; the in-memory store remains authoritative until completion.

func (r *GORMRepository) CreateRecord(ctx context.Context, record *models.AssessmentRecord) error {
	if err := r.db.WithContext(ctx).Create(record).Error; err != nil {
		slog.Error("Failed to create assessment record", "error", err, "record_id", record.ID)
		return err
	}
	slog.Info("Assessment record created", "record_id", record.ID, "kind", record.Kind, "user_id", record.UserID)
	return nil
}

func (r *GORMRepository) UpdateRecord(ctx context.Context, id string, patch map[string]interface{}) error {
	if err := r.db.WithContext(ctx).Model(&models.AssessmentRecord{}).Where("id = ?", id).Updates(patch).Error; err != nil {
		slog.Error("Failed to update assessment record", "error", err, "record_id", id)
		return err
	}
	return nil
}

func (r *GORMRepository) GetRecord(ctx context.Context, id string) (*models.AssessmentRecord, error) {
	var record models.AssessmentRecord
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&record).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		slog.Error("Failed to get assessment record", "error", err, "record_id", id)
		return nil, err
	}
	return &record, nil
}

func (r *GORMRepository) QueryByOwner(ctx context.Context, kind string, userID string) ([]models.AssessmentRecord, error) {
	var records []models.AssessmentRecord
	query := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at DESC")
	if kind != "" {
		query = query.Where("kind = ?", kind)
	}
	if err := query.Find(&records).Error; err != nil {
		slog.Error("Failed to query assessment records", "error", err, "user_id", userID, "kind", kind)
		return nil, err
	}
	return records, nil
}

func (r *GORMRepository) DeleteRecord(ctx context.Context, id string) error {
	if err := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.AssessmentRecord{}).Error; err != nil {
		slog.Error("Failed to delete assessment record", "error", err, "record_id", id)
		return err
	}
	slog.Info("Assessment record deleted", "record_id", id)
	return nil
}
