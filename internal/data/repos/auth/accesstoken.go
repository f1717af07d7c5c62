package auth

import (
	"context"
	"time"

	"gorm.io/gorm"

	types "github.com/yungbote/graph-api/internal/domain/auth"
	"github.com/yungbote/graph-api/internal/platform/logger"
)

type AccessTokenRepo interface {
	Create(ctx context.Context, tx *gorm.DB, token *types.AccessToken) (*types.AccessToken, error)
	GetBySecret(ctx context.Context, tx *gorm.DB, secret string) (*types.AccessToken, error)
	GetByTokenID(ctx context.Context, tx *gorm.DB, tokenID string) (*types.AccessToken, error)
	List(ctx context.Context, tx *gorm.DB) ([]*types.AccessToken, error)
	TouchUsage(ctx context.Context, tx *gorm.DB, secret string) error
	SetActive(ctx context.Context, tx *gorm.DB, tokenID string, active bool) (bool, error)
	DeleteByTokenID(ctx context.Context, tx *gorm.DB, tokenID string) (bool, error)
}

type accessTokenRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewAccessTokenRepo(db *gorm.DB, baseLog *logger.Logger) AccessTokenRepo {
	return &accessTokenRepo{db: db, log: baseLog.With("repo", "AccessTokenRepo")}
}

func (r *accessTokenRepo) conn(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *accessTokenRepo) Create(ctx context.Context, tx *gorm.DB, token *types.AccessToken) (*types.AccessToken, error) {
	if err := r.conn(tx).WithContext(ctx).Create(token).Error; err != nil {
		return nil, err
	}
	return token, nil
}

func (r *accessTokenRepo) GetBySecret(ctx context.Context, tx *gorm.DB, secret string) (*types.AccessToken, error) {
	var token types.AccessToken
	err := r.conn(tx).WithContext(ctx).
		Where("token = ?", secret).
		First(&token).Error
	if err != nil {
		return nil, err
	}
	return &token, nil
}

func (r *accessTokenRepo) GetByTokenID(ctx context.Context, tx *gorm.DB, tokenID string) (*types.AccessToken, error) {
	var token types.AccessToken
	err := r.conn(tx).WithContext(ctx).
		Where("token_id = ?", tokenID).
		First(&token).Error
	if err != nil {
		return nil, err
	}
	return &token, nil
}

func (r *accessTokenRepo) List(ctx context.Context, tx *gorm.DB) ([]*types.AccessToken, error) {
	var tokens []*types.AccessToken
	err := r.conn(tx).WithContext(ctx).
		Order("created_at DESC").
		Find(&tokens).Error
	if err != nil {
		return nil, err
	}
	return tokens, nil
}

func (r *accessTokenRepo) TouchUsage(ctx context.Context, tx *gorm.DB, secret string) error {
	return r.conn(tx).WithContext(ctx).
		Model(&types.AccessToken{}).
		Where("token = ?", secret).
		Updates(map[string]interface{}{
			"use_count": gorm.Expr("use_count + 1"),
			"last_used": time.Now(),
		}).Error
}

func (r *accessTokenRepo) SetActive(ctx context.Context, tx *gorm.DB, tokenID string, active bool) (bool, error) {
	res := r.conn(tx).WithContext(ctx).
		Model(&types.AccessToken{}).
		Where("token_id = ?", tokenID).
		Update("is_active", active)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *accessTokenRepo) DeleteByTokenID(ctx context.Context, tx *gorm.DB, tokenID string) (bool, error) {
	res := r.conn(tx).WithContext(ctx).
		Where("token_id = ?", tokenID).
		Delete(&types.AccessToken{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
