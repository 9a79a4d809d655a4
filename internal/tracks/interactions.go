package tracks

import (
	"context"
	"fmt"
	"strings"

	"github.com/stitchmusic/music-api/pkg/types"
	"gorm.io/gorm/clause"
)

// Like records a like; liking twice is a no-op
func (s *Service) Like(ctx context.Context, trackID, userID int64) (*types.LikeActionResponse, error) {
	if _, err := s.Get(ctx, trackID); err != nil {
		return nil, err
	}

	like := &types.Like{TrackID: trackID, UserID: userID, CreatedAt: s.now()}
	if err := s.DB.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(like).Error; err != nil {
		return nil, fmt.Errorf("failed to like track: %w", err)
	}
	return &types.LikeActionResponse{TrackID: trackID, Liked: true}, nil
}

// Unlike removes a like; unliking a track that was not liked is a no-op
func (s *Service) Unlike(ctx context.Context, trackID, userID int64) (*types.LikeActionResponse, error) {
	if _, err := s.Get(ctx, trackID); err != nil {
		return nil, err
	}

	if err := s.DB.WithContext(ctx).Where("track_id = ? AND user_id = ?", trackID, userID).Delete(&types.Like{}).Error; err != nil {
		return nil, fmt.Errorf("failed to unlike track: %w", err)
	}
	return &types.LikeActionResponse{TrackID: trackID, Liked: false}, nil
}

// CountLikes returns the number of likes on a track
func (s *Service) CountLikes(ctx context.Context, trackID int64) (*types.LikeCountResponse, error) {
	if _, err := s.Get(ctx, trackID); err != nil {
		return nil, err
	}

	var count int64
	if err := s.DB.WithContext(ctx).Model(&types.Like{}).Where("track_id = ?", trackID).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("failed to count likes: %w", err)
	}
	return &types.LikeCountResponse{TrackID: trackID, Count: count}, nil
}

// AddComment adds a comment to a track
func (s *Service) AddComment(ctx context.Context, trackID, userID int64, body string) (*types.Comment, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, ErrEmptyComment
	}
	if _, err := s.Get(ctx, trackID); err != nil {
		return nil, err
	}

	comment := &types.Comment{TrackID: trackID, UserID: userID, Body: body, CreatedAt: s.now()}
	if err := s.DB.WithContext(ctx).Create(comment).Error; err != nil {
		return nil, fmt.Errorf("failed to add comment: %w", err)
	}
	return comment, nil
}

// ListComments returns a track's comments, newest first
func (s *Service) ListComments(ctx context.Context, trackID int64, limit, offset int) ([]*types.Comment, error) {
	if _, err := s.Get(ctx, trackID); err != nil {
		return nil, err
	}

	limit, offset = clampPage(limit, offset)
	var comments []*types.Comment
	if err := s.DB.WithContext(ctx).
		Where("track_id = ?", trackID).
		Order("created_at DESC").Order("id DESC").
		Limit(limit).Offset(offset).
		Find(&comments).Error; err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}
	return comments, nil
}
