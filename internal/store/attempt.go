package store

import (
	"time"

	"gorm.io/gorm"
)

// Attempt is one recorded login against a host.
type Attempt struct {
	gorm.Model
	Host     string `gorm:"index"`
	Username string
	Outcome  string // SUCCESS, FAILURE or PENDING when the session broke down first
	Options  int    // option codes the host tried to negotiate
	Error    string
	Duration time.Duration
}

func (s *Store) RecordAttempt(a *Attempt) error {
	return s.DB.Create(a).Error
}

// RecentAttempts returns up to limit attempts, newest first. An empty host
// matches every host.
func (s *Store) RecentAttempts(host string, limit int) ([]Attempt, error) {
	query := s.DB.Order("created_at desc, id desc")
	if host != "" {
		query = query.Where("host = ?", host)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}

	var attempts []Attempt
	if err := query.Find(&attempts).Error; err != nil {
		return nil, err
	}
	return attempts, nil
}

// PruneBefore permanently removes attempts older than cutoff and returns how
// many were removed.
func (s *Store) PruneBefore(cutoff time.Time) (int64, error) {
	result := s.DB.Unscoped().
		Where("created_at < ?", cutoff).
		Delete(&Attempt{})
	return result.RowsAffected, result.Error
}
